package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/staff-auth/internal/application"
	"github.com/oksasatya/staff-auth/internal/domain/entity"
	"github.com/oksasatya/staff-auth/internal/interface/middleware"
	"github.com/oksasatya/staff-auth/pkg/response"
)

type AuthHandler struct {
	Svc    *application.AuthService
	Logger *logrus.Logger
}

func NewAuthHandler(svc *application.AuthService, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{Svc: svc, Logger: logger}
}

type registerRequest struct {
	Name            string `json:"name" binding:"required"`
	Email           string `json:"email" binding:"required"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
	Department      string `json:"department" binding:"required"`
	EmployeeID      string `json:"employee_id" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	u, err := h.Svc.Register(c.Request.Context(), application.RegisterInput(req))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}

	msg := "Registration successful. Your account is pending administrator approval."
	if u.Status == entity.StatusActive {
		msg = "Registration successful. You are the first user and have been granted administrator access."
	}
	response.Success(c, http.StatusCreated, msg, gin.H{"user": application.ToView(u)})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	res, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, "Login successful", gin.H{
		"token":      res.Token,
		"expires_at": res.ExpiresAt.UTC(),
		"user":       application.ToView(res.User),
	})
}

// Verify is mounted behind middleware.Auth, so reaching it means the token is valid.
func (h *AuthHandler) Verify(c *gin.Context) {
	response.Success(c, http.StatusOK, "Token is valid", gin.H{"user": application.ToView(middleware.Caller(c))})
}

func (h *AuthHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, application.ToView(middleware.Caller(c)))
}
