package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/staff-auth/internal/application"
	"github.com/oksasatya/staff-auth/internal/interface/middleware"
	"github.com/oksasatya/staff-auth/pkg/response"
)

type UserHandler struct {
	Svc    *application.UserService
	Logger *logrus.Logger
}

func NewUserHandler(svc *application.UserService, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger}
}

type createUserRequest struct {
	Name            string `json:"name" binding:"required"`
	Email           string `json:"email" binding:"required"`
	Department      string `json:"department"`
	EmployeeID      string `json:"employee_id"`
	Role            string `json:"role"`
	Status          string `json:"status"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type searchQuery struct {
	Q    string `form:"q" json:"q" binding:"required"`
	Size int    `form:"size" json:"size" binding:"omitempty,min=1,max=100"`
}

// pathID parses :id. Ids that are not positive integers can never match a user.
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusNotFound, "User not found", nil)
		return 0, false
	}
	return id, true
}

func (h *UserHandler) List(c *gin.Context) {
	res, err := h.Svc.ListUsers(c.Request.Context(), middleware.Caller(c))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": res.Users, "source": res.Source})
}

func (h *UserHandler) Create(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	res, err := h.Svc.CreateUser(c.Request.Context(), middleware.Caller(c), application.CreateUserInput(req))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}

	fields := gin.H{"user": application.ToView(res.User)}
	if res.TempPassword != "" {
		fields["temp_password"] = res.TempPassword
	}
	response.Success(c, http.StatusCreated, "User created successfully", fields)
}

func (h *UserHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req application.UpdateUserInput
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	u, err := h.Svc.UpdateUser(c.Request.Context(), middleware.Caller(c), id, req)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, "User updated successfully", gin.H{"user": application.ToView(u)})
}

func (h *UserHandler) UpdateStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	u, err := h.Svc.UpdateStatus(c.Request.Context(), middleware.Caller(c), id, req.Status)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, "User status updated to "+string(u.Status), gin.H{"user": application.ToView(u)})
}

func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.Svc.DeleteUser(c.Request.Context(), middleware.Caller(c), id); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, "User deleted successfully", nil)
}

func (h *UserHandler) Search(c *gin.Context) {
	var q searchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeBindError(c, err)
		return
	}
	res, err := h.Svc.SearchUsers(c.Request.Context(), middleware.Caller(c), q.Q, q.Size)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": res.Users, "source": res.Source})
}
