package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/staff-auth/internal/application"
	"github.com/oksasatya/staff-auth/internal/domain/entity"
	"github.com/oksasatya/staff-auth/pkg/response"
)

const (
	CtxUserKey   = "caller"
	CtxUserIDKey = "userID"
)

// Authenticator resolves a bearer token to an active user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*entity.User, error)
}

// Auth requires "Authorization: Bearer <token>" and re-verifies the caller
// against the store on every request. On success the caller is stored in the
// Gin context.
func Auth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			response.Error(c, http.StatusUnauthorized, "Token is missing", nil)
			return
		}
		u, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			status := StatusFor(err)
			msg := err.Error()
			if status == http.StatusInternalServerError {
				_ = c.Error(err)
				msg = "Internal server error"
			}
			response.Error(c, status, msg, nil)
			return
		}
		c.Set(CtxUserKey, u)
		c.Set(CtxUserIDKey, u.ID)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Caller returns the authenticated user set by Auth.
func Caller(c *gin.Context) *entity.User {
	if v, ok := c.Get(CtxUserKey); ok {
		if u, ok := v.(*entity.User); ok {
			return u
		}
	}
	return nil
}

// StatusFor maps the application error taxonomy to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, application.ErrValidation), errors.Is(err, application.ErrConflict):
		return http.StatusBadRequest
	case errors.Is(err, application.ErrInvalidCredentials),
		errors.Is(err, application.ErrAccountNotActive),
		errors.Is(err, application.ErrExpiredToken),
		errors.Is(err, application.ErrMalformedToken),
		errors.Is(err, application.ErrUserNotFound):
		return http.StatusUnauthorized
	case errors.Is(err, application.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, application.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
