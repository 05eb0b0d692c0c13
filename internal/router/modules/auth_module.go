package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/staff-auth/internal/interface/http"
	"github.com/oksasatya/staff-auth/internal/interface/middleware"
)

// AuthModule mounts the authentication endpoints.
// Public: POST /auth/register, POST /auth/login
// Protected: GET /auth/verify, GET /auth/me
type AuthModule struct {
	Handler *handlers.AuthHandler
	Auth    middleware.Authenticator
}

func NewAuthModule(h *handlers.AuthHandler, auth middleware.Authenticator) *AuthModule {
	return &AuthModule{Handler: h, Auth: auth}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	rg.POST("/auth/register", m.Handler.Register)
	rg.POST("/auth/login", m.Handler.Login)

	auth := rg.Group("/auth")
	auth.Use(middleware.Auth(m.Auth))
	{
		auth.GET("/verify", m.Handler.Verify)
		auth.GET("/me", m.Handler.Me)
	}
}
