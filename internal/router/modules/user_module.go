package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/staff-auth/internal/interface/http"
	"github.com/oksasatya/staff-auth/internal/interface/middleware"
)

// UserModule mounts account administration under /users. Every route requires
// a bearer token; role checks happen in the service.
type UserModule struct {
	Handler *handlers.UserHandler
	Auth    middleware.Authenticator
}

func NewUserModule(h *handlers.UserHandler, auth middleware.Authenticator) *UserModule {
	return &UserModule{Handler: h, Auth: auth}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	users := rg.Group("/users")
	users.Use(middleware.Auth(m.Auth))
	{
		users.GET("", m.Handler.List)
		users.POST("", m.Handler.Create)
		users.GET("/search", m.Handler.Search)
		users.PUT("/:id", m.Handler.Update)
		users.PUT("/:id/status", m.Handler.UpdateStatus)
		users.DELETE("/:id", m.Handler.Delete)
	}
}
