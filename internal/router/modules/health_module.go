package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/staff-auth/internal/interface/http"
)

// HealthModule mounts GET / and GET /health. Neither is authenticated.
type HealthModule struct {
	Handler *handlers.HealthHandler
}

func NewHealthModule(h *handlers.HealthHandler) *HealthModule {
	return &HealthModule{Handler: h}
}

func (m *HealthModule) Register(rg *gin.RouterGroup) {
	rg.GET("/", m.Handler.Index)
	rg.GET("/health", m.Handler.Health)
}
