package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/oksasatya/staff-auth/internal/container"
	handlers "github.com/oksasatya/staff-auth/internal/interface/http"
	"github.com/oksasatya/staff-auth/internal/interface/middleware"
	"github.com/oksasatya/staff-auth/internal/router/modules"
)

// NewEngine builds the gin engine with global middleware and every module the
// configured service mounts.
func NewEngine(c *container.Container) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.RealIP())
	if origins := c.Cfg.CORSOrigins(); len(origins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderRequestID},
			ExposeHeaders:    []string{"Content-Length", middleware.HeaderRequestID},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	if c.Cfg.HTTPLogEnabled {
		r.Use(middleware.AccessLog(c.Logger))
	}

	reg := NewRegistry(r)
	InitModules(reg, c)
	reg.RegisterAll()
	return r
}

// NewStartupEngine serves only GET / and GET /health. main swaps it for the
// full engine once the store is reachable.
func NewStartupEngine(c *container.Container) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	reg := NewRegistry(r)
	reg.AddRoot(modules.NewHealthModule(handlers.NewHealthHandler(c)))
	reg.RegisterAll()
	return r
}
