package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/staff-auth/internal/container"
)

type HealthHandler struct {
	C *container.Container
}

func NewHealthHandler(c *container.Container) *HealthHandler {
	return &HealthHandler{C: c}
}

func connected(ok bool) string {
	if ok {
		return "connected"
	}
	return "disconnected"
}

// Health always answers 200. A ready process whose store stops answering
// moves to degraded, and back to ready once it recovers. While starting, the
// clients are still being assigned, so only the readiness state is read.
func (h *HealthHandler) Health(c *gin.Context) {
	var dbOK, redisOK bool
	state := h.C.State()
	if state != container.StateStarting {
		ctx := c.Request.Context()
		dbOK = h.C.StoreHealthy(ctx)
		redisOK = h.C.CacheHealthy(ctx)
		if dbOK {
			state = container.StateReady
		} else {
			state = container.StateDegraded
		}
		h.C.SetState(state)
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      state.String(),
		"service":     h.C.Cfg.ServiceName,
		"database":    connected(dbOK),
		"redis":       connected(redisOK),
		"initialized": state != container.StateStarting,
		"timestamp":   time.Now().UTC(),
	})
}

func (h *HealthHandler) Index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": h.C.Cfg.AppName + " API",
		"service": h.C.Cfg.ServiceName,
		"version": h.C.Cfg.Version,
	})
}
