package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Check is one dependency probed by /readyz.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

type HealthHandler struct {
	checks  []Check
	timeout time.Duration
}

func NewHealthHandler(checks ...Check) *HealthHandler {
	return &HealthHandler{checks: checks, timeout: time.Second}
}

func (h *HealthHandler) Healthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HealthHandler) Readyz(ctx *gin.Context) {
	failing := gin.H{}

	for _, c := range h.checks {
		cctx, cancel := context.WithTimeout(ctx.Request.Context(), h.timeout)
		err := c.Ping(cctx)
		cancel()

		if err != nil {
			failing[c.Name] = err.Error()
		}
	}

	if len(failing) > 0 {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "failing": failing})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "ready"})
}
