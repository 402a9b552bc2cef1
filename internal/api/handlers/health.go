package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type connectionChecker interface {
	CheckConnection(ctx context.Context) error
}

// HealthCheck reports database and storage reachability.
func (h *Handler) HealthCheck(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	status := http.StatusOK
	resp := gin.H{"status": "ok"}

	if p, ok := h.store.(pinger); ok {
		if err := p.Ping(ctx); err != nil {
			status = http.StatusServiceUnavailable
			resp["status"] = "degraded"
			resp["database"] = err.Error()
		}
	}
	if cc, ok := h.storage.(connectionChecker); ok {
		if err := cc.CheckConnection(ctx); err != nil {
			status = http.StatusServiceUnavailable
			resp["status"] = "degraded"
			resp["storage"] = err.Error()
		}
	}

	c.JSON(status, resp)
}
