package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/observability"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/storage"
)

type HealthChecker interface {
	HealthCheck(ctx context.Context) storage.HealthStatus
}

type HealthHandler struct {
	checker HealthChecker
	metrics *observability.Metrics
}

func NewHealthHandler(checker HealthChecker, metrics *observability.Metrics) *HealthHandler {
	return &HealthHandler{checker: checker, metrics: metrics}
}

// GET /healthcheck
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// GET /health
func (h *HealthHandler) Stores(c *gin.Context) {
	st := h.checker.HealthCheck(c.Request.Context())
	h.metrics.SetStoreUp("relational", st.Relational)
	h.metrics.SetStoreUp("kv", st.KV)
	h.metrics.SetStoreUp("blob", st.Blob)
	h.metrics.SetStoreUp("vector", st.Vector)

	status := http.StatusOK
	if !st.Healthy() {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"healthy": st.Healthy(), "stores": st})
}
