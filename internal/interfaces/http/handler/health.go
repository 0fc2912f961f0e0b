package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/catalogsync/indexer/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Pinger is a dependency the API cannot serve prices without
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler answers readiness probes
type HealthHandler struct {
	catalog Pinger
	timeout time.Duration
}

func NewHealthHandler(catalog Pinger) *HealthHandler {
	return &HealthHandler{catalog: catalog, timeout: 2 * time.Second}
}

func (h *HealthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", h.Health)
}

// Health reports 503 while the catalog database does not answer
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	status, catalog := http.StatusOK, "ok"
	if err := h.catalog.PingContext(ctx); err != nil {
		logger.L(ctx).Warn("catalog database unreachable", zap.Error(err))
		status, catalog = http.StatusServiceUnavailable, "unreachable"
	}
	c.JSON(status, gin.H{
		"catalog": catalog,
		"checked": time.Now().UTC().Format(time.RFC3339),
	})
}
