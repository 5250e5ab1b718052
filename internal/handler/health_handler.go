package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/verdantleaf/quote_api/internal/service"
	"github.com/verdantleaf/quote_api/internal/utils"
)

var startTime = time.Now()

// HealthHandler provides the health endpoint.
type HealthHandler struct {
	catalogService *service.CatalogService
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(catalogService *service.CatalogService) *HealthHandler {
	return &HealthHandler{catalogService: catalogService}
}

// GetHealth responds with service and catalog status.
func (h *HealthHandler) GetHealth(c *gin.Context) {
	catalogStatus := "ready"
	products := 0
	var loadedAt string
	snap, err := h.catalogService.Snapshot()
	if err != nil {
		catalogStatus = "not_ready"
	} else {
		products = len(snap.Products())
		loadedAt = snap.LoadedAt().Format(time.RFC3339)
	}

	utils.Success(c, 200, "Service is healthy", gin.H{
		"status":  "healthy",
		"version": "1.0.0",
		"uptime":  int(time.Since(startTime).Seconds()),
		"catalog": gin.H{
			"status":   catalogStatus,
			"products": products,
			"loadedAt": loadedAt,
		},
	})
}
