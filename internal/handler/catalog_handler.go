package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/verdantleaf/quote_api/internal/service"
	"github.com/verdantleaf/quote_api/internal/utils"
)

// CatalogHandler exposes the read-only catalog views used by quoting clients.
// All reads come from the in-memory snapshot, never the database.
type CatalogHandler struct {
	catalogService *service.CatalogService
}

// NewCatalogHandler constructs a CatalogHandler.
func NewCatalogHandler(catalogService *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// GetProducts returns the active product catalog.
func (h *CatalogHandler) GetProducts(c *gin.Context) {
	snap, err := h.catalogService.Snapshot()
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	utils.Success(c, 200, "Products retrieved successfully", gin.H{
		"products": snap.Products(),
		"loadedAt": snap.LoadedAt(),
	})
}

// GetTiers returns the volume discount ladder.
func (h *CatalogHandler) GetTiers(c *gin.Context) {
	snap, err := h.catalogService.Snapshot()
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	utils.Success(c, 200, "Tiers retrieved successfully", gin.H{
		"tiers": snap.Tiers(),
	})
}

// GetZones returns the shipping zone table.
func (h *CatalogHandler) GetZones(c *gin.Context) {
	snap, err := h.catalogService.Snapshot()
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	utils.Success(c, 200, "Zones retrieved successfully", gin.H{
		"zones":       snap.Zones(),
		"defaultZone": snap.DefaultZone().Key,
	})
}

func respondCatalogError(c *gin.Context, err error) {
	if errors.Is(err, utils.ErrCatalogNotReady) {
		utils.Error(c, 503, "CATALOG_NOT_READY", "Catalog has not finished loading")
		return
	}
	utils.Error(c, 500, "INTERNAL_ERROR", "Failed to read catalog")
}
