package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/verdantleaf/quote_api/internal/models"
	"github.com/verdantleaf/quote_api/internal/service"
	"github.com/verdantleaf/quote_api/internal/utils"
)

// CatalogManagementHandler handles the admin CRUD surface for products,
// discount tiers, shipping zones, and region mappings. Every successful write
// goes through the management service, which reloads the pricing snapshot.
type CatalogManagementHandler struct {
	mgmtService *service.CatalogManagementService
}

// NewCatalogManagementHandler constructs a CatalogManagementHandler.
func NewCatalogManagementHandler(mgmtService *service.CatalogManagementService) *CatalogManagementHandler {
	return &CatalogManagementHandler{mgmtService: mgmtService}
}

// ProductRequest is the body for product create/update.
type ProductRequest struct {
	Key                string          `json:"key" binding:"required"`
	Name               string          `json:"name" binding:"required"`
	Category           string          `json:"category"`
	UnitPrice          decimal.Decimal `json:"unitPrice" binding:"required"`
	UnitsPerCase       int             `json:"unitsPerCase" binding:"required"`
	UnitsPerDisplayBox int             `json:"unitsPerDisplayBox"`
	UpsellBoxThreshold int             `json:"upsellBoxThreshold"`
	IsActive           *bool           `json:"isActive"`
}

func (r *ProductRequest) toModel() *models.Product {
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	return &models.Product{
		Key:                r.Key,
		Name:               r.Name,
		Category:           r.Category,
		UnitPrice:          r.UnitPrice,
		UnitsPerCase:       r.UnitsPerCase,
		UnitsPerDisplayBox: r.UnitsPerDisplayBox,
		UpsellBoxThreshold: r.UpsellBoxThreshold,
		IsActive:           active,
	}
}

// ListProducts returns all products including inactive ones.
func (h *CatalogManagementHandler) ListProducts(c *gin.Context) {
	products, err := h.mgmtService.ListProducts()
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to list products")
		return
	}
	utils.Success(c, 200, "Products retrieved successfully", gin.H{"products": products})
}

// CreateProduct adds a product to the catalog.
func (h *CatalogManagementHandler) CreateProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid product payload")
		return
	}
	p := req.toModel()
	if err := h.mgmtService.CreateProduct(c.Request.Context(), p); err != nil {
		respondManagementError(c, err)
		return
	}
	utils.Success(c, 201, "Product created successfully", gin.H{"product": p})
}

// UpdateProduct updates a product by key.
func (h *CatalogManagementHandler) UpdateProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid product payload")
		return
	}
	p := req.toModel()
	p.Key = c.Param("key")
	if err := h.mgmtService.UpdateProduct(c.Request.Context(), p); err != nil {
		respondManagementError(c, err)
		return
	}
	utils.Success(c, 200, "Product updated successfully", gin.H{"product": p})
}

// DeleteProduct removes a product by key.
func (h *CatalogManagementHandler) DeleteProduct(c *gin.Context) {
	if err := h.mgmtService.DeleteProduct(c.Request.Context(), c.Param("key")); err != nil {
		respondManagementError(c, err)
		return
	}
	utils.Success(c, 200, "Product deleted successfully", nil)
}

// TierRequest is the body for tier upsert.
type TierRequest struct {
	Threshold    int             `json:"threshold"`
	DiscountRate decimal.Decimal `json:"discountRate"`
	Label        string          `json:"label"`
}

// ListTiers returns the discount tier ladder.
func (h *CatalogManagementHandler) ListTiers(c *gin.Context) {
	tiers, err := h.mgmtService.ListTiers()
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to list tiers")
		return
	}
	utils.Success(c, 200, "Tiers retrieved successfully", gin.H{"tiers": tiers})
}

// UpsertTier inserts or updates a tier by threshold.
func (h *CatalogManagementHandler) UpsertTier(c *gin.Context) {
	var req TierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid tier payload")
		return
	}
	t := &models.Tier{Threshold: req.Threshold, DiscountRate: req.DiscountRate, Label: req.Label}
	if err := h.mgmtService.UpsertTier(c.Request.Context(), t); err != nil {
		respondManagementError(c, err)
		return
	}
	utils.Success(c, 200, "Tier saved successfully", gin.H{"tier": t})
}

// DeleteTier removes a tier by threshold.
func (h *CatalogManagementHandler) DeleteTier(c *gin.Context) {
	threshold, err := strconv.Atoi(c.Param("threshold"))
	if err != nil || threshold < 0 {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid tier threshold")
		return
	}
	if err := h.mgmtService.DeleteTier(c.Request.Context(), threshold); err != nil {
		respondManagementError(c, err)
		return
	}
	utils.Success(c, 200, "Tier deleted successfully", nil)
}

// BandRequest is one shipping rate band in a zone payload.
type BandRequest struct {
	MaxBoxes int             `json:"maxBoxes" binding:"required"`
	Rate     decimal.Decimal `json:"rate"`
}

// ZoneRequest is the body for zone upsert.
type ZoneRequest struct {
	Key               string          `json:"key" binding:"required"`
	Name              string          `json:"name"`
	Mode              string          `json:"mode" binding:"required"`
	RatePercent       decimal.Decimal `json:"ratePercent"`
	PerMasterCaseRate decimal.Decimal `json:"perMasterCaseRate"`
	IsDefault         bool            `json:"isDefault"`
	Bands             []BandRequest   `json:"bands"`
}

// ListZones returns all shipping zones with their bands.
func (h *CatalogManagementHandler) ListZones(c *gin.Context) {
	zones, err := h.mgmtService.ListZones()
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to list zones")
		return
	}
	utils.Success(c, 200, "Zones retrieved successfully", gin.H{"zones": zones})
}

// UpsertZone inserts or updates a zone by key, replacing its bands.
func (h *CatalogManagementHandler) UpsertZone(c *gin.Context) {
	var req ZoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid zone payload")
		return
	}
	z := &models.ShippingZone{
		Key:               req.Key,
		Name:              req.Name,
		Mode:              models.ZoneMode(req.Mode),
		RatePercent:       req.RatePercent,
		PerMasterCaseRate: req.PerMasterCaseRate,
		IsDefault:         req.IsDefault,
	}
	for _, b := range req.Bands {
		z.Bands = append(z.Bands, models.ShippingBand{MaxBoxes: b.MaxBoxes, Rate: b.Rate})
	}
	if err := h.mgmtService.UpsertZone(c.Request.Context(), z); err != nil {
		respondManagementError(c, err)
		return
	}
	utils.Success(c, 200, "Zone saved successfully", gin.H{"zone": z})
}

// DeleteZone removes a zone by key.
func (h *CatalogManagementHandler) DeleteZone(c *gin.Context) {
	if err := h.mgmtService.DeleteZone(c.Request.Context(), c.Param("key")); err != nil {
		respondManagementError(c, err)
		return
	}
	utils.Success(c, 200, "Zone deleted successfully", nil)
}

// RegionRequest is the body for region mapping upsert.
type RegionRequest struct {
	RegionCode string `json:"regionCode" binding:"required"`
	ZoneKey    string `json:"zoneKey" binding:"required"`
}

// SetRegion maps a region code to a zone.
func (h *CatalogManagementHandler) SetRegion(c *gin.Context) {
	var req RegionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "regionCode and zoneKey are required")
		return
	}
	if err := h.mgmtService.SetRegion(c.Request.Context(), req.RegionCode, req.ZoneKey); err != nil {
		respondManagementError(c, err)
		return
	}
	utils.Success(c, 200, "Region mapped successfully", nil)
}

// DeleteRegion removes a region mapping.
func (h *CatalogManagementHandler) DeleteRegion(c *gin.Context) {
	if err := h.mgmtService.DeleteRegion(c.Request.Context(), c.Param("regionCode")); err != nil {
		respondManagementError(c, err)
		return
	}
	utils.Success(c, 200, "Region unmapped successfully", nil)
}

// respondManagementError maps catalog edit errors onto envelope responses.
// Validation failures from the snapshot rebuild come back as 422 so the admin
// sees what to fix; the database already holds the rejected edit.
func respondManagementError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, utils.ErrProductNotFound):
		utils.Error(c, 404, "PRODUCT_NOT_FOUND", "Product not found")
	case errors.Is(err, utils.ErrZoneNotFound):
		utils.Error(c, 404, "ZONE_NOT_FOUND", "Zone not found")
	case errors.Is(err, utils.ErrDuplicateProduct):
		utils.Error(c, 409, "DUPLICATE_PRODUCT_KEY", "A product with this key already exists")
	default:
		utils.Error(c, 422, "CATALOG_EDIT_FAILED", err.Error())
	}
}
