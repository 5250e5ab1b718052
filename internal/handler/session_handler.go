package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/verdantleaf/quote_api/internal/middleware"
	"github.com/verdantleaf/quote_api/internal/models"
	"github.com/verdantleaf/quote_api/internal/service"
	"github.com/verdantleaf/quote_api/internal/utils"
)

// SessionHandler exposes the quote session lifecycle: create, mutate lines and
// options, and finalize into a persisted quote.
type SessionHandler struct {
	sessionService *service.SessionService
	quoteService   *service.QuoteService
}

// NewSessionHandler constructs a SessionHandler.
func NewSessionHandler(sessionService *service.SessionService, quoteService *service.QuoteService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService, quoteService: quoteService}
}

// CreateSessionRequest is the body of POST /v1/sessions.
type CreateSessionRequest struct {
	RegionCode string `json:"regionCode"`
}

// CreateSession starts an empty quote session for the authenticated client.
func (h *SessionHandler) CreateSession(c *gin.Context) {
	client := middleware.GetClient(c)
	if client == nil {
		utils.Error(c, 401, "INVALID_CLIENT", "Client not found in context")
		return
	}

	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	session, err := h.sessionService.Create(c.Request.Context(), client.ID, req.RegionCode)
	if err != nil {
		respondSessionError(c, err)
		return
	}
	utils.Success(c, 201, "Session created successfully", gin.H{"session": session})
}

// GetSession returns a session with its current breakdown.
func (h *SessionHandler) GetSession(c *gin.Context) {
	session, err := h.sessionService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondSessionError(c, err)
		return
	}
	utils.Success(c, 200, "Session retrieved successfully", gin.H{"session": session})
}

// DeleteSession discards a session without finalizing.
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	if err := h.sessionService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondSessionError(c, err)
		return
	}
	utils.Success(c, 200, "Session deleted successfully", nil)
}

// AddLine adds a line item to the session and returns the recomputed session.
func (h *SessionHandler) AddLine(c *gin.Context) {
	var line models.LineItemRequest
	if err := c.ShouldBindJSON(&line); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}
	session, err := h.sessionService.AddLine(c.Request.Context(), c.Param("id"), line)
	if err != nil {
		respondSessionError(c, err)
		return
	}
	utils.Success(c, 200, "Line added successfully", gin.H{"session": session})
}

// UpdateLine replaces the line for a product.
func (h *SessionHandler) UpdateLine(c *gin.Context) {
	var line models.LineItemRequest
	if err := c.ShouldBindJSON(&line); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}
	line.ProductKey = c.Param("productKey")

	session, err := h.sessionService.UpdateLine(c.Request.Context(), c.Param("id"), line)
	if err != nil {
		respondSessionError(c, err)
		return
	}
	utils.Success(c, 200, "Line updated successfully", gin.H{"session": session})
}

// RemoveLine removes the line for a product.
func (h *SessionHandler) RemoveLine(c *gin.Context) {
	session, err := h.sessionService.RemoveLine(c.Request.Context(), c.Param("id"), c.Param("productKey"))
	if err != nil {
		respondSessionError(c, err)
		return
	}
	utils.Success(c, 200, "Line removed successfully", gin.H{"session": session})
}

// SetRegionRequest is the body of PUT /v1/sessions/:id/region.
type SetRegionRequest struct {
	RegionCode string `json:"regionCode" binding:"required"`
}

// SetRegion changes the destination region.
func (h *SessionHandler) SetRegion(c *gin.Context) {
	var req SetRegionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "regionCode is required")
		return
	}
	session, err := h.sessionService.SetRegion(c.Request.Context(), c.Param("id"), req.RegionCode)
	if err != nil {
		respondSessionError(c, err)
		return
	}
	utils.Success(c, 200, "Region updated successfully", gin.H{"session": session})
}

// SetOptionsRequest is the body of PUT /v1/sessions/:id/options.
type SetOptionsRequest struct {
	ApplyCardFee       *bool            `json:"applyCardFee"`
	CardFeeRate        *decimal.Decimal `json:"cardFeeRate"`
	FeeWaiverThreshold *decimal.Decimal `json:"feeWaiverThreshold"`
	ShippingOverride   *decimal.Decimal `json:"shippingOverride"`
	ClearOverride      bool             `json:"clearOverride"`
}

// SetOptions updates the fee/shipping knobs for a session. Omitted fields keep
// their current values; clearOverride removes a manual shipping override.
func (h *SessionHandler) SetOptions(c *gin.Context) {
	var req SetOptionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	current, err := h.sessionService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondSessionError(c, err)
		return
	}

	opts := current.Options
	if req.ApplyCardFee != nil {
		opts.ApplyCardFee = *req.ApplyCardFee
	}
	if req.CardFeeRate != nil {
		opts.CardFeeRate = *req.CardFeeRate
	}
	if req.FeeWaiverThreshold != nil {
		opts.FeeWaiverThreshold = *req.FeeWaiverThreshold
	}
	if req.ShippingOverride != nil {
		opts.ShippingOverride = req.ShippingOverride
	}
	if req.ClearOverride {
		opts.ShippingOverride = nil
	}

	session, err := h.sessionService.SetOptions(c.Request.Context(), c.Param("id"), opts)
	if err != nil {
		respondSessionError(c, err)
		return
	}
	utils.Success(c, 200, "Options updated successfully", gin.H{"session": session})
}

// SetCustomerRequest is the body of PUT /v1/sessions/:id/customer.
type SetCustomerRequest struct {
	CustomerName  string `json:"customerName" binding:"required"`
	CustomerEmail string `json:"customerEmail"`
}

// SetCustomer records the customer the quote is being prepared for.
func (h *SessionHandler) SetCustomer(c *gin.Context) {
	var req SetCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "customerName is required")
		return
	}
	session, err := h.sessionService.SetCustomer(c.Request.Context(), c.Param("id"), req.CustomerName, req.CustomerEmail)
	if err != nil {
		respondSessionError(c, err)
		return
	}
	utils.Success(c, 200, "Customer updated successfully", gin.H{"session": session})
}

// FinalizeRequest is the body of POST /v1/sessions/:id/finalize.
type FinalizeRequest struct {
	CustomerName  string `json:"customerName"`
	CustomerEmail string `json:"customerEmail"`
}

// Finalize persists the session as an immutable quote.
func (h *SessionHandler) Finalize(c *gin.Context) {
	var req FinalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	quote, err := h.quoteService.Finalize(c.Request.Context(), c.Param("id"), req.CustomerName, req.CustomerEmail)
	if err != nil {
		respondSessionError(c, err)
		return
	}
	utils.Success(c, 201, "Quote finalized successfully", gin.H{"quote": quote})
}

// respondSessionError maps session and pricing errors onto envelope responses.
func respondSessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, utils.ErrSessionNotFound):
		utils.Error(c, 404, "SESSION_NOT_FOUND", "Session not found or expired")
	case errors.Is(err, utils.ErrLineNotFound):
		utils.Error(c, 404, "LINE_NOT_FOUND", err.Error())
	case errors.Is(err, utils.ErrCatalogNotReady),
		errors.Is(err, utils.ErrNoLineItems),
		errors.Is(err, utils.ErrProductNotFound),
		errors.Is(err, utils.ErrInvalidQuantity):
		respondPricingError(c, err)
	default:
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to process session")
	}
}
