package handler

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/verdantleaf/quote_api/internal/middleware"
	"github.com/verdantleaf/quote_api/internal/models"
	"github.com/verdantleaf/quote_api/internal/service"
	"github.com/verdantleaf/quote_api/internal/utils"
)

// QuoteHandler handles one-shot quote computation and finalized quote access.
type QuoteHandler struct {
	quoteService  *service.QuoteService
	exportService *service.ExportService
}

// NewQuoteHandler constructs a QuoteHandler.
func NewQuoteHandler(quoteService *service.QuoteService, exportService *service.ExportService) *QuoteHandler {
	return &QuoteHandler{quoteService: quoteService, exportService: exportService}
}

// ComputeQuoteRequest is the body of POST /v1/quote.
type ComputeQuoteRequest struct {
	Lines              []models.LineItemRequest `json:"lines" binding:"required"`
	RegionCode         string                   `json:"regionCode"`
	ApplyCardFee       *bool                    `json:"applyCardFee"`
	CardFeeRate        *decimal.Decimal         `json:"cardFeeRate"`
	FeeWaiverThreshold *decimal.Decimal         `json:"feeWaiverThreshold"`
	ShippingOverride   *decimal.Decimal         `json:"shippingOverride"`
}

// Options merges the request's overrides onto the default fee policy.
func (r *ComputeQuoteRequest) Options() models.QuoteOptions {
	opts := models.DefaultQuoteOptions()
	if r.ApplyCardFee != nil {
		opts.ApplyCardFee = *r.ApplyCardFee
	}
	if r.CardFeeRate != nil {
		opts.CardFeeRate = *r.CardFeeRate
	}
	if r.FeeWaiverThreshold != nil {
		opts.FeeWaiverThreshold = *r.FeeWaiverThreshold
	}
	opts.ShippingOverride = r.ShippingOverride
	return opts
}

// ComputeQuote prices a set of lines without creating a session.
func (h *QuoteHandler) ComputeQuote(c *gin.Context) {
	var req ComputeQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	breakdown, err := h.quoteService.Compute(req.Lines, req.RegionCode, req.Options())
	if err != nil {
		respondPricingError(c, err)
		return
	}

	utils.Success(c, 200, "Quote computed successfully", gin.H{
		"breakdown": breakdown,
	})
}

// GetQuote returns a finalized quote by public ID.
func (h *QuoteHandler) GetQuote(c *gin.Context) {
	quote, err := h.quoteService.Get(c.Param("id"))
	if err != nil {
		respondQuoteError(c, err)
		return
	}
	utils.Success(c, 200, "Quote retrieved successfully", gin.H{"quote": quote})
}

// ListQuotes returns the authenticated client's quotes.
func (h *QuoteHandler) ListQuotes(c *gin.Context) {
	client := middleware.GetClient(c)
	if client == nil {
		utils.Error(c, 401, "INVALID_CLIENT", "Client not found in context")
		return
	}

	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", 50)

	quotes, total, err := h.quoteService.List(client.ID, page, limit)
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to list quotes")
		return
	}
	utils.SuccessWithPagination(c, 200, "Quotes retrieved successfully", gin.H{
		"quotes": quotes,
	}, page, limit, total)
}

// GetQuoteEmail returns the plain-text email body for a quote.
func (h *QuoteHandler) GetQuoteEmail(c *gin.Context) {
	quote, err := h.quoteService.Get(c.Param("id"))
	if err != nil {
		respondQuoteError(c, err)
		return
	}
	utils.Success(c, 200, "Email body rendered successfully", gin.H{
		"subject": fmt.Sprintf("Your quote %s", quote.QuoteID),
		"body":    h.exportService.EmailBody(quote),
	})
}

// GetQuoteDocument returns the HTML quote document.
func (h *QuoteHandler) GetQuoteDocument(c *gin.Context) {
	quote, err := h.quoteService.Get(c.Param("id"))
	if err != nil {
		respondQuoteError(c, err)
		return
	}
	html, err := h.exportService.RenderHTML(quote)
	if err != nil {
		utils.Error(c, 500, "RENDER_FAILED", "Failed to render quote document")
		return
	}
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(200, html)
}

// GetQuotePDF streams a PDF print of the quote document.
func (h *QuoteHandler) GetQuotePDF(c *gin.Context) {
	quote, err := h.quoteService.Get(c.Param("id"))
	if err != nil {
		respondQuoteError(c, err)
		return
	}
	pdf, err := h.exportService.GeneratePDF(c.Request.Context(), quote)
	if err != nil {
		utils.Error(c, 500, "PDF_FAILED", "Failed to generate PDF")
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.pdf"`, quote.QuoteID))
	c.Data(200, "application/pdf", pdf)
}

func respondQuoteError(c *gin.Context, err error) {
	if errors.Is(err, utils.ErrQuoteNotFound) {
		utils.Error(c, 404, "QUOTE_NOT_FOUND", "Quote not found")
		return
	}
	utils.Error(c, 500, "INTERNAL_ERROR", "Failed to retrieve quote")
}

// respondPricingError maps pricing engine errors onto envelope responses.
func respondPricingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, utils.ErrCatalogNotReady):
		utils.Error(c, 503, "CATALOG_NOT_READY", "Catalog has not finished loading")
	case errors.Is(err, utils.ErrNoLineItems):
		utils.Error(c, 400, "NO_LINE_ITEMS", "Quote must contain at least one line item")
	case errors.Is(err, utils.ErrProductNotFound):
		utils.Error(c, 400, "PRODUCT_NOT_FOUND", err.Error())
	case errors.Is(err, utils.ErrInvalidQuantity):
		utils.Error(c, 400, "INVALID_QUANTITY", err.Error())
	default:
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to compute quote")
	}
}

func queryInt(c *gin.Context, key string, def int) int {
	v := c.Query(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
