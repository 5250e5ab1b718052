package utils

import "errors"

// Common application errors used across services.
var (
	ErrCatalogNotReady  = errors.New("CATALOG_NOT_READY")
	ErrProductNotFound  = errors.New("PRODUCT_NOT_FOUND")
	ErrInvalidQuantity  = errors.New("INVALID_QUANTITY")
	ErrNoLineItems      = errors.New("NO_LINE_ITEMS")
	ErrSessionNotFound  = errors.New("SESSION_NOT_FOUND")
	ErrQuoteNotFound    = errors.New("QUOTE_NOT_FOUND")
	ErrLineNotFound     = errors.New("LINE_NOT_FOUND")
	ErrInvalidToken     = errors.New("INVALID_TOKEN")
	ErrInvalidClient    = errors.New("INVALID_CLIENT")
	ErrInvalidIP        = errors.New("INVALID_IP")
	ErrDuplicateProduct = errors.New("DUPLICATE_PRODUCT_KEY")
	ErrZoneNotFound     = errors.New("ZONE_NOT_FOUND")
	ErrCRMNotConfigured = errors.New("CRM_NOT_CONFIGURED")
)
