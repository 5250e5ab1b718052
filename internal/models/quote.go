package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineItemRequest is one requested line of a quote, as supplied by the caller.
// Quantities are expressed in master cases plus loose display boxes below a
// full case. CustomUnitPrice overrides the catalog price when present.
type LineItemRequest struct {
	ProductKey         string           `json:"productKey"`
	MasterCaseQuantity int              `json:"masterCaseQuantity"`
	DisplayBoxQuantity int              `json:"displayBoxQuantity"`
	CustomUnitPrice    *decimal.Decimal `json:"customUnitPrice,omitempty"`
}

// QuoteOptions carries the pricing knobs that are not part of the catalog.
type QuoteOptions struct {
	ApplyCardFee       bool             `json:"applyCardFee"`
	CardFeeRate        decimal.Decimal  `json:"cardFeeRate"`
	FeeWaiverThreshold decimal.Decimal  `json:"feeWaiverThreshold"`
	ShippingOverride   *decimal.Decimal `json:"shippingOverride,omitempty"`
}

// DefaultQuoteOptions returns the standard fee configuration: 3% card fee,
// waived at or above $10,000.
func DefaultQuoteOptions() QuoteOptions {
	return QuoteOptions{
		ApplyCardFee:       true,
		CardFeeRate:        decimal.NewFromFloat(0.03),
		FeeWaiverThreshold: decimal.NewFromInt(10000),
	}
}

// LineBreakdown is the fully resolved pricing of one line. ResolvedUnitPrice
// and LineTotal already include the order-level tier discount.
type LineBreakdown struct {
	ProductKey         string          `json:"productKey"`
	ProductName        string          `json:"productName"`
	MasterCaseQuantity int             `json:"masterCaseQuantity"`
	DisplayBoxQuantity int             `json:"displayBoxQuantity"`
	TotalUnits         int             `json:"totalUnits"`
	BaseUnitPrice      decimal.Decimal `json:"baseUnitPrice"`
	ResolvedUnitPrice  decimal.Decimal `json:"resolvedUnitPrice"`
	LineTotal          decimal.Decimal `json:"lineTotal"`
	UpsellSuggestion   string          `json:"upsellSuggestion,omitempty"`
}

// QuoteBreakdown is the immutable result of one quote computation.
// GrandTotal = SubtotalAfterDiscount + ShippingCost + CreditCardFee, unrounded;
// values are rounded to cents only at display and export.
type QuoteBreakdown struct {
	Lines []LineBreakdown `json:"lines"`

	SubtotalBeforeDiscount decimal.Decimal `json:"subtotalBeforeDiscount"`
	AppliedTier            *Tier           `json:"appliedTier,omitempty"`
	SubtotalAfterDiscount  decimal.Decimal `json:"subtotalAfterDiscount"`
	ShippingCost           decimal.Decimal `json:"shippingCost"`
	CreditCardFee          decimal.Decimal `json:"creditCardFee"`
	GrandTotal             decimal.Decimal `json:"grandTotal"`

	TotalMasterCases int `json:"totalMasterCases"`
	TotalDisplayBoxes int `json:"totalDisplayBoxes"`

	RegionCode   string `json:"regionCode"`
	ZoneKey      string `json:"zoneKey"`
	ZoneFallback bool   `json:"zoneFallback"`
}

// QuoteStatus enumerates the lifecycle of a persisted quote.
type QuoteStatus string

const (
	QuoteStatusFinal QuoteStatus = "final"
	QuoteStatusSent  QuoteStatus = "sent"
)

// Quote is a finalized, persisted quote.
type Quote struct {
	ID                     int             `db:"id" json:"id"`
	QuoteID                string          `db:"quote_id" json:"quoteId"`
	ClientID               int             `db:"client_id" json:"clientId"`
	CustomerName           string          `db:"customer_name" json:"customerName"`
	CustomerEmail          string          `db:"customer_email" json:"customerEmail"`
	RegionCode             string          `db:"region_code" json:"regionCode"`
	ZoneKey                string          `db:"zone_key" json:"zoneKey"`
	SubtotalBeforeDiscount decimal.Decimal `db:"subtotal_before_discount" json:"subtotalBeforeDiscount"`
	DiscountRate           decimal.Decimal `db:"discount_rate" json:"discountRate"`
	SubtotalAfterDiscount  decimal.Decimal `db:"subtotal_after_discount" json:"subtotalAfterDiscount"`
	ShippingCost           decimal.Decimal `db:"shipping_cost" json:"shippingCost"`
	CreditCardFee          decimal.Decimal `db:"credit_card_fee" json:"creditCardFee"`
	GrandTotal             decimal.Decimal `db:"grand_total" json:"grandTotal"`
	Status                 QuoteStatus     `db:"status" json:"status"`
	CreatedAt              time.Time       `db:"created_at" json:"createdAt"`

	Lines []QuoteLine `db:"-" json:"lines,omitempty"`
}

// QuoteLine is one persisted line of a finalized quote.
type QuoteLine struct {
	ID                 int             `db:"id" json:"id"`
	QuoteID            int             `db:"quote_id" json:"-"`
	ProductKey         string          `db:"product_key" json:"productKey"`
	ProductName        string          `db:"product_name" json:"productName"`
	MasterCaseQuantity int             `db:"master_case_quantity" json:"masterCaseQuantity"`
	DisplayBoxQuantity int             `db:"display_box_quantity" json:"displayBoxQuantity"`
	TotalUnits         int             `db:"total_units" json:"totalUnits"`
	ResolvedUnitPrice  decimal.Decimal `db:"resolved_unit_price" json:"resolvedUnitPrice"`
	LineTotal          decimal.Decimal `db:"line_total" json:"lineTotal"`
}

// CRMActivity is a queued Copper activity post. Failed posts are retried by
// the activity retry worker until MaxAttempts is reached.
type CRMActivity struct {
	ID          int        `db:"id" json:"id"`
	QuoteID     int        `db:"quote_id" json:"quoteId"`
	Summary     string     `db:"summary" json:"summary"`
	Status      string     `db:"status" json:"status"`
	Attempts    int        `db:"attempts" json:"attempts"`
	LastError   string     `db:"last_error" json:"lastError,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	DeliveredAt *time.Time `db:"delivered_at" json:"deliveredAt,omitempty"`
}

// CRM activity queue statuses.
const (
	CRMActivityPending   = "pending"
	CRMActivityDelivered = "delivered"
	CRMActivityFailed    = "failed"
)
