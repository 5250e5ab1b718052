package models

import "time"

// Session is the mutable working set of a quote a rep is building. Every
// mutation re-runs the pricing engine synchronously; Breakdown always reflects
// the current lines, region, and options (nil until the first priced line).
type Session struct {
	ID            string            `json:"id"`
	ClientID      int               `json:"clientId"`
	CustomerName  string            `json:"customerName,omitempty"`
	CustomerEmail string            `json:"customerEmail,omitempty"`
	RegionCode    string            `json:"regionCode"`
	Lines         []LineItemRequest `json:"lines"`
	Options       QuoteOptions      `json:"options"`
	Breakdown     *QuoteBreakdown   `json:"breakdown,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}
