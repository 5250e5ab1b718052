package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a sellable catalog item. UnitPrice is the undiscounted
// wholesale price per individual unit; packaging levels describe how units
// roll up into display boxes and master cases.
// Fields are tagged for both DB scanning and JSON serialization.
type Product struct {
	ID                 int             `db:"id" json:"id"`
	Key                string          `db:"key" json:"key"`
	Name               string          `db:"name" json:"name"`
	Category           string          `db:"category" json:"category"`
	UnitPrice          decimal.Decimal `db:"unit_price" json:"unitPrice"`
	UnitsPerCase       int             `db:"units_per_case" json:"unitsPerCase"`
	UnitsPerDisplayBox int             `db:"units_per_display_box" json:"unitsPerDisplayBox,omitempty"`
	UpsellBoxThreshold int             `db:"upsell_box_threshold" json:"upsellBoxThreshold,omitempty"`
	IsActive           bool            `db:"is_active" json:"isActive"`
	CreatedAt          time.Time       `db:"created_at" json:"-"`
	UpdatedAt          time.Time       `db:"updated_at" json:"updatedAt"`
}

// BoxesPerCase returns how many display boxes fit in one master case,
// or 0 when the product has no display-box packaging level.
func (p *Product) BoxesPerCase() int {
	if p.UnitsPerDisplayBox <= 0 {
		return 0
	}
	return p.UnitsPerCase / p.UnitsPerDisplayBox
}

// Tier is a volume discount bracket. The tier with the highest threshold not
// exceeding the order's total master cases applies.
type Tier struct {
	ID           int             `db:"id" json:"id"`
	Threshold    int             `db:"threshold" json:"threshold"`
	DiscountRate decimal.Decimal `db:"discount_rate" json:"discountRate"`
	Label        string          `db:"label" json:"label"`
	CreatedAt    time.Time       `db:"created_at" json:"-"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updatedAt"`
}
