package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ZoneMode selects how a shipping zone prices an order.
type ZoneMode string

const (
	// ZoneModePercentage charges a percentage of the post-discount subtotal.
	ZoneModePercentage ZoneMode = "percentage"
	// ZoneModeBanded charges a flat rate by display-box band, or a per-case
	// rate once at least one full master case ships.
	ZoneModeBanded ZoneMode = "banded"
)

// ShippingZone groups destination regions under one rate policy.
type ShippingZone struct {
	ID                int             `db:"id" json:"id"`
	Key               string          `db:"key" json:"key"`
	Name              string          `db:"name" json:"name"`
	Mode              ZoneMode        `db:"mode" json:"mode"`
	RatePercent       decimal.Decimal `db:"rate_percent" json:"ratePercent"`
	PerMasterCaseRate decimal.Decimal `db:"per_master_case_rate" json:"perMasterCaseRate"`
	IsDefault         bool            `db:"is_default" json:"isDefault"`
	CreatedAt         time.Time       `db:"created_at" json:"-"`
	UpdatedAt         time.Time       `db:"updated_at" json:"updatedAt"`

	// Bands are loaded from shipping_bands, ascending by MaxBoxes.
	Bands []ShippingBand `db:"-" json:"bands,omitempty"`
}

// ShippingBand is one flat-rate bracket of a banded zone. A band covers box
// counts up to and including MaxBoxes; bands are contiguous and non-overlapping.
type ShippingBand struct {
	ID       int             `db:"id" json:"id"`
	ZoneID   int             `db:"zone_id" json:"-"`
	MaxBoxes int             `db:"max_boxes" json:"maxBoxes"`
	Rate     decimal.Decimal `db:"rate" json:"rate"`
}

// ZoneRegion maps a region code (US state abbreviation) to a zone.
type ZoneRegion struct {
	RegionCode string `db:"region_code" json:"regionCode"`
	ZoneID     int    `db:"zone_id" json:"-"`
	ZoneKey    string `db:"zone_key" json:"zoneKey"`
}
