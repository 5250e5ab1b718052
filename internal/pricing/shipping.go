package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/verdantleaf/quote_api/internal/models"
)

var hundred = decimal.NewFromInt(100)

// ShippingCost prices shipping for a zone. A manual override always takes
// precedence over both rate models and is passed through unchanged. With no
// override, zero shippable units cost nothing: no order, no shipping.
//
// Percentage zones charge a fraction of the post-discount subtotal. Banded
// zones charge the per-case rate times the case count once at least one full
// master case ships; below that, the flat rate of the band containing the
// display-box count applies.
func ShippingCost(zone models.ShippingZone, subtotalAfterDiscount decimal.Decimal, totalDisplayBoxes, totalMasterCases int, override *decimal.Decimal) decimal.Decimal {
	if override != nil {
		return *override
	}
	if totalDisplayBoxes == 0 && totalMasterCases == 0 {
		return decimal.Zero
	}

	if zone.Mode == models.ZoneModePercentage {
		return subtotalAfterDiscount.Mul(zone.RatePercent).Div(hundred)
	}

	if totalMasterCases >= 1 {
		return zone.PerMasterCaseRate.Mul(decimal.NewFromInt(int64(totalMasterCases)))
	}
	for _, band := range zone.Bands {
		if totalDisplayBoxes <= band.MaxBoxes {
			return band.Rate
		}
	}
	// Box count beyond the last band without a full case; charge as one case.
	return zone.PerMasterCaseRate
}
