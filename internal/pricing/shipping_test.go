package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/verdantleaf/quote_api/internal/models"
)

func percentageZone(rate string) models.ShippingZone {
	return models.ShippingZone{
		Key:         "pct",
		Mode:        models.ZoneModePercentage,
		RatePercent: dec(rate),
	}
}

func bandedZone() models.ShippingZone {
	return models.ShippingZone{
		Key:               "banded",
		Mode:              models.ZoneModeBanded,
		PerMasterCaseRate: dec("85"),
		Bands: []models.ShippingBand{
			{MaxBoxes: 3, Rate: dec("30")},
			{MaxBoxes: 6, Rate: dec("50")},
			{MaxBoxes: 11, Rate: dec("80")},
		},
	}
}

func TestShippingCostOverrideWins(t *testing.T) {
	override := dec("123.45")
	got := ShippingCost(bandedZone(), dec("5000"), 4, 10, &override)
	assert.True(t, got.Equal(override))

	// Override applies even with zero units.
	got = ShippingCost(percentageZone("5"), decimal.Zero, 0, 0, &override)
	assert.True(t, got.Equal(override))
}

func TestShippingCostZeroUnits(t *testing.T) {
	got := ShippingCost(percentageZone("5"), dec("100"), 0, 0, nil)
	assert.True(t, got.IsZero())

	got = ShippingCost(bandedZone(), dec("100"), 0, 0, nil)
	assert.True(t, got.IsZero())
}

func TestShippingCostPercentage(t *testing.T) {
	got := ShippingCost(percentageZone("5"), dec("37596.96"), 0, 60, nil)
	assert.Equal(t, "1879.85", got.StringFixed(2))

	got = ShippingCost(percentageZone("7.5"), dec("1000"), 2, 0, nil)
	assert.Equal(t, "75.00", got.StringFixed(2))
}

func TestShippingCostBandedPerCase(t *testing.T) {
	zone := bandedZone()

	got := ShippingCost(zone, dec("1000"), 0, 1, nil)
	assert.Equal(t, "85.00", got.StringFixed(2))

	got = ShippingCost(zone, dec("1000"), 0, 12, nil)
	assert.Equal(t, "1020.00", got.StringFixed(2))

	// Loose boxes alongside full cases do not switch back to band pricing.
	got = ShippingCost(zone, dec("1000"), 5, 2, nil)
	assert.Equal(t, "170.00", got.StringFixed(2))
}

func TestShippingCostBandedBoxes(t *testing.T) {
	zone := bandedZone()

	cases := []struct {
		boxes int
		want  string
	}{
		{1, "30.00"},
		{3, "30.00"},
		{4, "50.00"},
		{6, "50.00"},
		{7, "80.00"},
		{11, "80.00"},
	}
	for _, tc := range cases {
		got := ShippingCost(zone, dec("500"), tc.boxes, 0, nil)
		assert.Equal(t, tc.want, got.StringFixed(2), "boxes=%d", tc.boxes)
	}

	// Beyond the last band without a full case, charge one case.
	got := ShippingCost(zone, dec("500"), 20, 0, nil)
	assert.Equal(t, "85.00", got.StringFixed(2))
}
