package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdantleaf/quote_api/internal/catalog"
	"github.com/verdantleaf/quote_api/internal/models"
	"github.com/verdantleaf/quote_api/internal/utils"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func testSnapshot(t *testing.T) *catalog.Snapshot {
	t.Helper()
	products := []models.Product{
		{
			Key:                "cham-tea",
			Name:               "Chamomile Tea Display",
			Category:           "tea",
			UnitPrice:          dec("4.50"),
			UnitsPerCase:       144,
			UnitsPerDisplayBox: 12,
			UpsellBoxThreshold: 9,
			IsActive:           true,
		},
		{
			Key:          "lav-bulk",
			Name:         "Lavender Bulk",
			Category:     "botanical",
			UnitPrice:    dec("2.70"),
			UnitsPerCase: 240,
			IsActive:     true,
		},
	}
	tiers := []models.Tier{
		{Threshold: 25, DiscountRate: dec("0.017"), Label: "25+"},
		{Threshold: 50, DiscountRate: dec("0.033"), Label: "50+"},
	}
	zones := []models.ShippingZone{
		{
			Key:         "west",
			Name:        "West Coast",
			Mode:        models.ZoneModePercentage,
			RatePercent: dec("5"),
			IsDefault:   true,
		},
		{
			Key:               "east",
			Name:              "East Coast",
			Mode:              models.ZoneModeBanded,
			PerMasterCaseRate: dec("85"),
			Bands: []models.ShippingBand{
				{MaxBoxes: 3, Rate: dec("30")},
				{MaxBoxes: 6, Rate: dec("50")},
				{MaxBoxes: 11, Rate: dec("80")},
			},
		},
	}
	regions := []models.ZoneRegion{
		{RegionCode: "CA", ZoneKey: "west"},
		{RegionCode: "NY", ZoneKey: "east"},
	}

	snap, err := catalog.NewSnapshot(products, tiers, zones, regions)
	require.NoError(t, err)
	return snap
}

func defaultOpts() models.QuoteOptions {
	return models.DefaultQuoteOptions()
}

func TestComputeQuoteLargeOrder(t *testing.T) {
	snap := testSnapshot(t)

	// 60 cases of lavender bulk: 60 * 240 * 2.70 = 38,880.00. The 50-case tier
	// applies (3.3%), shipping is the 5% west-coast percentage, and the card
	// fee is waived because the order clears the waiver threshold.
	lines := []models.LineItemRequest{
		{ProductKey: "lav-bulk", MasterCaseQuantity: 60},
	}

	b, err := ComputeQuote(snap, lines, "CA", defaultOpts())
	require.NoError(t, err)

	assert.Equal(t, "38880.00", b.SubtotalBeforeDiscount.StringFixed(2))
	require.NotNil(t, b.AppliedTier)
	assert.Equal(t, 50, b.AppliedTier.Threshold)
	assert.Equal(t, "37596.96", b.SubtotalAfterDiscount.StringFixed(2))
	assert.Equal(t, "1879.85", b.ShippingCost.StringFixed(2))
	assert.True(t, b.CreditCardFee.IsZero(), "fee should be waived above threshold")
	assert.Equal(t, "39476.81", b.GrandTotal.StringFixed(2))
	assert.Equal(t, "west", b.ZoneKey)
	assert.False(t, b.ZoneFallback)
	assert.Equal(t, 60, b.TotalMasterCases)
}

func TestComputeQuoteTierBoundaries(t *testing.T) {
	snap := testSnapshot(t)

	cases := []struct {
		cases     int
		threshold int
		rate      string
	}{
		{1, 0, "0"},
		{24, 0, "0"},
		{25, 25, "0.017"},
		{49, 25, "0.017"},
		{50, 50, "0.033"},
		{200, 50, "0.033"},
	}
	for _, tc := range cases {
		lines := []models.LineItemRequest{{ProductKey: "lav-bulk", MasterCaseQuantity: tc.cases}}
		b, err := ComputeQuote(snap, lines, "CA", defaultOpts())
		require.NoError(t, err)
		require.NotNil(t, b.AppliedTier)
		assert.Equal(t, tc.threshold, b.AppliedTier.Threshold, "cases=%d", tc.cases)
		assert.True(t, b.AppliedTier.DiscountRate.Equal(dec(tc.rate)), "cases=%d", tc.cases)
	}
}

func TestComputeQuoteDiscountAppliesToLines(t *testing.T) {
	snap := testSnapshot(t)

	lines := []models.LineItemRequest{
		{ProductKey: "cham-tea", MasterCaseQuantity: 30},
		{ProductKey: "lav-bulk", MasterCaseQuantity: 20},
	}
	b, err := ComputeQuote(snap, lines, "CA", defaultOpts())
	require.NoError(t, err)

	// 50 total cases across lines qualifies for the 3.3% tier.
	require.NotNil(t, b.AppliedTier)
	assert.Equal(t, 50, b.AppliedTier.Threshold)

	// Per-line totals carry the same discount; their sum is the order subtotal.
	sum := decimal.Zero
	for _, line := range b.Lines {
		sum = sum.Add(line.LineTotal)
		expected := line.BaseUnitPrice.Mul(dec("0.967"))
		assert.True(t, line.ResolvedUnitPrice.Equal(expected),
			"line %s resolved price", line.ProductKey)
	}
	assert.True(t, sum.Equal(b.SubtotalAfterDiscount))
}

func TestComputeQuoteFeeWaiverBoundary(t *testing.T) {
	snap := testSnapshot(t)

	// 9 cases of cham-tea: 9 * 144 * 4.50 = 5,832.00, no discount tier.
	lines := []models.LineItemRequest{{ProductKey: "cham-tea", MasterCaseQuantity: 9}}

	// Shipping override pins subtotal+shipping exactly at the waiver threshold.
	exact := dec("4168")
	opts := defaultOpts()
	opts.ShippingOverride = &exact
	b, err := ComputeQuote(snap, lines, "CA", opts)
	require.NoError(t, err)
	assert.Equal(t, "10000.00", b.SubtotalAfterDiscount.Add(b.ShippingCost).StringFixed(2))
	assert.True(t, b.CreditCardFee.IsZero(), "fee waived at exactly the threshold")

	// One cent below the threshold the fee applies in full.
	below := dec("4167.99")
	opts.ShippingOverride = &below
	b, err = ComputeQuote(snap, lines, "CA", opts)
	require.NoError(t, err)
	assert.Equal(t, "299.9997", b.CreditCardFee.StringFixed(4))
	assert.Equal(t, "10299.99", b.GrandTotal.StringFixed(2))
}

func TestComputeQuoteCardFeeDisabled(t *testing.T) {
	snap := testSnapshot(t)

	lines := []models.LineItemRequest{{ProductKey: "cham-tea", MasterCaseQuantity: 1}}
	opts := defaultOpts()
	opts.ApplyCardFee = false

	b, err := ComputeQuote(snap, lines, "CA", opts)
	require.NoError(t, err)
	assert.True(t, b.CreditCardFee.IsZero())
}

func TestComputeQuoteZeroQuantityLine(t *testing.T) {
	snap := testSnapshot(t)

	lines := []models.LineItemRequest{{ProductKey: "cham-tea"}}
	b, err := ComputeQuote(snap, lines, "CA", defaultOpts())
	require.NoError(t, err)

	assert.True(t, b.SubtotalBeforeDiscount.IsZero())
	assert.True(t, b.ShippingCost.IsZero(), "no shippable units, no shipping")
	assert.True(t, b.CreditCardFee.IsZero())
	assert.True(t, b.GrandTotal.IsZero())
}

func TestComputeQuoteCustomUnitPrice(t *testing.T) {
	snap := testSnapshot(t)

	override := dec("4.00")
	lines := []models.LineItemRequest{
		{ProductKey: "cham-tea", MasterCaseQuantity: 2, CustomUnitPrice: &override},
	}
	b, err := ComputeQuote(snap, lines, "CA", defaultOpts())
	require.NoError(t, err)

	// 2 * 144 * 4.00 = 1152.00
	assert.Equal(t, "1152.00", b.SubtotalBeforeDiscount.StringFixed(2))
	assert.True(t, b.Lines[0].BaseUnitPrice.Equal(override))
}

func TestComputeQuoteDisplayBoxes(t *testing.T) {
	snap := testSnapshot(t)

	// 4 display boxes of 12 units at 4.50 = 216.00; banded east zone, 4 boxes
	// falls in the 6-box band.
	lines := []models.LineItemRequest{{ProductKey: "cham-tea", DisplayBoxQuantity: 4}}
	b, err := ComputeQuote(snap, lines, "NY", defaultOpts())
	require.NoError(t, err)

	assert.Equal(t, "216.00", b.SubtotalBeforeDiscount.StringFixed(2))
	assert.Equal(t, 4, b.TotalDisplayBoxes)
	assert.Equal(t, "50.00", b.ShippingCost.StringFixed(2))
}

func TestComputeQuoteBandedFullCases(t *testing.T) {
	snap := testSnapshot(t)

	// With full cases present, banded zones always charge per-case, never bands.
	lines := []models.LineItemRequest{{ProductKey: "cham-tea", MasterCaseQuantity: 2}}
	b, err := ComputeQuote(snap, lines, "NY", defaultOpts())
	require.NoError(t, err)
	assert.Equal(t, "170.00", b.ShippingCost.StringFixed(2))
}

func TestComputeQuoteUpsellSuggestion(t *testing.T) {
	snap := testSnapshot(t)

	// 9 boxes hits the product's upsell trigger; a case holds 12 boxes.
	lines := []models.LineItemRequest{{ProductKey: "cham-tea", DisplayBoxQuantity: 9}}
	b, err := ComputeQuote(snap, lines, "NY", defaultOpts())
	require.NoError(t, err)
	assert.Contains(t, b.Lines[0].UpsellSuggestion, "3 more display box")

	// Below the trigger, no suggestion.
	lines[0].DisplayBoxQuantity = 5
	b, err = ComputeQuote(snap, lines, "NY", defaultOpts())
	require.NoError(t, err)
	assert.Empty(t, b.Lines[0].UpsellSuggestion)
}

func TestComputeQuoteZoneFallback(t *testing.T) {
	snap := testSnapshot(t)

	lines := []models.LineItemRequest{{ProductKey: "lav-bulk", MasterCaseQuantity: 1}}
	b, err := ComputeQuote(snap, lines, "ZZ", defaultOpts())
	require.NoError(t, err)

	assert.True(t, b.ZoneFallback)
	assert.Equal(t, "west", b.ZoneKey)
}

func TestComputeQuoteErrors(t *testing.T) {
	snap := testSnapshot(t)

	_, err := ComputeQuote(snap, nil, "CA", defaultOpts())
	assert.ErrorIs(t, err, utils.ErrNoLineItems)

	_, err = ComputeQuote(snap, []models.LineItemRequest{
		{ProductKey: "nope", MasterCaseQuantity: 1},
	}, "CA", defaultOpts())
	assert.ErrorIs(t, err, utils.ErrProductNotFound)

	_, err = ComputeQuote(snap, []models.LineItemRequest{
		{ProductKey: "lav-bulk", MasterCaseQuantity: -1},
	}, "CA", defaultOpts())
	assert.ErrorIs(t, err, utils.ErrInvalidQuantity)

	// lav-bulk has no display-box packaging level.
	_, err = ComputeQuote(snap, []models.LineItemRequest{
		{ProductKey: "lav-bulk", DisplayBoxQuantity: 2},
	}, "CA", defaultOpts())
	assert.ErrorIs(t, err, utils.ErrInvalidQuantity)

	zero := decimal.Zero
	_, err = ComputeQuote(snap, []models.LineItemRequest{
		{ProductKey: "lav-bulk", MasterCaseQuantity: 1, CustomUnitPrice: &zero},
	}, "CA", defaultOpts())
	assert.ErrorIs(t, err, utils.ErrInvalidQuantity)
}

func TestComputeQuoteTotalDecomposition(t *testing.T) {
	snap := testSnapshot(t)

	lines := []models.LineItemRequest{
		{ProductKey: "cham-tea", MasterCaseQuantity: 12, DisplayBoxQuantity: 3},
		{ProductKey: "lav-bulk", MasterCaseQuantity: 18},
	}
	b, err := ComputeQuote(snap, lines, "NY", defaultOpts())
	require.NoError(t, err)

	expected := b.SubtotalAfterDiscount.Add(b.ShippingCost).Add(b.CreditCardFee)
	assert.True(t, b.GrandTotal.Equal(expected))
}

func TestComputeQuoteDeterministic(t *testing.T) {
	snap := testSnapshot(t)

	lines := []models.LineItemRequest{
		{ProductKey: "cham-tea", MasterCaseQuantity: 7},
		{ProductKey: "lav-bulk", MasterCaseQuantity: 31},
	}
	first, err := ComputeQuote(snap, lines, "CA", defaultOpts())
	require.NoError(t, err)
	second, err := ComputeQuote(snap, lines, "CA", defaultOpts())
	require.NoError(t, err)

	assert.True(t, first.GrandTotal.Equal(second.GrandTotal))
	assert.Equal(t, first.ZoneKey, second.ZoneKey)
	assert.Equal(t, len(first.Lines), len(second.Lines))
}
