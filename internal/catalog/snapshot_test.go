package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdantleaf/quote_api/internal/models"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func validProduct() models.Product {
	return models.Product{
		Key:                "cham-tea",
		Name:               "Chamomile Tea Display",
		UnitPrice:          dec("4.50"),
		UnitsPerCase:       144,
		UnitsPerDisplayBox: 12,
		IsActive:           true,
	}
}

func validZones() []models.ShippingZone {
	return []models.ShippingZone{
		{Key: "west", Mode: models.ZoneModePercentage, RatePercent: dec("5"), IsDefault: true},
		{Key: "east", Mode: models.ZoneModeBanded, PerMasterCaseRate: dec("85"),
			Bands: []models.ShippingBand{{MaxBoxes: 6, Rate: dec("50")}}},
	}
}

func TestNewSnapshotInjectsFloorTier(t *testing.T) {
	snap, err := NewSnapshot(
		[]models.Product{validProduct()},
		[]models.Tier{{Threshold: 25, DiscountRate: dec("0.017")}},
		validZones(), nil,
	)
	require.NoError(t, err)

	tiers := snap.Tiers()
	require.Len(t, tiers, 2)
	assert.Equal(t, 0, tiers[0].Threshold)
	assert.True(t, tiers[0].DiscountRate.IsZero())
	assert.Equal(t, 25, tiers[1].Threshold)
}

func TestNewSnapshotKeepsExistingFloorTier(t *testing.T) {
	snap, err := NewSnapshot(
		[]models.Product{validProduct()},
		[]models.Tier{
			{Threshold: 0, DiscountRate: dec("0.005"), Label: "house"},
			{Threshold: 25, DiscountRate: dec("0.017")},
		},
		validZones(), nil,
	)
	require.NoError(t, err)

	tiers := snap.Tiers()
	require.Len(t, tiers, 2)
	assert.Equal(t, "house", tiers[0].Label)
}

func TestNewSnapshotValidation(t *testing.T) {
	zones := validZones()

	t.Run("rejects non-positive price", func(t *testing.T) {
		p := validProduct()
		p.UnitPrice = decimal.Zero
		_, err := NewSnapshot([]models.Product{p}, nil, zones, nil)
		assert.Error(t, err)
	})

	t.Run("rejects box larger than case", func(t *testing.T) {
		p := validProduct()
		p.UnitsPerDisplayBox = 500
		_, err := NewSnapshot([]models.Product{p}, nil, zones, nil)
		assert.Error(t, err)
	})

	t.Run("rejects duplicate product keys", func(t *testing.T) {
		_, err := NewSnapshot([]models.Product{validProduct(), validProduct()}, nil, zones, nil)
		assert.Error(t, err)
	})

	t.Run("rejects discount rate of one or more", func(t *testing.T) {
		_, err := NewSnapshot([]models.Product{validProduct()},
			[]models.Tier{{Threshold: 10, DiscountRate: dec("1")}}, zones, nil)
		assert.Error(t, err)
	})

	t.Run("rejects empty zone table", func(t *testing.T) {
		_, err := NewSnapshot([]models.Product{validProduct()}, nil, nil, nil)
		assert.Error(t, err)
	})

	t.Run("rejects unknown zone mode", func(t *testing.T) {
		_, err := NewSnapshot([]models.Product{validProduct()}, nil,
			[]models.ShippingZone{{Key: "x", Mode: "flat"}}, nil)
		assert.Error(t, err)
	})

	t.Run("rejects overlapping bands", func(t *testing.T) {
		z := []models.ShippingZone{{
			Key: "east", Mode: models.ZoneModeBanded, PerMasterCaseRate: dec("85"),
			Bands: []models.ShippingBand{
				{MaxBoxes: 6, Rate: dec("50")},
				{MaxBoxes: 6, Rate: dec("60")},
			},
		}}
		_, err := NewSnapshot([]models.Product{validProduct()}, nil, z, nil)
		assert.Error(t, err)
	})

	t.Run("rejects region mapped to unknown zone", func(t *testing.T) {
		_, err := NewSnapshot([]models.Product{validProduct()}, nil, zones,
			[]models.ZoneRegion{{RegionCode: "CA", ZoneKey: "nowhere"}})
		assert.Error(t, err)
	})

	t.Run("rejects multiple default zones", func(t *testing.T) {
		z := validZones()
		z[1].IsDefault = true
		_, err := NewSnapshot([]models.Product{validProduct()}, nil, z, nil)
		assert.Error(t, err)
	})
}

func TestNewSnapshotPicksHighestCostDefault(t *testing.T) {
	// No zone flagged default: the costliest zone becomes the fail-safe.
	zones := []models.ShippingZone{
		{Key: "cheap", Mode: models.ZoneModeBanded, PerMasterCaseRate: dec("40")},
		{Key: "dear", Mode: models.ZoneModeBanded, PerMasterCaseRate: dec("120")},
		{Key: "pct", Mode: models.ZoneModePercentage, RatePercent: dec("5")},
	}
	snap, err := NewSnapshot([]models.Product{validProduct()}, nil, zones, nil)
	require.NoError(t, err)
	assert.Equal(t, "dear", snap.DefaultZone().Key)
}

func TestResolveZone(t *testing.T) {
	snap, err := NewSnapshot(
		[]models.Product{validProduct()}, nil, validZones(),
		[]models.ZoneRegion{{RegionCode: "CA", ZoneKey: "west"}, {RegionCode: "NY", ZoneKey: "east"}},
	)
	require.NoError(t, err)

	zone, ok := snap.ResolveZone("NY")
	assert.True(t, ok)
	assert.Equal(t, "east", zone.Key)

	// Region codes are normalized before lookup.
	zone, ok = snap.ResolveZone("  ca ")
	assert.True(t, ok)
	assert.Equal(t, "west", zone.Key)

	// Unmapped regions fall back to the default zone with ok=false.
	zone, ok = snap.ResolveZone("TX")
	assert.False(t, ok)
	assert.Equal(t, "west", zone.Key)
}

func TestSnapshotProductLookup(t *testing.T) {
	snap, err := NewSnapshot([]models.Product{validProduct()}, nil, validZones(), nil)
	require.NoError(t, err)

	p, ok := snap.Product("cham-tea")
	assert.True(t, ok)
	assert.Equal(t, "Chamomile Tea Display", p.Name)

	_, ok = snap.Product("missing")
	assert.False(t, ok)
}

func TestSnapshotDocument(t *testing.T) {
	snap, err := NewSnapshot(
		[]models.Product{validProduct()},
		[]models.Tier{{Threshold: 25, DiscountRate: dec("0.017")}},
		validZones(),
		[]models.ZoneRegion{{RegionCode: "CA", ZoneKey: "west"}},
	)
	require.NoError(t, err)

	doc := snap.Document()
	assert.Len(t, doc.Products, 1)
	assert.Len(t, doc.Tiers, 2) // includes injected floor tier
	assert.Len(t, doc.Zones, 2)
	assert.Equal(t, "west", doc.Regions["CA"])
	assert.False(t, doc.GeneratedAt.IsZero())
}
