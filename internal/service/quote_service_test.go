package service

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdantleaf/quote_api/internal/models"
)

func TestBuildQuote(t *testing.T) {
	session := &models.Session{
		ID:            "sess-1",
		ClientID:      3,
		CustomerName:  "River & Stone Apothecary",
		CustomerEmail: "orders@riverstone.example",
	}
	breakdown := &models.QuoteBreakdown{
		Lines: []models.LineBreakdown{
			{
				ProductKey:         "lav-bulk",
				ProductName:        "Lavender Bulk",
				MasterCaseQuantity: 60,
				TotalUnits:         14400,
				ResolvedUnitPrice:  dec("2.6109"),
				LineTotal:          dec("37596.96"),
			},
		},
		SubtotalBeforeDiscount: dec("38880"),
		AppliedTier:            &models.Tier{Threshold: 50, DiscountRate: dec("0.033")},
		SubtotalAfterDiscount:  dec("37596.96"),
		ShippingCost:           dec("1879.848"),
		CreditCardFee:          dec("0"),
		GrandTotal:             dec("39476.808"),
		RegionCode:             "CA",
		ZoneKey:                "west",
	}

	quote := buildQuote(session, breakdown)

	assert.Equal(t, 3, quote.ClientID)
	assert.Equal(t, "River & Stone Apothecary", quote.CustomerName)
	assert.Equal(t, "CA", quote.RegionCode)
	assert.Equal(t, "west", quote.ZoneKey)
	assert.True(t, quote.DiscountRate.Equal(dec("0.033")))
	assert.True(t, quote.GrandTotal.Equal(dec("39476.808")))
	assert.Equal(t, models.QuoteStatusFinal, quote.Status)
	require.Len(t, quote.Lines, 1)
	assert.Equal(t, "lav-bulk", quote.Lines[0].ProductKey)
	assert.Equal(t, 14400, quote.Lines[0].TotalUnits)
}

func TestBuildQuoteNoTier(t *testing.T) {
	quote := buildQuote(&models.Session{ClientID: 1}, &models.QuoteBreakdown{
		SubtotalBeforeDiscount: dec("100"),
		SubtotalAfterDiscount:  dec("100"),
		GrandTotal:             dec("103"),
	})
	assert.True(t, quote.DiscountRate.IsZero())
}

func TestNewQuoteID(t *testing.T) {
	pattern := regexp.MustCompile(`^Q-\d{8}-[0-9A-F]{6}$`)
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		id := newQuoteID()
		assert.Regexp(t, pattern, id)
		assert.False(t, seen[id], "quote IDs should not collide")
		seen[id] = true
	}
}
