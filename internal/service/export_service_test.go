package service

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdantleaf/quote_api/internal/config"
	"github.com/verdantleaf/quote_api/internal/models"
)

func testQuote() *models.Quote {
	return &models.Quote{
		QuoteID:                "Q-20260815-4F2A1C",
		ClientID:               1,
		CustomerName:           "River & Stone Apothecary",
		CustomerEmail:          "orders@riverstone.example",
		RegionCode:             "CA",
		ZoneKey:                "west",
		SubtotalBeforeDiscount: dec("38880"),
		DiscountRate:           dec("0.033"),
		SubtotalAfterDiscount:  dec("37596.96"),
		ShippingCost:           dec("1879.848"),
		CreditCardFee:          dec("0"),
		GrandTotal:             dec("39476.808"),
		Status:                 models.QuoteStatusFinal,
		CreatedAt:              time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC),
		Lines: []models.QuoteLine{
			{
				ProductKey:         "lav-bulk",
				ProductName:        "Lavender Bulk",
				MasterCaseQuantity: 60,
				TotalUnits:         14400,
				ResolvedUnitPrice:  dec("2.6109"),
				LineTotal:          dec("37596.96"),
			},
		},
	}
}

func testExportService() *ExportService {
	return NewExportService(&config.ExportConfig{
		CompanyName:  "Verdant Leaf Botanicals",
		CompanyEmail: "sales@verdantleaf.example",
	})
}

func TestEmailBody(t *testing.T) {
	body := testExportService().EmailBody(testQuote())

	assert.Contains(t, body, "Q-20260815-4F2A1C")
	assert.Contains(t, body, "River & Stone Apothecary")
	assert.Contains(t, body, "Lavender Bulk")
	assert.Contains(t, body, "Subtotal: $38880.00")
	assert.Contains(t, body, "Volume discount (3.3%)")
	assert.Contains(t, body, "Shipping (west): $1879.85")
	assert.Contains(t, body, "Total: $39476.81")
	// Fee was waived, so it never appears.
	assert.NotContains(t, body, "Credit card fee")
}

func TestEmailBodyWithCardFee(t *testing.T) {
	q := testQuote()
	q.CreditCardFee = dec("299.9997")

	body := testExportService().EmailBody(q)
	assert.Contains(t, body, "Credit card fee: $300.00")
}

func TestRenderHTML(t *testing.T) {
	html, err := testExportService().RenderHTML(testQuote())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(html, "<!DOCTYPE html>"))
	assert.Contains(t, html, "Q-20260815-4F2A1C")
	assert.Contains(t, html, "$39476.81")
	// html/template escapes customer-supplied text.
	assert.Contains(t, html, "River &amp; Stone Apothecary")
}

func TestActivitySummary(t *testing.T) {
	summary := testExportService().ActivitySummary(testQuote())
	assert.Contains(t, summary, "Q-20260815-4F2A1C")
	assert.Contains(t, summary, "$39476.81")
	assert.Contains(t, summary, "1 line(s)")
}
