package pricing

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/verdantleaf/quote_api/internal/catalog"
	"github.com/verdantleaf/quote_api/internal/models"
	"github.com/verdantleaf/quote_api/internal/utils"
)

// ComputeQuote resolves a set of line item requests against a catalog snapshot
// into a fully priced breakdown: per-line totals, the applicable volume tier,
// shipping for the destination region, and the credit-card fee.
//
// The computation is pure: same snapshot, lines, region, and options always
// produce the same breakdown. All currency math stays in decimal precision;
// rounding to cents happens only at display and export. Hard failures return
// no partial result — a silently dropped line would corrupt the customer-facing
// total.
func ComputeQuote(snap *catalog.Snapshot, lines []models.LineItemRequest, regionCode string, opts models.QuoteOptions) (*models.QuoteBreakdown, error) {
	if len(lines) == 0 {
		return nil, utils.ErrNoLineItems
	}

	breakdown := &models.QuoteBreakdown{
		Lines:      make([]models.LineBreakdown, 0, len(lines)),
		RegionCode: regionCode,
	}

	type resolvedLine struct {
		product   models.Product
		request   models.LineItemRequest
		unitPrice decimal.Decimal
		units     int
		total     decimal.Decimal
	}

	resolved := make([]resolvedLine, 0, len(lines))
	subtotal := decimal.Zero
	totalCases := 0
	totalBoxes := 0

	for _, req := range lines {
		if req.MasterCaseQuantity < 0 || req.DisplayBoxQuantity < 0 {
			return nil, fmt.Errorf("%w: negative quantity for %q", utils.ErrInvalidQuantity, req.ProductKey)
		}
		if req.CustomUnitPrice != nil && !req.CustomUnitPrice.IsPositive() {
			return nil, fmt.Errorf("%w: non-positive price override for %q", utils.ErrInvalidQuantity, req.ProductKey)
		}

		product, ok := snap.Product(req.ProductKey)
		if !ok {
			return nil, fmt.Errorf("%w: %s", utils.ErrProductNotFound, req.ProductKey)
		}
		if req.DisplayBoxQuantity > 0 && product.UnitsPerDisplayBox <= 0 {
			return nil, fmt.Errorf("%w: %q has no display box packaging", utils.ErrInvalidQuantity, req.ProductKey)
		}

		unitPrice := product.UnitPrice
		if req.CustomUnitPrice != nil {
			unitPrice = *req.CustomUnitPrice
		}

		units := req.MasterCaseQuantity*product.UnitsPerCase + req.DisplayBoxQuantity*product.UnitsPerDisplayBox
		lineTotal := unitPrice.Mul(decimal.NewFromInt(int64(units)))

		subtotal = subtotal.Add(lineTotal)
		totalCases += req.MasterCaseQuantity
		totalBoxes += req.MasterCaseQuantity*product.BoxesPerCase() + req.DisplayBoxQuantity

		resolved = append(resolved, resolvedLine{
			product:   product,
			request:   req,
			unitPrice: unitPrice,
			units:     units,
			total:     lineTotal,
		})
	}

	breakdown.SubtotalBeforeDiscount = subtotal
	breakdown.TotalMasterCases = totalCases
	breakdown.TotalDisplayBoxes = totalBoxes

	// Highest threshold not exceeding the order's total master cases. The
	// snapshot guarantees a threshold-0 floor tier, so a tier always applies.
	tier := selectTier(snap.Tiers(), totalCases)
	breakdown.AppliedTier = &tier

	factor := decimal.NewFromInt(1).Sub(tier.DiscountRate)
	breakdown.SubtotalAfterDiscount = subtotal.Mul(factor)

	for _, rl := range resolved {
		lb := models.LineBreakdown{
			ProductKey:         rl.product.Key,
			ProductName:        rl.product.Name,
			MasterCaseQuantity: rl.request.MasterCaseQuantity,
			DisplayBoxQuantity: rl.request.DisplayBoxQuantity,
			TotalUnits:         rl.units,
			BaseUnitPrice:      rl.unitPrice,
			ResolvedUnitPrice:  rl.unitPrice.Mul(factor),
			LineTotal:          rl.total.Mul(factor),
		}
		if suggestion := upsellSuggestion(rl.product, rl.request.DisplayBoxQuantity); suggestion != "" {
			lb.UpsellSuggestion = suggestion
		}
		breakdown.Lines = append(breakdown.Lines, lb)
	}

	zone, known := snap.ResolveZone(regionCode)
	breakdown.ZoneKey = zone.Key
	if !known {
		breakdown.ZoneFallback = true
		log.Warn().
			Str("region", regionCode).
			Str("fallback_zone", zone.Key).
			Msg("Region not mapped to any shipping zone, using default zone")
	}

	breakdown.ShippingCost = ShippingCost(zone, breakdown.SubtotalAfterDiscount, totalBoxes, totalCases, opts.ShippingOverride)
	breakdown.CreditCardFee = cardFee(breakdown.SubtotalAfterDiscount.Add(breakdown.ShippingCost), opts)
	breakdown.GrandTotal = breakdown.SubtotalAfterDiscount.Add(breakdown.ShippingCost).Add(breakdown.CreditCardFee)

	return breakdown, nil
}

// selectTier picks the applicable tier for a master-case count. Tiers are
// ascending, so the last qualifying tier wins.
func selectTier(tiers []models.Tier, totalCases int) models.Tier {
	applied := tiers[0]
	for _, t := range tiers[1:] {
		if t.Threshold <= totalCases {
			applied = t
		}
	}
	return applied
}

// cardFee computes the payment surcharge. Orders at or above the waiver
// threshold are fully exempt; there is no partial fee.
func cardFee(amount decimal.Decimal, opts models.QuoteOptions) decimal.Decimal {
	if !opts.ApplyCardFee {
		return decimal.Zero
	}
	if !amount.LessThan(opts.FeeWaiverThreshold) {
		return decimal.Zero
	}
	return amount.Mul(opts.CardFeeRate)
}

// upsellSuggestion proposes rounding a sub-case box count up to a full master
// case once the product's configured trigger is reached.
func upsellSuggestion(p models.Product, boxes int) string {
	if p.UpsellBoxThreshold <= 0 || boxes < p.UpsellBoxThreshold {
		return ""
	}
	perCase := p.BoxesPerCase()
	if perCase <= 0 || boxes >= perCase {
		return ""
	}
	remaining := perCase - boxes
	return fmt.Sprintf("add %d more display box(es) of %s to complete a master case", remaining, p.Name)
}
