package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/shopspring/decimal"

	"github.com/verdantleaf/quote_api/internal/config"
	"github.com/verdantleaf/quote_api/internal/models"
)

// ExportService renders finalized quotes into the outward-facing formats:
// a plain-text email body, an HTML quote document, and a PDF print of that
// document. All monetary values are rounded to cents here, at the edge.
type ExportService struct {
	companyName  string
	companyEmail string
	chromePath   string
	tmpl         *template.Template
}

// NewExportService constructs an ExportService.
func NewExportService(cfg *config.ExportConfig) *ExportService {
	return &ExportService{
		companyName:  cfg.CompanyName,
		companyEmail: cfg.CompanyEmail,
		chromePath:   cfg.ChromePath,
		tmpl:         template.Must(template.New("quote").Parse(quoteTemplate)),
	}
}

// money formats a decimal as a dollar amount rounded to cents.
func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

// EmailBody renders the quote as plain text suitable for pasting into an
// email or logging as a CRM activity.
func (s *ExportService) EmailBody(q *models.Quote) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Quote %s — %s\n", q.QuoteID, s.companyName)
	fmt.Fprintf(&b, "Prepared for: %s", q.CustomerName)
	if q.CustomerEmail != "" {
		fmt.Fprintf(&b, " <%s>", q.CustomerEmail)
	}
	fmt.Fprintf(&b, "\nDate: %s\n\n", q.CreatedAt.Format("January 2, 2006"))

	for _, line := range q.Lines {
		qty := fmt.Sprintf("%d case(s)", line.MasterCaseQuantity)
		if line.DisplayBoxQuantity > 0 {
			qty += fmt.Sprintf(" + %d box(es)", line.DisplayBoxQuantity)
		}
		fmt.Fprintf(&b, "  %s — %s @ %s/unit = %s\n",
			line.ProductName, qty, money(line.ResolvedUnitPrice), money(line.LineTotal))
	}

	fmt.Fprintf(&b, "\nSubtotal: %s\n", money(q.SubtotalBeforeDiscount))
	if q.DiscountRate.IsPositive() {
		fmt.Fprintf(&b, "Volume discount (%s%%): -%s\n",
			q.DiscountRate.Mul(decimal.NewFromInt(100)).StringFixed(1),
			money(q.SubtotalBeforeDiscount.Sub(q.SubtotalAfterDiscount)))
		fmt.Fprintf(&b, "Subtotal after discount: %s\n", money(q.SubtotalAfterDiscount))
	}
	fmt.Fprintf(&b, "Shipping (%s): %s\n", q.ZoneKey, money(q.ShippingCost))
	if q.CreditCardFee.IsPositive() {
		fmt.Fprintf(&b, "Credit card fee: %s\n", money(q.CreditCardFee))
	}
	fmt.Fprintf(&b, "Total: %s\n\n", money(q.GrandTotal))
	fmt.Fprintf(&b, "Questions? Reply to this email or reach us at %s.\n", s.companyEmail)
	return b.String()
}

// ActivitySummary renders the short text logged to the CRM.
func (s *ExportService) ActivitySummary(q *models.Quote) string {
	return fmt.Sprintf("Quote %s for %s: %d line(s), total %s (region %s, zone %s)",
		q.QuoteID, q.CustomerName, len(q.Lines), money(q.GrandTotal), q.RegionCode, q.ZoneKey)
}

type quoteTemplateData struct {
	CompanyName   string
	CompanyEmail  string
	Quote         *models.Quote
	Date          string
	Lines         []quoteTemplateLine
	Subtotal      string
	DiscountPct   string
	Discount      string
	AfterDiscount string
	Shipping      string
	CardFee       string
	Total         string
	HasDiscount   bool
	HasCardFee    bool
}

type quoteTemplateLine struct {
	Name      string
	Quantity  string
	UnitPrice string
	Total     string
}

// RenderHTML renders the quote document.
func (s *ExportService) RenderHTML(q *models.Quote) (string, error) {
	data := quoteTemplateData{
		CompanyName:   s.companyName,
		CompanyEmail:  s.companyEmail,
		Quote:         q,
		Date:          q.CreatedAt.Format("January 2, 2006"),
		Subtotal:      money(q.SubtotalBeforeDiscount),
		DiscountPct:   q.DiscountRate.Mul(decimal.NewFromInt(100)).StringFixed(1),
		Discount:      money(q.SubtotalBeforeDiscount.Sub(q.SubtotalAfterDiscount)),
		AfterDiscount: money(q.SubtotalAfterDiscount),
		Shipping:      money(q.ShippingCost),
		CardFee:       money(q.CreditCardFee),
		Total:         money(q.GrandTotal),
		HasDiscount:   q.DiscountRate.IsPositive(),
		HasCardFee:    q.CreditCardFee.IsPositive(),
	}
	for _, line := range q.Lines {
		qty := fmt.Sprintf("%d case(s)", line.MasterCaseQuantity)
		if line.DisplayBoxQuantity > 0 {
			qty += fmt.Sprintf(" + %d box(es)", line.DisplayBoxQuantity)
		}
		data.Lines = append(data.Lines, quoteTemplateLine{
			Name:      line.ProductName,
			Quantity:  qty,
			UnitPrice: money(line.ResolvedUnitPrice),
			Total:     money(line.LineTotal),
		})
	}

	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render quote document: %w", err)
	}
	return buf.String(), nil
}

// GeneratePDF prints the quote document to PDF with headless Chrome.
func (s *ExportService) GeneratePDF(ctx context.Context, q *models.Quote) ([]byte, error) {
	html, err := s.RenderHTML(q)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox, // Required for running in Docker/containers
	)
	if s.chromePath != "" {
		opts = append(opts, chromedp.ExecPath(s.chromePath))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	chromedpCtx, chromedpCancel := chromedp.NewContext(allocCtx)
	defer chromedpCancel()

	dataURL := "data:text/html;base64," + base64.StdEncoding.EncodeToString([]byte(html))

	var pdfBuf []byte
	err = chromedp.Run(chromedpCtx,
		chromedp.Navigate(dataURL),
		chromedp.WaitReady("body"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			// US Letter with standard margins; page breaks come from CSS.
			pdfBuf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(8.5).
				WithPaperHeight(11).
				WithMarginTop(0.5).
				WithMarginBottom(0.5).
				WithMarginLeft(0.5).
				WithMarginRight(0.5).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return pdfBuf, nil
}

const quoteTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
body { font-family: Helvetica, Arial, sans-serif; color: #1f2d1f; margin: 0; }
h1 { font-size: 20px; margin-bottom: 0; }
.meta { color: #5a6b5a; font-size: 12px; margin-bottom: 24px; }
table { width: 100%; border-collapse: collapse; font-size: 13px; }
th { text-align: left; border-bottom: 2px solid #2f5d3a; padding: 6px 4px; }
td { border-bottom: 1px solid #d8e2d8; padding: 6px 4px; }
td.num, th.num { text-align: right; }
.totals { margin-top: 16px; width: 320px; margin-left: auto; }
.totals td { border: none; padding: 3px 4px; }
.totals tr.grand td { border-top: 2px solid #2f5d3a; font-weight: bold; }
.footer { margin-top: 32px; font-size: 11px; color: #5a6b5a; }
</style>
</head>
<body>
<h1>{{.CompanyName}}</h1>
<div class="meta">
Quote {{.Quote.QuoteID}} &mdash; {{.Date}}<br>
Prepared for {{.Quote.CustomerName}}
</div>
<table>
<tr><th>Product</th><th>Quantity</th><th class="num">Unit price</th><th class="num">Total</th></tr>
{{range .Lines}}
<tr><td>{{.Name}}</td><td>{{.Quantity}}</td><td class="num">{{.UnitPrice}}</td><td class="num">{{.Total}}</td></tr>
{{end}}
</table>
<table class="totals">
<tr><td>Subtotal</td><td class="num">{{.Subtotal}}</td></tr>
{{if .HasDiscount}}
<tr><td>Volume discount ({{.DiscountPct}}%)</td><td class="num">-{{.Discount}}</td></tr>
<tr><td>Subtotal after discount</td><td class="num">{{.AfterDiscount}}</td></tr>
{{end}}
<tr><td>Shipping ({{.Quote.ZoneKey}})</td><td class="num">{{.Shipping}}</td></tr>
{{if .HasCardFee}}
<tr><td>Credit card fee</td><td class="num">{{.CardFee}}</td></tr>
{{end}}
<tr class="grand"><td>Total</td><td class="num">{{.Total}}</td></tr>
</table>
<div class="footer">{{.CompanyEmail}}</div>
</body>
</html>`
