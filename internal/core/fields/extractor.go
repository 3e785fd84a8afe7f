// Package fields parses vendor, date, invoice number, totals, address,
// currency and line items out of normalized invoice text. It is independent
// of total arbitration; its total is the "parser total" arbitration checks.
package fields

import (
	"fmt"

	"github.com/joseph-ayodele/invoice-extractor/internal/core/textnorm"
	"github.com/joseph-ayodele/invoice-extractor/internal/entity"
	"github.com/joseph-ayodele/invoice-extractor/internal/money"
)

// crossCheckPercent is how far the line item sum may drift from the total
// before the result is flagged ambiguous.
const crossCheckPercent = 10

// Extract runs every field chain over t. It never fails; doubt is reported
// through Ambiguous and Notes.
func Extract(t textnorm.Text) entity.ExtractionResult {
	lines := t.Lines()
	res := entity.ExtractionResult{
		LineItems: []entity.LineItem{},
		Currency:  extractCurrency(t.String()),
	}

	var src string
	if res.Vendor, src = firstMatch(vendorMatchers, lines); src != "" {
		res.Notes = append(res.Notes, "vendor from "+src)
	}
	if res.Date, src = firstMatch(dateMatchers, lines); src != "" {
		res.Notes = append(res.Notes, "date from "+src)
	}
	if res.InvoiceNumber, src = extractInvoiceNumber(lines); src != "" {
		res.Notes = append(res.Notes, "invoice number from "+src)
	}
	res.Totals = extractTotals(lines)
	res.Address = extractAddress(lines)

	if items, strategy, ok := extractLineItems(lines); ok {
		res.LineItems = items
		res.Notes = append(res.Notes, fmt.Sprintf("line items from %s (%d)", strategy.name, len(items)))
		if strategy.ambiguous {
			res.Ambiguous = true
		}
	}

	if len(res.LineItems) > 0 && res.Totals.Total != nil {
		sum, total := res.LineItemSum(), *res.Totals.Total
		if !withinPercent(sum, total, crossCheckPercent) {
			res.Ambiguous = true
			res.Notes = append(res.Notes, fmt.Sprintf("line items sum %s differs from total %s by more than %d%%",
				money.FormatUSD(sum), money.FormatUSD(total), crossCheckPercent))
		}
	}
	return res
}

func withinPercent(value, reference int64, pct int64) bool {
	return money.Abs(value-reference)*100 <= money.Abs(reference)*pct
}
