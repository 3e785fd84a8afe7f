package fields

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/entity"
	"github.com/joseph-ayodele/invoice-extractor/internal/money"
)

// lineItemStrategy is one way of reading an item list. Strategies are tried
// in order and never combined.
type lineItemStrategy struct {
	name      string
	extract   func(lines []string) []entity.LineItem
	ambiguous bool
}

var lineItemStrategies = []lineItemStrategy{
	{"table_row", extractTableRows, false},
	{"price_anchored", extractPriceAnchored, true},
	{"qty_at_price", extractQtyAtPrice, false},
}

const amountPattern = `[$€£]?\s?((?:\d{1,3}(?:,\d{3})+|\d+)\.\d{2})`

var (
	reTableRow   = regexp.MustCompile(`^\s*(.+?)\s+(\d+(?:\.\d+)?)\s+` + amountPattern + `\s+` + amountPattern + `\s*$`)
	rePriceAtEnd = regexp.MustCompile(`^\s*(.*?[A-Za-z].*?)[\s.:]+` + amountPattern + `\s*$`)
	reQtyAtPrice = regexp.MustCompile(`(?i)^\s*(\d+(?:\.\d+)?)\s*[x×]\s+(.+?)\s+@\s*` + amountPattern + `(?:\s*(?:ea|each))?(?:\s+` + amountPattern + `)?\s*$`)
	reSKU        = regexp.MustCompile(`^[A-Z0-9][A-Z0-9\-]{3,}$`)
	reNotAnItem  = regexp.MustCompile(`(?i)\b(?:date|invoice|page|phone|tel|fax|account|terms|due|paid|payment|change|cash|visa|mastercard|amex|card|balance|deposit|po\s*#)\b`)
)

// rowTolerance allows for rounding in printed extensions.
func rowTolerance(total int64) int64 {
	if t := total / 100; t > 2 {
		return t
	}
	return 2
}

func extractTableRows(lines []string) []entity.LineItem {
	var items []entity.LineItem
	for _, line := range lines {
		if isSummaryLine(line) {
			continue
		}
		m := reTableRow.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		qty, err := strconv.ParseFloat(m[2], 64)
		if err != nil || qty <= 0 {
			continue
		}
		unit, err1 := money.ParseCents(m[3])
		total, err2 := money.ParseCents(m[4])
		if err1 != nil || err2 != nil || total == 0 {
			continue
		}
		if !money.Within(money.MulQuantity(unit, qty), total, rowTolerance(total)) {
			continue
		}
		desc, sku := splitSKU(cleanValue(m[1]))
		if letters, _ := letterCount(desc); letters < 2 {
			continue
		}
		items = append(items, newItem(desc, qty, money.Ptr(unit), total, sku))
	}
	return items
}

// splitSKU peels a leading product code off a description.
func splitSKU(desc string) (string, string) {
	fields := strings.Fields(desc)
	if len(fields) < 2 {
		return desc, ""
	}
	first := fields[0]
	if reSKU.MatchString(first) && strings.ContainsAny(first, "0123456789") {
		return strings.Join(fields[1:], " "), first
	}
	return desc, ""
}

func extractPriceAnchored(lines []string) []entity.LineItem {
	var items []entity.LineItem
	for _, line := range lines {
		// "2 x Widget @ 5.00" ends in a unit price, not an extension.
		if isSummaryLine(line) || reNotAnItem.MatchString(line) || reQtyAtPrice.MatchString(line) {
			continue
		}
		m := rePriceAtEnd.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		desc := cleanValue(m[1])
		if letters, _ := letterCount(desc); letters < 3 {
			continue
		}
		total, err := money.ParseCents(m[2])
		if err != nil || total <= 0 {
			continue
		}
		items = append(items, newItem(desc, 1, money.Ptr(total), total, ""))
	}
	return items
}

func extractQtyAtPrice(lines []string) []entity.LineItem {
	var items []entity.LineItem
	for _, line := range lines {
		m := reQtyAtPrice.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		qty, err := strconv.ParseFloat(m[1], 64)
		if err != nil || qty <= 0 {
			continue
		}
		unit, err := money.ParseCents(m[3])
		if err != nil {
			continue
		}
		total := money.MulQuantity(unit, qty)
		if m[4] != "" {
			if printed, err := money.ParseCents(m[4]); err == nil {
				total = printed
			}
		}
		items = append(items, newItem(cleanValue(m[2]), qty, money.Ptr(unit), total, ""))
	}
	return items
}

func newItem(desc string, qty float64, unit *int64, total int64, sku string) entity.LineItem {
	return entity.LineItem{
		Description:    desc,
		Quantity:       qty,
		UnitPriceCents: unit,
		TotalCents:     total,
		SKU:            sku,
		Category:       string(constants.CategorizeItem(desc)),
	}
}

// extractLineItems returns the items from the first strategy that finds any.
func extractLineItems(lines []string) ([]entity.LineItem, lineItemStrategy, bool) {
	for _, s := range lineItemStrategies {
		if items := s.extract(lines); len(items) > 0 {
			return items, s, true
		}
	}
	return nil, lineItemStrategy{}, false
}
