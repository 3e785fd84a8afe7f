package fields

import (
	"regexp"
	"strconv"

	"github.com/joseph-ayodele/invoice-extractor/internal/core/arbiter"
	"github.com/joseph-ayodele/invoice-extractor/internal/entity"
)

// amountField describes how to find one labeled total. A line qualifies when
// include matches and no exclude does; the last qualifying line wins.
type amountField struct {
	name    string
	include *regexp.Regexp
	exclude []*regexp.Regexp
}

var (
	reTotalLabel = regexp.MustCompile(`(?i)\b(?:total|amount\s+due|balance\s+due)\b`)
	reLineTotal  = regexp.MustCompile(`(?i)\b(?:line|item)\s+total\b`)
	reTaxRate    = regexp.MustCompile(`(\d{1,2}(?:\.\d{1,3})?)\s*%`)
)

var totalFields = []amountField{
	{"subtotal", arbiter.ReSubtotal, []*regexp.Regexp{arbiter.ReGroupMarker}},
	{"tax", arbiter.ReTaxLabel, []*regexp.Regexp{arbiter.ReTotalWord}},
	{"shipping", arbiter.ReShipping, nil},
	{"discount", arbiter.ReDiscount, nil},
	{"total", reTotalLabel, []*regexp.Regexp{
		arbiter.ReSubtotal, arbiter.ReGroupMarker, arbiter.ReTaxTotal,
		arbiter.ReShipping, arbiter.ReDiscount, reLineTotal,
	}},
}

func (f amountField) qualifies(line string) bool {
	if !f.include.MatchString(line) {
		return false
	}
	for _, ex := range f.exclude {
		if ex.MatchString(line) {
			return false
		}
	}
	return true
}

// lastAmount returns the amount and line index of the last qualifying line.
func (f amountField) lastAmount(lines []string) (*int64, int) {
	var (
		found *int64
		at    = -1
	)
	for i, line := range lines {
		if !f.qualifies(line) {
			continue
		}
		if v, ok := arbiter.LastAmountOnLine(line); ok {
			if v < 0 {
				v = -v
			}
			found, at = &v, i
		}
	}
	return found, at
}

func extractTotals(lines []string) entity.Totals {
	var t entity.Totals
	for _, f := range totalFields {
		v, at := f.lastAmount(lines)
		switch f.name {
		case "subtotal":
			t.Subtotal = v
		case "tax":
			t.Tax = v
			if at >= 0 {
				if m := reTaxRate.FindStringSubmatch(lines[at]); m != nil {
					if rate, err := strconv.ParseFloat(m[1], 64); err == nil {
						t.TaxRate = &rate
					}
				}
			}
		case "shipping":
			t.Shipping = v
		case "discount":
			t.Discount = v
		case "total":
			t.Total = v
		}
	}
	return t
}

// isSummaryLine reports whether a line belongs to the totals block rather
// than the item list.
func isSummaryLine(line string) bool {
	return reTotalLabel.MatchString(line) ||
		arbiter.ReSubtotal.MatchString(line) ||
		arbiter.ReTaxLabel.MatchString(line) ||
		arbiter.ReShipping.MatchString(line) ||
		arbiter.ReDiscount.MatchString(line)
}
