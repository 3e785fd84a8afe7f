package arbiter

import "github.com/joseph-ayodele/invoice-extractor/internal/core/textnorm"

// Summary holds the labeled subtotal and tax used for arithmetic checks.
// Line indices are -1 when nothing was found.
type Summary struct {
	SubtotalCents *int64 `json:"subtotalCents,omitempty"`
	TaxCents      *int64 `json:"taxCents,omitempty"`
	SubtotalLine  int    `json:"subtotalLine"`
	TaxLine       int    `json:"taxLine"`
}

// DetectSummary finds the subtotal and tax lines. Invoices often restate a
// running subtotal; the last qualifying line wins for each field.
func DetectSummary(t textnorm.Text) Summary {
	s := Summary{SubtotalLine: -1, TaxLine: -1}
	for i := 0; i < t.LineCount(); i++ {
		line := t.Line(i)
		if ReSubtotal.MatchString(line) && !ReGroupMarker.MatchString(line) {
			if v, ok := LastAmountOnLine(line); ok {
				s.SubtotalCents = &v
				s.SubtotalLine = i
			}
			continue
		}
		if ReTaxLabel.MatchString(line) && !ReTotalWord.MatchString(line) {
			if v, ok := LastAmountOnLine(line); ok {
				s.TaxCents = &v
				s.TaxLine = i
			}
		}
	}
	return s
}
