package arbiter

import (
	"strings"

	"github.com/joseph-ayodele/invoice-extractor/internal/core/textnorm"
)

// DocumentContext is everything the scorer knows about the document beyond
// the candidate itself.
type DocumentContext struct {
	Lines            []string `json:"-"`
	TotalLines       int      `json:"totalLines"`
	PageBreaks       []int    `json:"pageBreaks,omitempty"`
	PageCount        int      `json:"pageCount"`
	MaxValueCents    int64    `json:"maxValueCents"`
	SubtotalCents    *int64   `json:"subtotalCents,omitempty"`
	TaxCents         *int64   `json:"taxCents,omitempty"`
	VendorKey        string   `json:"vendorKey,omitempty"`
	LineItemSumCents int64    `json:"lineItemSumCents"`
}

// BuildContext aggregates document facts for scoring.
func BuildContext(t textnorm.Text, cands []Candidate, summary Summary, vendorKey string, lineItemSum int64) DocumentContext {
	breaks := DetectPageBreaks(t)
	var maxValue int64
	for _, c := range cands {
		if c.ValueCents > maxValue {
			maxValue = c.ValueCents
		}
	}
	return DocumentContext{
		Lines:            t.Lines(),
		TotalLines:       t.LineCount(),
		PageBreaks:       breaks,
		PageCount:        len(breaks) + 1,
		MaxValueCents:    maxValue,
		SubtotalCents:    summary.SubtotalCents,
		TaxCents:         summary.TaxCents,
		VendorKey:        NormalizeVendorKey(vendorKey),
		LineItemSumCents: lineItemSum,
	}
}

// NormalizeVendorKey lowercases and snake-cases a vendor name or key.
func NormalizeVendorKey(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	var b strings.Builder
	lastUnderscore := false
	for _, r := range v {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		case !lastUnderscore && b.Len() > 0:
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

func (dc DocumentContext) line(i int) string {
	if i < 0 || i >= len(dc.Lines) {
		return ""
	}
	return dc.Lines[i]
}

func (dc DocumentContext) lastBreak() int {
	if len(dc.PageBreaks) == 0 {
		return -1
	}
	return dc.PageBreaks[len(dc.PageBreaks)-1]
}
