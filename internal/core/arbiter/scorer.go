package arbiter

import (
	"regexp"

	"github.com/joseph-ayodele/invoice-extractor/internal/money"
)

// Reason is one triggered rule and the score delta it contributed.
type Reason struct {
	Rule  string `json:"rule"`
	Delta int    `json:"delta"`
}

// ScoredCandidate is a candidate with its score and audit trail.
type ScoredCandidate struct {
	Candidate
	Score   int      `json:"score"`
	Reasons []Reason `json:"reasons"`
}

// strategy returns the rules it triggered for c. Strategies must be pure.
type strategy struct {
	name  string
	apply func(c Candidate, dc DocumentContext) []Reason
}

// Order is part of the audit trail contract: reasons are listed in this order.
var strategies = []strategy{
	{"label", scoreLabels},
	{"disqualify", scoreDisqualifiers},
	{"position", scorePosition},
	{"arithmetic", scoreArithmetic},
	{"magnitude", scoreMagnitude},
	{"context", scoreContext},
	{"vendor", scoreVendorPatterns},
}

// Score runs every strategy against c and sums the deltas.
func Score(c Candidate, dc DocumentContext) ScoredCandidate {
	sc := ScoredCandidate{Candidate: c, Reasons: []Reason{}}
	for _, s := range strategies {
		for _, r := range s.apply(c, dc) {
			sc.Score += r.Delta
			sc.Reasons = append(sc.Reasons, r)
		}
	}
	return sc
}

// ScoreAll scores candidates independently, preserving input order.
func ScoreAll(cands []Candidate, dc DocumentContext) []ScoredCandidate {
	out := make([]ScoredCandidate, len(cands))
	for i, c := range cands {
		out[i] = Score(c, dc)
	}
	return out
}

type weightedPattern struct {
	rule  string
	re    *regexp.Regexp
	delta int
}

// Strongest first; only the first matching label counts.
var labelPatterns = []weightedPattern{
	{"label_invoice_total", regexp.MustCompile(`(?i)\b(?:invoice\s+total|total\s+invoice(?:\s+amount)?|amount\s+due|balance\s+due)\b`), 50},
	{"label_grand_total", regexp.MustCompile(`(?i)\bgrand\s+total\b`), 45},
	{"label_total_due", regexp.MustCompile(`(?i)\btotal\s+(?:due|amount|payable)\b`), 40},
	{"label_total", regexp.MustCompile(`(?i)\btotal\b`), 30},
}

func scoreLabels(c Candidate, _ DocumentContext) []Reason {
	for _, p := range labelPatterns {
		if p.re.MatchString(c.LineText) {
			return []Reason{{p.rule, p.delta}}
		}
	}
	return nil
}

// Every penalty is larger than the best label bonus.
var disqualifierPatterns = []weightedPattern{
	{"disqualify_subtotal", ReSubtotal, -60},
	{"disqualify_group_total", regexp.MustCompile(`(?i)\b(?:dept|department|group|section|category)\b.*total`), -60},
	{"disqualify_employee_subtotal", regexp.MustCompile(`(?i)\b(?:employee|emp)\b.*\bsub[\s-]*total\b`), -70},
	{"disqualify_line_total", regexp.MustCompile(`(?i)\b(?:line|item)\s+total\b`), -55},
	{"disqualify_shipping", ReShipping, -55},
	{"disqualify_discount", ReDiscount, -55},
}

func scoreDisqualifiers(c Candidate, _ DocumentContext) []Reason {
	var out []Reason
	for _, p := range disqualifierPatterns {
		if p.re.MatchString(c.LineText) {
			out = append(out, Reason{p.rule, p.delta})
		}
	}
	if isTaxLine(c.LineText) {
		out = append(out, Reason{"disqualify_tax_line", -55})
	}
	return out
}

// isTaxLine is a tax label not acting as the document total. "Total tax"
// counts as a tax line; "Total (incl. tax)" does not.
func isTaxLine(line string) bool {
	if !ReTaxLabel.MatchString(line) {
		return false
	}
	return ReTaxTotal.MatchString(line) || !ReTotalWord.MatchString(line)
}

func scorePosition(c Candidate, dc DocumentContext) []Reason {
	if dc.TotalLines == 0 {
		return nil
	}
	var out []Reason
	ratio := float64(c.LineIndex+1) / float64(dc.TotalLines)
	if ratio > 0.75 {
		out = append(out, Reason{"position_bottom_quarter", 10})
	}
	if ratio > 0.9 {
		out = append(out, Reason{"position_bottom_tenth", 5})
	}
	if dc.PageCount > 1 && c.LineIndex > dc.lastBreak() {
		out = append(out, Reason{"position_last_page", 5})
	}
	if ratio <= 0.25 {
		out = append(out, Reason{"position_top_quarter", -10})
	}
	return out
}

const (
	reconcileToleranceCents = 5
)

func scoreArithmetic(c Candidate, dc DocumentContext) []Reason {
	var out []Reason
	if dc.SubtotalCents != nil && dc.TaxCents != nil {
		if money.Within(c.ValueCents, *dc.SubtotalCents+*dc.TaxCents, reconcileToleranceCents) {
			out = append(out, Reason{"math_subtotal_plus_tax", 30})
		}
	}
	if dc.SubtotalCents != nil && c.ValueCents > *dc.SubtotalCents {
		out = append(out, Reason{"math_exceeds_subtotal", 5})
	}
	if dc.LineItemSumCents > 0 && c.ValueCents >= dc.LineItemSumCents {
		out = append(out, Reason{"math_covers_line_items", 5})
	}
	return out
}

func scoreMagnitude(c Candidate, dc DocumentContext) []Reason {
	var out []Reason
	if dc.MaxValueCents > 0 && c.ValueCents*100 >= dc.MaxValueCents*95 {
		out = append(out, Reason{"magnitude_near_max", 10})
	}
	if c.ValueCents < 1000 {
		out = append(out, Reason{"magnitude_under_10", -10})
	}
	if c.ValueCents < 100 {
		out = append(out, Reason{"magnitude_under_1", -10})
	}
	return out
}

var reSummaryVocabulary = regexp.MustCompile(`(?i)\b(?:sub[\s-]*total|total|tax|vat|gst|shipping|freight|balance|payment|amount\s+due|discount)\b`)

func scoreContext(c Candidate, dc DocumentContext) []Reason {
	var out []Reason

	prev := c.LineIndex - 1
	for prev >= 0 && isBlank(dc.line(prev)) {
		prev--
	}
	if p := dc.line(prev); p != "" && (ReSubtotal.MatchString(p) || ReTaxLabel.MatchString(p) || ReShipping.MatchString(p)) {
		out = append(out, Reason{"context_after_summary_line", 10})
	}

	for d := -2; d <= 2; d++ {
		if d == 0 {
			continue
		}
		if reSummaryVocabulary.MatchString(dc.line(c.LineIndex + d)) {
			out = append(out, Reason{"context_summary_section", 5})
			break
		}
	}

	for _, b := range dc.PageBreaks {
		if d := b - c.LineIndex; d >= -3 && d <= 3 {
			out = append(out, Reason{"context_near_page_break", 3})
			break
		}
	}
	return out
}

func isBlank(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\f' {
			return false
		}
	}
	return true
}
