package arbiter

import (
	"regexp"
	"sort"
	"strings"

	"github.com/joseph-ayodele/invoice-extractor/internal/core/textnorm"
	"github.com/joseph-ayodele/invoice-extractor/internal/money"
)

// MatchType records which money pattern produced a candidate.
type MatchType string

const (
	MatchCurrencySymbol MatchType = "currency_symbol"
	MatchCurrencyCode   MatchType = "currency_code"
	MatchBareDecimal    MatchType = "bare_decimal"
)

// Column is the coarse horizontal position of an amount within its line.
type Column string

const (
	ColumnLeft   Column = "left"
	ColumnCenter Column = "center"
	ColumnRight  Column = "right"
)

// Candidate is one money-shaped token found in the document.
type Candidate struct {
	LineIndex  int       `json:"lineIndex"`
	LineText   string    `json:"lineText"`
	ValueCents int64     `json:"valueCents"`
	RawMatch   string    `json:"rawMatch"`
	MatchType  MatchType `json:"matchType"`
	Column     Column    `json:"columnPosition"`
	Offset     int       `json:"offset"`
}

const amountBody = `(?:\d{1,3}(?:,\d{3})+|\d+)`

type moneyPattern struct {
	kind MatchType
	re   *regexp.Regexp
}

// Tried in order; a later pattern never claims bytes an earlier one matched.
var moneyPatterns = []moneyPattern{
	{MatchCurrencySymbol, regexp.MustCompile(`[$€£]\s?` + amountBody + `(?:\.\d{2})?\b`)},
	{MatchCurrencyCode, regexp.MustCompile(`\b(?:USD|CAD|AUD|EUR|GBP)\s?` + amountBody + `(?:\.\d{2})?\b`)},
	{MatchBareDecimal, regexp.MustCompile(`\b(?:\d{1,3}(?:,\d{3})+|\d+)\.\d{2}\b`)},
}

type span struct{ start, end int }

func overlaps(spans []span, s span) bool {
	for _, o := range spans {
		if s.start < o.end && o.start < s.end {
			return true
		}
	}
	return false
}

// ExtractCandidates returns every non-zero amount in document order.
func ExtractCandidates(t textnorm.Text) []Candidate {
	var out []Candidate
	for i := 0; i < t.LineCount(); i++ {
		out = append(out, extractLine(i, t.Line(i))...)
	}
	return out
}

func extractLine(lineIndex int, line string) []Candidate {
	var (
		taken []span
		found []Candidate
	)
	for _, p := range moneyPatterns {
		for _, loc := range p.re.FindAllStringIndex(line, -1) {
			s := span{loc[0], loc[1]}
			if overlaps(taken, s) || !standalone(line, s) {
				continue
			}
			raw := line[s.start:s.end]
			cents, err := money.ParseCents(raw)
			if err != nil || cents == 0 {
				continue
			}
			taken = append(taken, s)
			found = append(found, Candidate{
				LineIndex:  lineIndex,
				LineText:   line,
				ValueCents: cents,
				RawMatch:   raw,
				MatchType:  p.kind,
				Column:     columnOf(line, s),
				Offset:     s.start,
			})
		}
	}
	sort.SliceStable(found, func(a, b int) bool { return found[a].Offset < found[b].Offset })
	return found
}

// standalone rejects tokens that are really part of a date, version string
// or percentage ("01.05.2024", "8.25%").
func standalone(line string, s span) bool {
	if s.start > 0 {
		prev := line[s.start-1]
		if prev == '.' || prev == '/' || (prev >= '0' && prev <= '9') {
			return false
		}
	}
	rest := line[s.end:]
	if len(rest) >= 2 && (rest[0] == '.' || rest[0] == '/') && rest[1] >= '0' && rest[1] <= '9' {
		return false
	}
	if strings.HasPrefix(strings.TrimLeft(rest, " "), "%") {
		return false
	}
	return true
}

// columnOf places an amount by where it starts within the line.
func columnOf(line string, s span) Column {
	if len(line) == 0 {
		return ColumnLeft
	}
	pos := float64(s.start) / float64(len(line))
	switch {
	case pos < 1.0/3:
		return ColumnLeft
	case pos >= 2.0/3:
		return ColumnRight
	default:
		return ColumnCenter
	}
}

// LastAmountOnLine returns the rightmost amount on a line.
func LastAmountOnLine(line string) (int64, bool) {
	cands := extractLine(0, line)
	if len(cands) == 0 {
		return 0, false
	}
	return cands[len(cands)-1].ValueCents, true
}
