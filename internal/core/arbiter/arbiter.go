// Package arbiter decides which of the many money amounts on an invoice is
// the grand total, and whether that decision should replace the total a
// simpler label parser produced.
package arbiter

import (
	"fmt"
	"sort"

	"github.com/joseph-ayodele/invoice-extractor/internal/core/textnorm"
	"github.com/joseph-ayodele/invoice-extractor/internal/money"
)

// OverrideConfidenceThreshold is the confidence below which a nonzero parser
// total is kept even when arbitration disagrees.
const OverrideConfidenceThreshold = 40

const (
	maxConfidence  = 100
	maxMarginBonus = 20
	noSourceLine   = -1
)

// Input carries the text and the independently computed signals.
type Input struct {
	Text             textnorm.Text
	ParserTotalCents *int64
	LineItemSumCents int64
	VendorKey        string
}

// Result is the arbitration decision. Candidates holds every scored
// candidate in ranked order for support tooling.
type Result struct {
	TotalCents      *int64            `json:"totalCents"`
	Confidence      int               `json:"confidence"`
	SourceLineIndex int               `json:"sourceLineIndex"`
	Score           int               `json:"score"`
	Reasons         []Reason          `json:"reasons"`
	MathValidation  MathValidation    `json:"mathValidation"`
	ShouldOverride  bool              `json:"shouldOverride"`
	OverrideReason  string            `json:"overrideReason,omitempty"`
	Summary         Summary           `json:"summary"`
	Context         DocumentContext   `json:"context"`
	Candidates      []ScoredCandidate `json:"candidates"`
}

// Arbitrate runs the full candidate pipeline. It is a pure function of in.
func Arbitrate(in Input) Result {
	cands := ExtractCandidates(in.Text)
	summary := DetectSummary(in.Text)
	dc := BuildContext(in.Text, cands, summary, in.VendorKey, in.LineItemSumCents)
	ranked := Rank(ScoreAll(cands, dc))

	res := Result{
		SourceLineIndex: noSourceLine,
		Reasons:         []Reason{},
		MathValidation:  uncheckedMath(),
		Summary:         summary,
		Context:         dc,
		Candidates:      ranked,
	}
	if len(ranked) == 0 {
		res.OverrideReason = "no amount candidates found"
		return res
	}

	best := ranked[0]
	res.Score = best.Score
	res.Reasons = best.Reasons
	if best.Score < 0 {
		res.OverrideReason = "every candidate was disqualified"
		return res
	}

	second := 0
	if len(ranked) > 1 {
		second = ranked[1].Score
	}
	res.Confidence = Confidence(best.Score, second)
	res.TotalCents = money.Ptr(best.ValueCents)
	res.SourceLineIndex = best.LineIndex

	var candidateMath, parserMath bool
	if summary.SubtotalCents != nil && summary.TaxCents != nil {
		res.MathValidation = ValidateTotalMath(best.ValueCents, *summary.SubtotalCents, *summary.TaxCents)
		candidateMath = res.MathValidation.Status == MathValid
		if in.ParserTotalCents != nil {
			parserMath = ValidateTotalMath(*in.ParserTotalCents, *summary.SubtotalCents, *summary.TaxCents).Status == MathValid
		}
	}
	res.ShouldOverride, res.OverrideReason = decideOverride(best.ValueCents, res.Confidence, in.ParserTotalCents, candidateMath, parserMath)
	return res
}

// Confidence rewards both the winning score and its margin over the runner-up.
func Confidence(best, second int) int {
	margin := (best - second) / 2
	if margin > maxMarginBonus {
		margin = maxMarginBonus
	}
	if margin < 0 {
		margin = 0
	}
	c := best
	if c < 0 {
		c = 0
	}
	c += margin
	if c > maxConfidence {
		c = maxConfidence
	}
	return c
}

func decideOverride(best int64, confidence int, parser *int64, candidateMath, parserMath bool) (bool, string) {
	switch {
	case parser == nil || *parser == 0:
		return true, "parser total missing"
	case *parser == best:
		return false, "parser total agrees with arbitration"
	case confidence < OverrideConfidenceThreshold:
		return false, fmt.Sprintf("arbitration confidence %d below %d; keeping parser total", confidence, OverrideConfidenceThreshold)
	case parserMath && !candidateMath:
		return false, "parser total reconciles with subtotal + tax and the arbitrated total does not"
	default:
		return true, fmt.Sprintf("arbitrated total %s differs from parser total %s", money.FormatUSD(best), money.FormatUSD(*parser))
	}
}

// Rank orders scored candidates best first. Ties go to the later line, then
// the rightmost amount, so the ordering is total and deterministic.
func Rank(scored []ScoredCandidate) []ScoredCandidate {
	out := make([]ScoredCandidate, len(scored))
	copy(out, scored)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.LineIndex != b.LineIndex {
			return a.LineIndex > b.LineIndex
		}
		return a.Offset > b.Offset
	})
	return out
}
