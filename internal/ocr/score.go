package ocr

import (
	"math"
	"regexp"
	"strings"
)

var (
	reDateToken  = regexp.MustCompile(`\b\d{1,4}[/\-.]\d{1,2}[/\-.]\d{2,4}\b|(?i)\b(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+\d{1,2}\b`)
	reCurrency   = regexp.MustCompile(`(?i)\b(?:usd|eur|gbp|cad|aud)\b|[$£€]`)
	rePriceToken = regexp.MustCompile(`\b\d{1,3}(?:,\d{3})*\.\d{2}\b`)
	reWordToken  = regexp.MustCompile(`[A-Za-z]{3,}`)
)

var invoiceKeywords = []string{
	"invoice", "total", "subtotal", "tax", "amount", "due", "date",
	"qty", "quantity", "bill", "balance", "description", "price",
}

const (
	weightRawConfidence = 60.0
	keywordPoints       = 3.0
	maxKeywordPoints    = 15.0
	gibberishPenalty    = 25.0
	repetitionPenalty   = 10.0
)

// CompositeScore rates a transcript on a 0..100 scale from the engine's own
// confidence plus what the text looks like. notes explain penalties.
func CompositeScore(text string, rawConfidence float64) (float64, []string) {
	var notes []string
	score := weightRawConfidence * math.Max(0, math.Min(1, rawConfidence))

	lower := strings.ToLower(text)
	kw := 0.0
	for _, k := range invoiceKeywords {
		if strings.Contains(lower, k) {
			kw += keywordPoints
		}
	}
	score += math.Min(kw, maxKeywordPoints)

	switch prices := len(rePriceToken.FindAllStringIndex(text, -1)); {
	case prices >= 3:
		score += 15
	case prices > 0:
		score += 10
	}
	if reDateToken.MatchString(text) {
		score += 5
	}

	if ratio := alnumRatio(text); ratio < 0.5 {
		score -= gibberishPenalty
		notes = append(notes, "gibberish: low alphanumeric ratio")
	}
	if hasRepetitionArtifacts(text) {
		score -= repetitionPenalty
		notes = append(notes, "repetition artifacts")
	}
	return math.Max(0, math.Min(100, score)), notes
}

func alnumRatio(s string) float64 {
	var alnum, total int
	for _, r := range s {
		if r == ' ' || r == '\n' || r == '\t' || r == '\f' {
			continue
		}
		total++
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			alnum++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(alnum) / float64(total)
}

// hasRepetitionArtifacts spots the stutter engines produce on noise: one
// character repeated many times, or most lines being copies of each other.
func hasRepetitionArtifacts(s string) bool {
	var prev rune
	run := 0
	for _, r := range s {
		if r == prev && r != ' ' && r != '-' && r != '=' && r != '_' && r != '.' {
			run++
			if run >= 6 {
				return true
			}
		} else {
			run = 1
		}
		prev = r
	}

	seen := map[string]int{}
	lines := 0
	for _, ln := range strings.Split(s, "\n") {
		ln = strings.TrimSpace(ln)
		if len(ln) < 4 {
			continue
		}
		lines++
		seen[ln]++
	}
	if lines < 4 {
		return false
	}
	dupes := 0
	for _, c := range seen {
		if c > 1 {
			dupes += c - 1
		}
	}
	return float64(dupes)/float64(lines) > 0.3
}

// textQuality estimates confidence for engines that report none: a base
// plus points for invoice artifacts, scaled by how word-like the text is.
func textQuality(txt string) float64 {
	if strings.TrimSpace(txt) == "" {
		return 0
	}
	score := 0.3
	if reDateToken.MatchString(txt) {
		score += 0.2
	}
	if reCurrency.MatchString(txt) {
		score += 0.15
	}
	if rePriceToken.MatchString(txt) {
		score += 0.15
	}
	if len(reWordToken.FindAllString(txt, -1)) >= 10 {
		score += 0.1
	}
	return math.Min(1, score*math.Min(1, alnumRatio(txt)+0.2))
}
