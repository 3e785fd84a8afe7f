package arbiter

import (
	"regexp"

	"github.com/joseph-ayodele/invoice-extractor/internal/core/textnorm"
)

var pageBreakPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bpage\s+\d+\s*(?:of|/)\s*\d+\b`),
	regexp.MustCompile(`(?i)\bcontinued\s+on\s+(?:the\s+)?next\s+page\b`),
	regexp.MustCompile(`^\s*[-=_*~]{10,}\s*$`),
	regexp.MustCompile(`\f`),
}

// DetectPageBreaks returns the ascending line indices that look like page
// boundaries. Page count is len(result)+1.
func DetectPageBreaks(t textnorm.Text) []int {
	var breaks []int
	for i := 0; i < t.LineCount(); i++ {
		line := t.Line(i)
		for _, re := range pageBreakPatterns {
			if re.MatchString(line) {
				breaks = append(breaks, i)
				break
			}
		}
	}
	return breaks
}
