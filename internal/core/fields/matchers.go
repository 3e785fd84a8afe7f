package fields

import (
	"regexp"
	"strings"
)

// stringMatcher is one layer of a fallback chain. Chains are ordered data so
// each layer can be tested on its own.
type stringMatcher struct {
	name  string
	match func(lines []string) (string, bool)
}

// firstMatch runs matchers in order and returns the first hit with its source.
func firstMatch(matchers []stringMatcher, lines []string) (value, source string) {
	for _, m := range matchers {
		if v, ok := m.match(lines); ok {
			return v, m.name
		}
	}
	return "", ""
}

const headScanLines = 8

var (
	reHeaderLine = regexp.MustCompile(`(?i)\b(?:invoice|receipt|statement|bill\s+to|ship\s+to|sold\s+to|date|page|phone|tel|fax|e-?mail|www\.|https?|order|customer|account|terms|due)\b|@`)
	reMoneyToken = regexp.MustCompile(`[$€£]?\s?(?:\d{1,3}(?:,\d{3})+|\d+)\.\d{2}\b`)
	reSpaces     = regexp.MustCompile(`\s{2,}`)
)

func letterCount(s string) (letters, digits int) {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			letters++
		case r >= '0' && r <= '9':
			digits++
		}
	}
	return letters, digits
}

func mostlyNumeric(s string) bool {
	letters, digits := letterCount(s)
	return digits >= letters
}

func cleanValue(s string) string {
	s = reSpaces.ReplaceAllString(strings.TrimSpace(s), " ")
	return strings.Trim(s, " :-#|,")
}
