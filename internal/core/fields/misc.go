package fields

import (
	"regexp"
	"strings"
)

var currencyCodes = []struct {
	code string
	re   *regexp.Regexp
}{
	{"CAD", regexp.MustCompile(`\b(?:CAD|C\$)`)},
	{"AUD", regexp.MustCompile(`\b(?:AUD|A\$)`)},
	{"EUR", regexp.MustCompile(`€|\bEUR\b`)},
	{"GBP", regexp.MustCompile(`£|\bGBP\b`)},
	{"INR", regexp.MustCompile(`₹|\bINR\b`)},
	{"JPY", regexp.MustCompile(`¥|\bJPY\b`)},
	{"USD", regexp.MustCompile(`\$|\bUSD\b`)},
}

const defaultCurrency = "USD"

func extractCurrency(text string) string {
	for _, c := range currencyCodes {
		if c.re.MatchString(text) {
			return c.code
		}
	}
	return defaultCurrency
}

var (
	reStreet   = regexp.MustCompile(`(?i)^\s*\d{1,6}\s+[A-Za-z0-9.'\s]+?\b(?:street|st|avenue|ave|road|rd|boulevard|blvd|drive|dr|lane|ln|way|court|ct|place|pl|parkway|pkwy|highway|hwy|suite|ste)\b\.?`)
	reCityLine = regexp.MustCompile(`^\s*[A-Za-z .'-]+,\s*[A-Z]{2}\s+\d{5}(?:-\d{4})?\s*$`)
)

// extractAddress returns the first street line joined with a following
// city/state/zip line when there is one.
func extractAddress(lines []string) string {
	for i, line := range lines {
		if !reStreet.MatchString(line) {
			continue
		}
		addr := cleanValue(line)
		if i+1 < len(lines) && reCityLine.MatchString(lines[i+1]) {
			addr += ", " + strings.TrimSpace(lines[i+1])
		}
		return addr
	}
	return ""
}
