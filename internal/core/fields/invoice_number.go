package fields

import (
	"regexp"
	"strings"
)

const (
	minInvoiceNumberLen = 3
	maxInvoiceNumberLen = 30
	invoiceCode         = `([A-Z0-9][A-Z0-9\-/]*)`
)

type namedPattern struct {
	name string
	re   *regexp.Regexp
}

// Tried in order; the first pattern that yields a valid number wins.
// Labels stand alone on a line when the number is printed below them.
var invoiceNumberPatterns = []namedPattern{
	{"invoice_hash", regexp.MustCompile(`(?i)\binvoice\s*#\s*:?\s*` + invoiceCode)},
	{"invoice_no", regexp.MustCompile(`(?i)\binvoice\s*(?:no\b\.?|number\b|num\b\.?)\s*[:#]?\s*` + invoiceCode)},
	{"inv", regexp.MustCompile(`(?i)\binv\.?\s*[#:]\s*` + invoiceCode)},
	{"reference", regexp.MustCompile(`(?i)\b(?:receipt|order|p\.?\s?o\.?|ref(?:erence)?)\s*(?:#|no\b\.?|number\b)\s*:?\s*` + invoiceCode)},
	{"generic_code", regexp.MustCompile(`\b([A-Z]{2,5}-?\d{3,}[A-Z0-9\-]*)\b`)},
}

// validInvoiceNumber also wants a digit, which keeps words that follow a
// bare label ("Invoice No. Date:") from passing as numbers.
func validInvoiceNumber(s string) bool {
	n := len(s)
	return n >= minInvoiceNumberLen && n <= maxInvoiceNumberLen && strings.ContainsAny(s, "0123456789")
}

func extractInvoiceNumber(lines []string) (string, string) {
	for _, p := range invoiceNumberPatterns {
		for i, line := range lines {
			m := p.re.FindStringSubmatch(line)
			if m == nil && i+1 < len(lines) && p.name != "generic_code" {
				// label on its own line, value below
				m = p.re.FindStringSubmatch(line + " " + firstToken(lines[i+1]))
			}
			if m == nil {
				continue
			}
			v := strings.TrimRight(m[1], "-/")
			if validInvoiceNumber(v) {
				return v, p.name
			}
		}
	}
	return "", ""
}

func firstToken(line string) string {
	if f := strings.Fields(line); len(f) > 0 {
		return f[0]
	}
	return ""
}
