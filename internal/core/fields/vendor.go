package fields

import "regexp"

var vendorMatchers = []stringMatcher{
	{"labeled", matchLabeledVendor},
	{"company_suffix", matchCompanySuffix},
	{"first_alpha_line", matchFirstAlphaLine},
}

var (
	reVendorLabel   = regexp.MustCompile(`(?i)^\s*(?:from|vendor|sold\s+by|supplier|seller|bill\s+from|remit\s+to)\s*[:\-]\s*(.+?)\s*$`)
	reCompanySuffix = regexp.MustCompile(`(?i)\b(?:inc|llc|l\.l\.c|corp|corporation|company|co|ltd|limited|gmbh|plc|llp|lp|enterprises|supply|foods|distributors|distribution)\b\.?`)
)

func matchLabeledVendor(lines []string) (string, bool) {
	for _, line := range lines {
		if m := reVendorLabel.FindStringSubmatch(line); m != nil {
			v := cleanValue(m[1])
			if letters, _ := letterCount(v); letters >= 2 {
				return v, true
			}
		}
	}
	return "", false
}

// headLines yields up to headScanLines non-blank lines that are neither
// header boilerplate nor mostly digits.
func headLines(lines []string) []string {
	var out []string
	seen := 0
	for _, line := range lines {
		if isBlankLine(line) {
			continue
		}
		seen++
		if seen > headScanLines {
			break
		}
		if reHeaderLine.MatchString(line) || mostlyNumeric(line) || reMoneyToken.MatchString(line) {
			continue
		}
		out = append(out, line)
	}
	return out
}

func matchCompanySuffix(lines []string) (string, bool) {
	for _, line := range headLines(lines) {
		if reCompanySuffix.MatchString(line) {
			return cleanValue(line), true
		}
	}
	return "", false
}

func matchFirstAlphaLine(lines []string) (string, bool) {
	for _, line := range headLines(lines) {
		v := cleanValue(line)
		letters, _ := letterCount(v)
		if letters >= 3 && float64(letters) >= 0.5*float64(len([]rune(v))) {
			return v, true
		}
	}
	return "", false
}

func isBlankLine(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\f' {
			return false
		}
	}
	return true
}
