package fields

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// dateGrammar recognizes one date shape and converts its submatches.
type dateGrammar struct {
	name  string
	re    *regexp.Regexp
	parse func(m []string) (time.Time, bool)
}

const monthNames = `(jan|feb|mar|apr|may|jun|jul|aug|sep|sept|oct|nov|dec)[a-z]*\.?`

var dateGrammars = []dateGrammar{
	{"iso", regexp.MustCompile(`\b(\d{4})[-/.](\d{1,2})[-/.](\d{1,2})\b`), func(m []string) (time.Time, bool) {
		return buildDate(atoi(m[1]), atoi(m[2]), atoi(m[3]))
	}},
	{"numeric", regexp.MustCompile(`\b(\d{1,2})[-/.](\d{1,2})[-/.](\d{4}|\d{2})\b`), parseNumericDate},
	{"month_day_year", regexp.MustCompile(`(?i)\b` + monthNames + `\s+(\d{1,2})(?:st|nd|rd|th)?,?\s+(\d{4})\b`), func(m []string) (time.Time, bool) {
		return buildDate(atoi(m[3]), monthIndex(m[1]), atoi(m[2]))
	}},
	{"day_month_year", regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?\s+` + monthNames + `,?\s+(\d{4})\b`), func(m []string) (time.Time, bool) {
		return buildDate(atoi(m[3]), monthIndex(m[2]), atoi(m[1]))
	}},
}

// US month/day order unless the first field cannot be a month.
func parseNumericDate(m []string) (time.Time, bool) {
	a, b, y := atoi(m[1]), atoi(m[2]), atoi(m[3])
	if len(m[3]) == 2 {
		y += 2000
	}
	if a > 12 && b <= 12 {
		a, b = b, a
	}
	return buildDate(y, a, b)
}

func buildDate(y, mo, d int) (time.Time, bool) {
	if y < 1990 || y > 2100 || mo < 1 || mo > 12 || d < 1 || d > 31 {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC)
	if t.Month() != time.Month(mo) || t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func monthIndex(name string) int {
	prefix := strings.ToLower(name)
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}
	for i, m := range []string{"jan", "feb", "mar", "apr", "may", "jun", "jul", "aug", "sep", "oct", "nov", "dec"} {
		if m == prefix {
			return i + 1
		}
	}
	return 0
}

// findDate returns the first valid date in s under any grammar, preferring
// grammars in declaration order.
func findDate(s string) (time.Time, bool) {
	for _, g := range dateGrammars {
		for _, m := range g.re.FindAllStringSubmatch(s, -1) {
			if t, ok := g.parse(m); ok {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

var (
	reDateLabel = regexp.MustCompile(`(?i)\b(?:invoice\s+|bill\s+|order\s+|issue\s+|txn\s+)?date\b\s*[:#\-]?`)
	reDueDate   = regexp.MustCompile(`(?i)\b(?:due|ship(?:ped)?|delivery)\s+date\b`)
)

var dateMatchers = []stringMatcher{
	{"labeled", matchLabeledDate},
	{"first_token", matchFirstDate},
}

func matchLabeledDate(lines []string) (string, bool) {
	for i, line := range lines {
		if reDueDate.MatchString(line) {
			continue
		}
		loc := reDateLabel.FindStringIndex(line)
		if loc == nil {
			continue
		}
		if t, ok := findDate(line[loc[1]:]); ok {
			return t.Format("2006-01-02"), true
		}
		// label on its own line, value below
		if i+1 < len(lines) {
			if t, ok := findDate(lines[i+1]); ok {
				return t.Format("2006-01-02"), true
			}
		}
	}
	return "", false
}

func matchFirstDate(lines []string) (string, bool) {
	for _, line := range lines {
		if t, ok := findDate(line); ok {
			return t.Format("2006-01-02"), true
		}
	}
	return "", false
}
