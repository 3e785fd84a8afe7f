// Package textnorm canonicalizes raw recognition or PDF text before any
// pattern matching runs against it.
package textnorm

import (
	"regexp"
	"strings"
)

var (
	reCRLF       = regexp.MustCompile(`\r\n?`)
	reTrailingWS = regexp.MustCompile(`[ \t\v]+\n`)
	reMultiBlank = regexp.MustCompile(`\n{3,}`)
)

// Text is normalized text plus its line view. The zero value is an empty document.
type Text struct {
	text  string
	lines []string
}

// Normalize collapses carriage returns, strips whitespace before newlines and
// collapses runs of blank lines to a single blank line. It never fails.
func Normalize(raw string) Text {
	s := reCRLF.ReplaceAllString(raw, "\n")
	s = reTrailingWS.ReplaceAllString(s, "\n")
	s = strings.TrimRight(s, " \t\v")
	s = reMultiBlank.ReplaceAllString(s, "\n\n")
	if s == "" {
		return Text{}
	}
	return Text{text: s, lines: strings.Split(s, "\n")}
}

func (t Text) String() string { return t.text }

func (t Text) LineCount() int { return len(t.lines) }

func (t Text) Empty() bool { return strings.TrimSpace(t.text) == "" }

// Line returns line i, or "" when i is out of range.
func (t Text) Line(i int) string {
	if i < 0 || i >= len(t.lines) {
		return ""
	}
	return t.lines[i]
}

// Lines returns a copy of the line view.
func (t Text) Lines() []string {
	out := make([]string, len(t.lines))
	copy(out, t.lines)
	return out
}
