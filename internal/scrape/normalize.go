// Package scrape extracts animal/adjective records from the tables of a
// parsed source page. The heuristics are best-effort: header-driven table
// selection, first-cell keys, and a separator cascade for composite cells.
package scrape

import (
	"regexp"
	"strings"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	citationRef   = regexp.MustCompile(`\[\d+\]`)
	editNote      = regexp.MustCompile(`(?i)\([^)]*edit[^)]*\)`)
)

// Normalize trims raw cell text, collapses whitespace runs to a single
// space, and strips citation markers like "[3]" and "(...edit...)" style
// editorial parentheticals. Empty input yields empty output.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	out := citationRef.ReplaceAllString(text, "")
	out = editNote.ReplaceAllString(out, "")
	out = whitespaceRun.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}
