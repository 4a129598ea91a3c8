package scrape

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var brTag = regexp.MustCompile(`(?i)<br[^>]*>`)

// separators are applied progressively: each one re-splits every fragment
// produced by the previous one, so "A, B and C" yields three fragments.
var separators = []string{",", ";", " or ", " and ", "/", " & "}

var nullSentinels = map[string]struct{}{
	"n/a":  {},
	"none": {},
	"—":    {},
	"-":    {},
}

// SplitValues breaks a cell that may encode several independent values into
// atomic ones. It takes both the cell's raw markup and its plain text: line
// breaks only exist in the markup, and a naive text extraction concatenates
// the values around them without any delimiter.
func SplitValues(cellHTML, cellText string) []string {
	base := Normalize(cellText)

	if expanded, ok := expandLineBreaks(cellHTML); ok && expanded != base {
		base = expanded
	}

	fragments := []string{base}
	for _, sep := range separators {
		var next []string
		for _, frag := range fragments {
			if strings.Contains(frag, sep) {
				next = append(next, strings.Split(frag, sep)...)
			} else {
				next = append(next, frag)
			}
		}
		fragments = next
	}

	var values []string
	for _, frag := range fragments {
		cleaned := Normalize(frag)
		if cleaned == "" || len(cleaned) <= 1 {
			continue
		}
		if _, null := nullSentinels[strings.ToLower(cleaned)]; null {
			continue
		}
		values = append(values, cleaned)
	}

	// A cell must never vanish from the output entirely.
	if len(values) == 0 {
		return []string{base}
	}
	return values
}

// expandLineBreaks rewrites <br> tags as commas and re-extracts the plain
// text, recovering values the original text extraction ran together.
func expandLineBreaks(cellHTML string) (string, bool) {
	if cellHTML == "" || !brTag.MatchString(cellHTML) {
		return "", false
	}
	replaced := brTag.ReplaceAllString(cellHTML, ",")
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(replaced))
	if err != nil {
		return "", false
	}
	return Normalize(doc.Text()), true
}
