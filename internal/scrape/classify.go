package scrape

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// columnIndicators are the header substrings that mark a table as holding
// collateral adjective data. Matching is case-insensitive substring
// containment, which tolerates footnote suffixes and wording drift.
var columnIndicators = []string{
	"collateral adjective",
	"adjective",
	"collateral",
	"adjectival",
	"relating adjective",
}

// ClassifiedTable pairs a qualifying table with the index of the first
// header cell that matched an indicator.
type ClassifiedTable struct {
	Table     *goquery.Selection
	ColumnIdx int
}

// ClassifyTables scans every table in the document and keeps those whose
// first row contains a recognized column label, in document order. Tables
// without a header row are skipped without error.
func ClassifyTables(doc *goquery.Document) []ClassifiedTable {
	var classified []ClassifiedTable
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		header := table.Find("tr").First()
		if header.Length() == 0 {
			return
		}
		idx := matchColumn(header)
		if idx < 0 {
			return
		}
		classified = append(classified, ClassifiedTable{Table: table, ColumnIdx: idx})
	})
	return classified
}

// matchColumn returns the leftmost header cell whose lowercase text contains
// any indicator, or -1 when the row has none.
func matchColumn(headerRow *goquery.Selection) int {
	found := -1
	headerRow.Find("th, td").EachWithBreak(func(i int, cell *goquery.Selection) bool {
		text := strings.ToLower(strings.TrimSpace(cell.Text()))
		for _, indicator := range columnIndicators {
			if strings.Contains(text, indicator) {
				found = i
				return false
			}
		}
		return true
	})
	return found
}
