package scrape

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"faunascraper/internal/fauna"
)

const wikiPathPrefix = "/wiki/"

// Extractor walks classified tables and produces flat Records. The lookup
// cache lives on the Extractor, so it is scoped to one extraction run and
// never shared across runs.
type Extractor struct {
	lookup      fauna.Lookup
	logger      *zap.Logger
	lookupCache map[string]string
}

// NewExtractor builds an Extractor. lookup may be nil, in which case records
// carry no image URL.
func NewExtractor(lookup fauna.Lookup, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		lookup:      lookup,
		logger:      logger,
		lookupCache: make(map[string]string),
	}
}

// Extract runs the full pipeline over the document: classify tables, then
// walk each one row by row. Results are concatenated in document order;
// within a table, row order; within a cell, left-to-right split order.
func (e *Extractor) Extract(ctx context.Context, doc *goquery.Document) []fauna.Record {
	tables := ClassifyTables(doc)
	e.logger.Info("classified source tables", zap.Int("qualifying", len(tables)))

	var records []fauna.Record
	for tableIdx, ct := range tables {
		rows := ct.Table.Find("tr")
		rows.Each(func(rowIdx int, row *goquery.Selection) {
			if rowIdx == 0 {
				return // header
			}
			records = append(records, e.extractRow(ctx, row, ct.ColumnIdx, tableIdx, rowIdx)...)
		})
	}
	e.logger.Info("extraction complete", zap.Int("records", len(records)))
	return records
}

// extractRow emits zero or more Records for one data row. A malformed row
// never aborts the table: panics from unexpected markup are swallowed here
// and the row is skipped.
func (e *Extractor) extractRow(
	ctx context.Context,
	row *goquery.Selection,
	columnIdx, tableIdx, rowIdx int,
) (records []fauna.Record) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("skipping malformed row",
				zap.Int("table", tableIdx),
				zap.Int("row", rowIdx),
				zap.Any("panic", r),
			)
			records = nil
		}
	}()

	cells := row.Find("td, th")
	if cells.Length() <= columnIdx {
		return nil
	}

	animal, pageTitle := keyCell(cells.First())
	if animal == "" || len(animal) < 2 {
		return nil
	}

	target := cells.Eq(columnIdx)
	targetText := Normalize(target.Text())
	if targetText == "" || isNullSentinel(targetText) {
		return nil
	}
	targetHTML, err := goquery.OuterHtml(target)
	if err != nil {
		targetHTML = ""
	}

	imageURL := e.cachedImageURL(ctx, pageTitle)

	for _, adjective := range SplitValues(targetHTML, targetText) {
		records = append(records, fauna.Record{
			Animal:    animal,
			Adjective: adjective,
			PageTitle: pageTitle,
			ImageURL:  imageURL,
		})
	}
	return records
}

// cachedImageURL consults the lookup collaborator at most once per distinct
// page title; repeated rows referencing the same title reuse the answer.
func (e *Extractor) cachedImageURL(ctx context.Context, pageTitle string) string {
	if pageTitle == "" || e.lookup == nil {
		return ""
	}
	if url, seen := e.lookupCache[pageTitle]; seen {
		return url
	}
	url, err := e.lookup.ImageURL(ctx, pageTitle)
	if err != nil {
		// Lookup failures mean "no locator", never a fatal error.
		e.logger.Warn("image lookup failed", zap.String("page", pageTitle), zap.Error(err))
		url = ""
	}
	e.lookupCache[pageTitle] = url
	return url
}

// keyCell extracts the animal name and, when the cell links into the wiki,
// the link target stripped of its path prefix.
func keyCell(cell *goquery.Selection) (name, pageTitle string) {
	name = Normalize(cell.Text())
	if href, ok := cell.Find("a[href]").First().Attr("href"); ok {
		if strings.HasPrefix(href, wikiPathPrefix) {
			pageTitle = strings.TrimPrefix(href, wikiPathPrefix)
		}
	}
	return name, pageTitle
}

func isNullSentinel(text string) bool {
	_, null := nullSentinels[strings.ToLower(text)]
	return null
}
