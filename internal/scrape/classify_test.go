package scrape

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestClassifyTablesSelectsAdjectiveColumn(t *testing.T) {
	t.Parallel()

	doc := mustDoc(t, `
		<table>
			<tr><th>Animal</th><th>Collateral Adjective</th><th>Other</th></tr>
			<tr><td>Lion</td><td>Leonine</td><td>x</td></tr>
		</table>`)

	got := ClassifyTables(doc)
	require.Len(t, got, 1)
	require.Equal(t, 1, got[0].ColumnIdx)
}

func TestClassifyTablesExcludesUnrelatedTable(t *testing.T) {
	t.Parallel()

	doc := mustDoc(t, `
		<table>
			<tr><th>Animal</th><th>Habitat</th><th>Diet</th></tr>
			<tr><td>Lion</td><td>Savanna</td><td>Meat</td></tr>
		</table>`)

	require.Empty(t, ClassifyTables(doc))
}

func TestClassifyTablesLeftmostMatchWins(t *testing.T) {
	t.Parallel()

	doc := mustDoc(t, `
		<table>
			<tr><th>Adjectival form</th><th>Collateral adjective</th></tr>
		</table>`)

	got := ClassifyTables(doc)
	require.Len(t, got, 1)
	require.Equal(t, 0, got[0].ColumnIdx)
}

func TestClassifyTablesSkipsHeaderlessTable(t *testing.T) {
	t.Parallel()

	doc := mustDoc(t, `<table></table>
		<table><tr><th>Animal</th><th>Adjective</th></tr></table>`)

	got := ClassifyTables(doc)
	require.Len(t, got, 1)
	require.Equal(t, 1, got[0].ColumnIdx)
}

func TestClassifyTablesPreservesDocumentOrder(t *testing.T) {
	t.Parallel()

	doc := mustDoc(t, `
		<table id="a"><tr><th>Animal</th><th>Adjective</th></tr></table>
		<table id="b"><tr><th>Animal</th><th>Habitat</th></tr></table>
		<table id="c"><tr><th>Beast</th><th>Relating adjective</th></tr></table>`)

	got := ClassifyTables(doc)
	require.Len(t, got, 2)
	id, _ := got[0].Table.Attr("id")
	require.Equal(t, "a", id)
	id, _ = got[1].Table.Attr("id")
	require.Equal(t, "c", id)
}
