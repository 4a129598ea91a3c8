package scrape

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitValuesSeparatorCascade(t *testing.T) {
	t.Parallel()

	got := SplitValues("", "A1, B2 and C3")
	require.Equal(t, []string{"A1", "B2", "C3"}, got)
}

func TestSplitValuesSingleValue(t *testing.T) {
	t.Parallel()

	got := SplitValues("", "Feline")
	require.Equal(t, []string{"Feline"}, got)
}

func TestSplitValuesLineBreakMarkup(t *testing.T) {
	t.Parallel()

	// A naive text extraction of this cell yields "CanineLoyal"; the markup
	// is what tells us there are two values.
	got := SplitValues("<td>Canine<br>Loyal</td>", "CanineLoyal")
	require.Equal(t, []string{"Canine", "Loyal"}, got)
}

func TestSplitValuesAllSeparators(t *testing.T) {
	t.Parallel()

	got := SplitValues("", "alpha; beta / gamma & delta or epsilon")
	require.Equal(t, []string{"alpha", "beta", "gamma", "delta", "epsilon"}, got)
}

func TestSplitValuesDropsSentinels(t *testing.T) {
	t.Parallel()

	got := SplitValues("", "vulpine, n/a, none, —, -")
	require.Equal(t, []string{"vulpine"}, got)
}

func TestSplitValuesFallbackNeverEmpty(t *testing.T) {
	t.Parallel()

	// All fragments are discarded by the cascade filters, so the original
	// normalized text comes back as a one-element list.
	got := SplitValues("", "x")
	require.Len(t, got, 1)
	require.Equal(t, "x", got[0])
}
