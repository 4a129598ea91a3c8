package process

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"faunascraper/internal/fauna"
)

func rec(animal, adjective string) fauna.Record {
	return fauna.Record{Animal: animal, Adjective: adjective}
}

func TestRunEndToEnd(t *testing.T) {
	t.Parallel()

	in := []fauna.Record{
		rec("Lion", "Leonine"),
		rec("Lion", "Leonine"),
		rec("", "Invalid"),
		rec("Eagle", "Aquiline"),
		rec("Dog", "Canine"),
	}

	out, stats := New(zap.NewNop()).Run(in)

	require.Equal(t, []fauna.Record{
		rec("Lion", "Leonine"),
		rec("Eagle", "Aquiline"),
		rec("Dog", "Canine"),
	}, out)
	require.Equal(t, 5, stats.Input)
	require.Equal(t, 3, stats.Valid)
	require.Equal(t, 1, stats.Rejected)
	require.Equal(t, 1, stats.Duplicates)
	require.Equal(t, 3, stats.UniqueAnimals)
	require.Equal(t, 3, stats.UniqueAdjectives)
}

func TestRunIsIdempotent(t *testing.T) {
	t.Parallel()

	in := []fauna.Record{
		rec("Lion", "Leonine"),
		rec("Dog", "Canine"),
		rec("Dog", "Cynoid"),
		rec("lion", "leonine"),
	}

	p := New(nil)
	once, _ := p.Run(in)
	twice, stats := p.Run(once)

	require.Equal(t, once, twice)
	require.Zero(t, stats.Rejected)
	require.Zero(t, stats.Duplicates)
}

func TestValid(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		rec  fauna.Record
		want bool
	}{
		{"ok", rec("Lion", "Leonine"), true},
		{"empty animal", rec("", "Leonine"), false},
		{"empty adjective", rec("Lion", ""), false},
		{"denylisted section label", rec("See also", "Leonine"), false},
		{"denylisted generic word", rec("Group", "Gregarious"), false},
		{"short adjective", rec("Ox", "x"), false},
		{"null sentinel", rec("Ox", "n/a"), false},
		{"key equals value", rec("Moose", "moose"), false},
		{"multi-adjective animal", rec("Dog", "Cynoid"), true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, Valid(tc.rec))
		})
	}
}

func TestGroupByAnimal(t *testing.T) {
	t.Parallel()

	records := []fauna.Record{
		{Animal: "Lion", Adjective: "Leonine", LocalPath: "/tmp/lion.jpg"},
		{Animal: "Dog", Adjective: "Canine"},
		{Animal: "Lion", Adjective: "Pantherine"},
		{Animal: "Dog", Adjective: "Cynoid", LocalPath: "/tmp/dog.jpg"},
	}

	groups := GroupByAnimal(records)
	require.Len(t, groups, 2)

	require.Equal(t, "Dog", groups[0].Animal)
	require.Equal(t, []string{"Canine", "Cynoid"}, groups[0].Adjectives)
	require.Equal(t, "/tmp/dog.jpg", groups[0].LocalPath)

	require.Equal(t, "Lion", groups[1].Animal)
	require.Equal(t, []string{"Leonine", "Pantherine"}, groups[1].Adjectives)
	require.Equal(t, "/tmp/lion.jpg", groups[1].LocalPath)
}
