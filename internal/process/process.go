// Package process validates, deduplicates, and summarizes extracted records
// before they reach the downloader and the report.
package process

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"faunascraper/internal/fauna"
	"faunascraper/internal/scrape"
)

// keyDenylist holds structural section labels and generic non-entity words
// that show up in the key column of badly parsed rows.
var keyDenylist = []string{
	"see also",
	"references",
	"external links",
	"notes",
	"male",
	"female",
	"young",
	"group",
	"adjective",
}

var nullValues = map[string]struct{}{
	"n/a":  {},
	"none": {},
	"—":    {},
	"-":    {},
}

// Stats summarizes one processing pass.
type Stats struct {
	Input            int
	Valid            int
	Rejected         int
	Duplicates       int
	UniqueAnimals    int
	UniqueAdjectives int
}

// Processor filters and deduplicates records. Zero value is not usable; use
// New.
type Processor struct {
	logger *zap.Logger
}

// New builds a Processor.
func New(logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{logger: logger}
}

// Run validates every record, drops exact (animal, adjective) duplicates
// with first-occurrence-wins ordering, and reports what it did. The retained
// subsequence preserves input order, so running the pass on its own output
// is a fixed point.
func (p *Processor) Run(records []fauna.Record) ([]fauna.Record, Stats) {
	stats := Stats{Input: len(records)}

	seen := make(map[[2]string]struct{}, len(records))
	animals := make(map[string]struct{})
	adjectives := make(map[string]struct{})
	var kept []fauna.Record

	for _, rec := range records {
		if !Valid(rec) {
			stats.Rejected++
			p.logger.Debug("rejected record",
				zap.String("animal", rec.Animal),
				zap.String("adjective", rec.Adjective),
			)
			continue
		}
		key := dedupKey(rec)
		if _, dup := seen[key]; dup {
			stats.Duplicates++
			continue
		}
		seen[key] = struct{}{}
		animals[key[0]] = struct{}{}
		adjectives[key[1]] = struct{}{}
		kept = append(kept, rec)
	}

	stats.Valid = len(kept)
	stats.UniqueAnimals = len(animals)
	stats.UniqueAdjectives = len(adjectives)

	p.logger.Info("processing complete",
		zap.Int("input", stats.Input),
		zap.Int("valid", stats.Valid),
		zap.Int("rejected", stats.Rejected),
		zap.Int("duplicates", stats.Duplicates),
	)
	return kept, stats
}

// Valid reports whether a record is structurally and semantically usable.
func Valid(rec fauna.Record) bool {
	animal := strings.TrimSpace(rec.Animal)
	adjective := strings.TrimSpace(rec.Adjective)
	if animal == "" || adjective == "" {
		return false
	}
	lowerAnimal := strings.ToLower(animal)
	for _, denied := range keyDenylist {
		if strings.Contains(lowerAnimal, denied) {
			return false
		}
	}
	if len(adjective) < 2 {
		return false
	}
	if _, null := nullValues[strings.ToLower(adjective)]; null {
		return false
	}
	// A key that collapses to its own value carries no information.
	return lowerAnimal != strings.ToLower(adjective)
}

func dedupKey(rec fauna.Record) [2]string {
	return [2]string{
		strings.ToLower(scrape.Normalize(rec.Animal)),
		strings.ToLower(scrape.Normalize(rec.Adjective)),
	}
}

// Group is one animal with all of its retained adjectives, for the report.
type Group struct {
	Animal     string
	PageTitle  string
	Adjectives []string
	LocalPath  string
}

// GroupByAnimal folds deduplicated records into per-animal groups sorted
// alphabetically, with adjectives in retained order. The first record seen
// for an animal supplies its page title and local image path.
func GroupByAnimal(records []fauna.Record) []Group {
	index := make(map[string]int)
	var groups []Group
	for _, rec := range records {
		key := strings.ToLower(rec.Animal)
		i, ok := index[key]
		if !ok {
			index[key] = len(groups)
			groups = append(groups, Group{
				Animal:    rec.Animal,
				PageTitle: rec.PageTitle,
				LocalPath: rec.LocalPath,
			})
			i = len(groups) - 1
		}
		groups[i].Adjectives = append(groups[i].Adjectives, rec.Adjective)
		if groups[i].LocalPath == "" {
			groups[i].LocalPath = rec.LocalPath
		}
	}
	sort.Slice(groups, func(a, b int) bool {
		return strings.ToLower(groups[a].Animal) < strings.ToLower(groups[b].Animal)
	})
	return groups
}
