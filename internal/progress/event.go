// Package progress carries run and download milestone events from the
// pipeline to pluggable sinks (logs, Prometheus) without ever blocking the
// emitting worker.
package progress

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"faunascraper/internal/fauna"
)

// Stage denotes the milestone an Event represents.
type Stage string

// Supported stages.
const (
	StageRunStart   Stage = "RUN_START"
	StageRunDone    Stage = "RUN_DONE"
	StageFetchStart Stage = "FETCH_START"
	StageFetchDone  Stage = "FETCH_DONE"
)

// Event is a single progress milestone.
type Event struct {
	// RunID identifies the scrape run the event belongs to.
	RunID uuid.UUID
	// TS is the UTC timestamp recorded by the emitter.
	TS time.Time
	// Stage is the milestone kind.
	Stage Stage
	// Key scopes fetch events to the originating record key.
	Key string
	// URL is the locator being fetched, when applicable.
	URL string
	// Reason carries the terminal fetch reason for FETCH_DONE.
	Reason fauna.ReasonCode
	// Bytes is the downloaded size for FETCH_DONE.
	Bytes int64
	// Dur is the wall time of the stage, when meaningful.
	Dur time.Duration
	// Note attaches low-volume context such as error text.
	Note string
}

// Validate performs coarse checks before an event enters the hub.
func (e Event) Validate() error {
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Stage {
	case StageRunStart, StageRunDone:
	case StageFetchStart:
		if e.URL == "" {
			return errors.New("fetch start requires url")
		}
	case StageFetchDone:
		if e.Reason == "" {
			return errors.New("fetch done requires reason")
		}
	default:
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	if e.Dur < 0 {
		return errors.New("duration must be >= 0")
	}
	return nil
}

// Sink consumes batches of events. Implementations honor ctx deadlines and
// may be called from a single flushing goroutine only.
type Sink interface {
	Consume(ctx context.Context, batch []Event) error
	Close(ctx context.Context) error
}

// Emitter publishes individual events; Hub satisfies it so workers stay
// agnostic about buffering.
type Emitter interface {
	Emit(evt Event)
}
