// Package fauna defines the core data model shared by the extraction,
// processing, and download stages, plus the interfaces each stage consumes.
package fauna

import (
	"context"
	"sync/atomic"
)

// Record is one extracted animal/adjective fact. Animal and Adjective are
// normalized, non-empty text; PageTitle and ImageURL are optional and empty
// when the source row carried no link or the lookup found no thumbnail.
type Record struct {
	Animal    string
	Adjective string
	PageTitle string
	ImageURL  string
	LocalPath string
}

// FetchTask is one unit of work for the image downloader.
type FetchTask struct {
	Key string
	URL string
}

// ReasonCode classifies how a FetchTask terminated.
type ReasonCode string

// Terminal fetch reasons. Every FetchOutcome carries exactly one.
const (
	ReasonOK             ReasonCode = "ok"
	ReasonSkippedExists  ReasonCode = "skipped_exists"
	ReasonBadContentType ReasonCode = "bad_content_type"
	ReasonTooLarge       ReasonCode = "too_large"
	ReasonEmptyBody      ReasonCode = "empty_body"
	ReasonHTTPError      ReasonCode = "http_error"
	ReasonTimeout        ReasonCode = "timeout"
	ReasonCanceled       ReasonCode = "canceled"
	ReasonWriteFailed    ReasonCode = "write_failed"
)

// FetchOutcome is the single terminal result of a FetchTask.
type FetchOutcome struct {
	Key       string
	URL       string
	OK        bool
	Reason    ReasonCode
	LocalPath string
	Bytes     int64
}

// Lookup resolves a page title to an image URL. Implementations return
// ("", nil) when no image is available; errors are advisory and callers
// treat them as "no locator".
type Lookup interface {
	ImageURL(ctx context.Context, pageTitle string) (string, error)
}

// DownloadStats aggregates cross-worker counters. Counts are observability
// only; nothing branches on them.
type DownloadStats struct {
	Attempted int64
	Succeeded int64
	Failed    int64
	Skipped   int64
}

// StatCounters is the concurrency-safe accumulator workers write to.
type StatCounters struct {
	attempted atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64
	skipped   atomic.Int64
}

// Attempt records one task entering the download path.
func (c *StatCounters) Attempt() { c.attempted.Add(1) }

// Success records a completed download.
func (c *StatCounters) Success() { c.succeeded.Add(1) }

// Failure records a terminal failure.
func (c *StatCounters) Failure() { c.failed.Add(1) }

// Skip records an idempotent skip of an already-present file.
func (c *StatCounters) Skip() { c.skipped.Add(1) }

// Snapshot returns a point-in-time copy of the counters.
func (c *StatCounters) Snapshot() DownloadStats {
	return DownloadStats{
		Attempted: c.attempted.Load(),
		Succeeded: c.succeeded.Load(),
		Failed:    c.failed.Load(),
		Skipped:   c.skipped.Load(),
	}
}
