// Package download retrieves record images with bounded parallelism,
// per-task retry with exponential backoff, and content-type/size
// enforcement. It is the sole writer to the configured download directory.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"faunascraper/internal/fauna"
	"faunascraper/internal/metrics"
	"faunascraper/internal/pool"
	"faunascraper/internal/progress"
	"faunascraper/internal/retry"
)

const copyChunkSize = 8 * 1024

// Permanent failure sentinels; anything matching these is never retried.
var (
	errBadContentType = errors.New("response is not an image")
	errTooLarge       = errors.New("image exceeds size ceiling")
	errEmptyBody      = errors.New("downloaded file is empty")
)

// statusError marks an HTTP status failure and whether it is transient.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.code)
}

func (e *statusError) transient() bool {
	return e.code == http.StatusTooManyRequests || e.code >= 500
}

// Config controls the Downloader.
type Config struct {
	// Dir is the download directory; the Downloader owns this namespace
	// for the duration of a run.
	Dir string
	// MaxConcurrent caps in-flight downloads.
	MaxConcurrent int
	// Timeout bounds one task end to end, across all its attempts.
	Timeout time.Duration
	// MaxBytes is the image size ceiling, enforced against the declared
	// length and again while streaming.
	MaxBytes int64
	// UserAgent identifies the scraper to image hosts.
	UserAgent string
	// Retry schedules attempts after transient failures.
	Retry retry.Policy
}

// Downloader runs FetchTasks through a bounded worker pool.
type Downloader struct {
	cfg      Config
	client   *http.Client
	logger   *zap.Logger
	emitter  progress.Emitter
	counters fauna.StatCounters
}

// New builds a Downloader. emitter may be nil.
func New(cfg Config, logger *zap.Logger, emitter progress.Emitter) *Downloader {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 10
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 15 * 1024 * 1024
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Downloader{
		cfg:     cfg,
		client:  &http.Client{},
		logger:  logger,
		emitter: emitter,
	}
}

// TasksFromRecords builds the task list: one task per distinct destination
// file, first record wins. The dedup key is the derived file name rather
// than the raw (key, locator) pair because sanitizing lowercases the key:
// "Lion" and "lion" survive record dedup separately but land on the same
// path, and two pooled writers on one file interleave their bodies. One
// task per destination keeps one writer per path.
func TasksFromRecords(records []fauna.Record) []fauna.FetchTask {
	seen := make(map[string]struct{}, len(records))
	var tasks []fauna.FetchTask
	for _, rec := range records {
		if rec.ImageURL == "" {
			continue
		}
		name := FileName(rec.Animal, rec.ImageURL)
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		tasks = append(tasks, fauna.FetchTask{Key: rec.Animal, URL: rec.ImageURL})
	}
	return tasks
}

// Run executes every task and returns exactly one outcome per task, matched
// by task identity regardless of completion order. Cancelling ctx stops
// issuing new tasks; in-flight tasks drain under their own timeout.
func (d *Downloader) Run(ctx context.Context, tasks []fauna.FetchTask) []fauna.FetchOutcome {
	if err := os.MkdirAll(d.cfg.Dir, 0o755); err != nil {
		d.logger.Error("create download dir failed", zap.String("dir", d.cfg.Dir), zap.Error(err))
		outcomes := make([]fauna.FetchOutcome, len(tasks))
		for i, task := range tasks {
			outcomes[i] = d.failure(task, fauna.ReasonWriteFailed)
		}
		return outcomes
	}

	d.logger.Info("starting downloads",
		zap.Int("tasks", len(tasks)),
		zap.Int("workers", d.cfg.MaxConcurrent),
	)

	outcomes := pool.Map(ctx, d.cfg.MaxConcurrent, tasks, d.runTask)

	// Tasks the pool never issued (run canceled) come back as zero values;
	// they still owe their caller a terminal outcome.
	for i, out := range outcomes {
		if out.Reason == "" {
			outcomes[i] = d.failure(tasks[i], fauna.ReasonCanceled)
		}
	}

	stats := d.counters.Snapshot()
	d.logger.Info("downloads finished",
		zap.Int64("attempted", stats.Attempted),
		zap.Int64("succeeded", stats.Succeeded),
		zap.Int64("failed", stats.Failed),
		zap.Int64("skipped", stats.Skipped),
	)
	return outcomes
}

// Stats returns a snapshot of the observability counters.
func (d *Downloader) Stats() fauna.DownloadStats {
	return d.counters.Snapshot()
}

func (d *Downloader) runTask(ctx context.Context, task fauna.FetchTask) fauna.FetchOutcome {
	start := time.Now()
	metrics.DownloadStarted()
	defer metrics.DownloadFinished()
	d.emit(progress.Event{Stage: progress.StageFetchStart, Key: task.Key, URL: task.URL})

	outcome := d.fetchOne(ctx, task)

	d.emit(progress.Event{
		Stage:  progress.StageFetchDone,
		Key:    task.Key,
		URL:    task.URL,
		Reason: outcome.Reason,
		Bytes:  outcome.Bytes,
		Dur:    time.Since(start),
	})
	metrics.ObserveDownload(string(outcome.Reason), outcome.Bytes)
	return outcome
}

func (d *Downloader) fetchOne(parent context.Context, task fauna.FetchTask) fauna.FetchOutcome {
	d.counters.Attempt()

	dest := LocalPath(d.cfg.Dir, task.Key, task.URL)
	if info, err := os.Stat(dest); err == nil && info.Size() > 0 {
		d.counters.Skip()
		d.logger.Debug("image already present", zap.String("path", dest))
		return fauna.FetchOutcome{
			Key:       task.Key,
			URL:       task.URL,
			OK:        true,
			Reason:    fauna.ReasonSkippedExists,
			LocalPath: dest,
			Bytes:     info.Size(),
		}
	}

	// One timeout covers all attempts, so a stalled host cannot pin a
	// worker past its budget.
	ctx, cancel := context.WithTimeout(parent, d.cfg.Timeout)
	defer cancel()

	policy := d.cfg.Retry
	policy.Retryable = retryable

	var written int64
	err := policy.Do(ctx, func(ctx context.Context) error {
		n, attemptErr := d.attempt(ctx, task.URL, dest)
		written = n
		return attemptErr
	})
	if err != nil {
		d.counters.Failure()
		reason := classify(err)
		d.logger.Warn("download failed",
			zap.String("key", task.Key),
			zap.String("url", task.URL),
			zap.String("reason", string(reason)),
			zap.Error(err),
		)
		return d.failure(task, reason)
	}

	d.counters.Success()
	d.logger.Debug("download complete",
		zap.String("key", task.Key),
		zap.String("path", dest),
		zap.Int64("bytes", written),
	)
	return fauna.FetchOutcome{
		Key:       task.Key,
		URL:       task.URL,
		OK:        true,
		Reason:    fauna.ReasonOK,
		LocalPath: dest,
		Bytes:     written,
	}
}

// attempt performs a single GET and streams the body to dest, enforcing the
// content-type and size rules. On any failure the partial file is removed.
func (d *Downloader) attempt(ctx context.Context, rawURL, dest string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	if d.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", d.cfg.UserAgent)
	}
	req.Header.Set("Accept", "image/webp,image/apng,image/*,*/*;q=0.8")

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("get image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, &statusError{code: resp.StatusCode}
	}
	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	if !strings.HasPrefix(contentType, "image/") {
		return 0, fmt.Errorf("content type %q: %w", contentType, errBadContentType)
	}
	if resp.ContentLength > d.cfg.MaxBytes {
		return 0, fmt.Errorf("declared length %d: %w", resp.ContentLength, errTooLarge)
	}

	written, err := d.streamToFile(resp.Body, dest)
	if err != nil {
		return 0, err
	}
	if written == 0 {
		os.Remove(dest)
		return 0, errEmptyBody
	}
	return written, nil
}

// streamToFile copies body to dest in chunks, aborting and deleting the
// partial file the moment the ceiling is crossed. The ceiling applies even
// when no length header was present.
func (d *Downloader) streamToFile(body io.Reader, dest string) (int64, error) {
	f, err := os.Create(dest)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", dest, err)
	}

	var written int64
	buf := make([]byte, copyChunkSize)
	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			written += int64(n)
			if written > d.cfg.MaxBytes {
				f.Close()
				os.Remove(dest)
				return 0, fmt.Errorf("streamed %d bytes: %w", written, errTooLarge)
			}
			if _, writeErr := f.Write(buf[:n]); writeErr != nil {
				f.Close()
				os.Remove(dest)
				return 0, fmt.Errorf("write %s: %w", dest, writeErr)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			f.Close()
			os.Remove(dest)
			return 0, fmt.Errorf("read body: %w", readErr)
		}
	}
	if err := f.Close(); err != nil {
		os.Remove(dest)
		return 0, fmt.Errorf("close %s: %w", dest, err)
	}
	return written, nil
}

func (d *Downloader) failure(task fauna.FetchTask, reason fauna.ReasonCode) fauna.FetchOutcome {
	return fauna.FetchOutcome{Key: task.Key, URL: task.URL, Reason: reason}
}

func (d *Downloader) emit(evt progress.Event) {
	if d.emitter == nil {
		return
	}
	evt.TS = time.Now().UTC()
	d.emitter.Emit(evt)
}

// retryable classifies transport timeouts, 429, and 5xx as worth another
// attempt; everything else fails immediately.
func retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.transient()
	}
	if errors.Is(err, errBadContentType) || errors.Is(err, errTooLarge) || errors.Is(err, errEmptyBody) {
		return false
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	// Unclassified transport errors get the benefit of the doubt.
	return !errors.Is(err, context.Canceled)
}

func classify(err error) fauna.ReasonCode {
	switch {
	case errors.Is(err, errBadContentType):
		return fauna.ReasonBadContentType
	case errors.Is(err, errTooLarge):
		return fauna.ReasonTooLarge
	case errors.Is(err, errEmptyBody):
		return fauna.ReasonEmptyBody
	case errors.Is(err, context.DeadlineExceeded):
		return fauna.ReasonTimeout
	case errors.Is(err, context.Canceled):
		return fauna.ReasonCanceled
	}
	var se *statusError
	if errors.As(err, &se) {
		return fauna.ReasonHTTPError
	}
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return fauna.ReasonWriteFailed
	}
	return fauna.ReasonHTTPError
}

// MergeOutcomes copies local paths from successful outcomes back onto the
// records whose key/locator derives the same destination file. Matching on
// the file name keeps records whose task was collapsed away (case-variant
// keys) pointing at the file that was actually written.
func MergeOutcomes(records []fauna.Record, outcomes []fauna.FetchOutcome) []fauna.Record {
	byName := make(map[string]string, len(outcomes))
	for _, out := range outcomes {
		if out.OK && out.LocalPath != "" {
			byName[filepath.Base(out.LocalPath)] = out.LocalPath
		}
	}
	merged := make([]fauna.Record, len(records))
	for i, rec := range records {
		if rec.ImageURL != "" {
			if path, ok := byName[FileName(rec.Animal, rec.ImageURL)]; ok {
				rec.LocalPath = path
			}
		}
		merged[i] = rec
	}
	return merged
}
