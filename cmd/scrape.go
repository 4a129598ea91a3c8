package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"faunascraper/internal/download"
	"faunascraper/internal/metrics"
	"faunascraper/internal/process"
	"faunascraper/internal/progress"
	"faunascraper/internal/report"
)

// newScrapeCmd creates and configures the 'scrape' subcommand, which runs
// the full pipeline: fetch, extract, process, download, report.
func newScrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Runs one full scrape of the animal listing",
		Long: `Fetches the configured listing page, extracts animal/adjective pairs
from its qualifying tables, downloads each animal's image with bounded
parallelism, and writes the HTML report.`,

		RunE: runScrapeCommand,
	}
	return cmd
}

func runScrapeCommand(cmd *cobra.Command, _ []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	logger := appInstance.Logger()
	cfg := appInstance.Config()
	runID := uuid.New()
	started := time.Now()

	appInstance.StartMetrics()
	appInstance.Hub().Emit(progress.Event{
		RunID: runID,
		TS:    time.Now().UTC(),
		Stage: progress.StageRunStart,
		URL:   cfg.Source.URL,
	})

	logger.Info("scrape run starting",
		zap.String("run_id", runID.String()),
		zap.String("source", cfg.Source.URL),
	)

	// Unreachable source is the one fatal condition; everything after this
	// degrades per record instead of aborting the run.
	doc, err := appInstance.Source().Fetch(ctx, cfg.Source.URL)
	if err != nil {
		return fmt.Errorf("source page unavailable: %w", err)
	}

	raw := appInstance.Extractor().Extract(ctx, doc)
	records, stats := process.New(logger).Run(raw)
	metrics.ObserveExtraction(stats.Input, stats.Rejected, stats.Duplicates)
	if len(records) == 0 {
		logger.Warn("no usable records extracted; writing empty report")
	}

	tasks := download.TasksFromRecords(records)
	outcomes := appInstance.Downloader().Run(ctx, tasks)
	merged := download.MergeOutcomes(records, outcomes)

	groups := process.GroupByAnimal(merged)
	summary := report.SummaryFromOutcomes(outcomes)
	summary.SourceURL = cfg.Source.URL
	summary.Duration = time.Since(started).Round(time.Millisecond)

	path, err := appInstance.ReportWriter().Write(groups, summary)
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	appInstance.Hub().Emit(progress.Event{
		RunID: runID,
		TS:    time.Now().UTC(),
		Stage: progress.StageRunDone,
		Dur:   time.Since(started),
		Note:  fmt.Sprintf("animals=%d fetched=%d failed=%d", len(groups), summary.ImagesFetched, summary.ImagesFailed),
	})

	logger.Info("scrape run finished",
		zap.String("run_id", runID.String()),
		zap.Int("animals", len(groups)),
		zap.Int("adjectives", stats.Valid),
		zap.Int("images_fetched", summary.ImagesFetched),
		zap.Int("images_failed", summary.ImagesFailed),
		zap.String("report", path),
		zap.Duration("elapsed", summary.Duration),
	)
	return nil
}

func resolveApp(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}
