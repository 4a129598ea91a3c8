// Package app initializes and holds long-lived application services, acting
// as a dependency injection container for the scrape pipeline.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"faunascraper/internal/config"
	"faunascraper/internal/download"
	"faunascraper/internal/logging"
	"faunascraper/internal/lookup"
	"faunascraper/internal/metrics"
	"faunascraper/internal/page"
	"faunascraper/internal/progress"
	"faunascraper/internal/report"
	"faunascraper/internal/retry"
	"faunascraper/internal/scrape"
)

// App holds the shared, long-lived services for one scraper process. It is
// initialized once at startup and handed to the command that runs the
// pipeline.
type App struct {
	cfg           config.Config
	logger        *zap.Logger
	source        *page.Source
	lookupClient  *lookup.Client
	extractor     *scrape.Extractor
	downloader    *download.Downloader
	reportWriter  *report.Writer
	hub           *progress.Hub
	metricsServer *metrics.Server
}

// New wires every service from the loaded configuration. It fails fast when
// any service cannot be built.
func New(cfg config.Config) (*App, error) {
	logger, err := logging.New(cfg.Logging.Development, cfg.Logging.File)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	sinks := []progress.Sink{progress.NewLogSink(logging.ForStage(logger, "progress"))}
	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		metrics.Init()
		promSink, err := progress.NewPrometheusSink(nil)
		if err != nil {
			return nil, fmt.Errorf("init prometheus sink: %w", err)
		}
		sinks = append(sinks, promSink)
		metricsServer = metrics.NewServer(cfg.Metrics.Port, logging.ForStage(logger, "metrics"))
	}
	hub := progress.NewHub(progress.HubConfig{Logger: logger}, sinks...)

	source := page.NewSource(page.Config{
		UserAgent: cfg.Source.UserAgent,
		Timeout:   cfg.SourceTimeout(),
		Retry:     retryPolicy(cfg.Source.MaxRetries, cfg.Source.BackoffInitialMs, cfg.Source.BackoffMaxMs),
	}, logging.ForStage(logger, "source"))

	lookupClient := lookup.NewClient(lookup.Config{
		BaseURL:           ensureTrailingSlash(cfg.Lookup.BaseURL),
		UserAgent:         cfg.Source.UserAgent,
		Timeout:           cfg.LookupTimeout(),
		RequestsPerSecond: cfg.Lookup.RequestsPerSecond,
	}, logging.ForStage(logger, "lookup"))

	extractor := scrape.NewExtractor(lookupClient, logging.ForStage(logger, "extract"))

	downloader := download.New(download.Config{
		Dir:           cfg.Download.Dir,
		MaxConcurrent: cfg.Download.MaxConcurrent,
		Timeout:       cfg.DownloadTimeout(),
		MaxBytes:      cfg.Download.MaxImageBytes,
		UserAgent:     cfg.Source.UserAgent,
		Retry:         retryPolicy(cfg.Download.MaxRetries, cfg.Download.BackoffInitialMs, cfg.Download.BackoffMaxMs),
	}, logging.ForStage(logger, "download"), hub)

	reportWriter, err := report.New(report.Config{
		OutputPath: cfg.Report.OutputPath,
		Title:      cfg.Report.Title,
	}, logging.ForStage(logger, "report"))
	if err != nil {
		return nil, fmt.Errorf("init report writer: %w", err)
	}

	return &App{
		cfg:           cfg,
		logger:        logger,
		source:        source,
		lookupClient:  lookupClient,
		extractor:     extractor,
		downloader:    downloader,
		reportWriter:  reportWriter,
		hub:           hub,
		metricsServer: metricsServer,
	}, nil
}

// Config returns the loaded configuration.
func (a *App) Config() config.Config { return a.cfg }

// Logger returns the shared zap logger.
func (a *App) Logger() *zap.Logger { return a.logger }

// Source returns the page fetcher.
func (a *App) Source() *page.Source { return a.source }

// Extractor returns the table extractor.
func (a *App) Extractor() *scrape.Extractor { return a.extractor }

// Downloader returns the image downloader.
func (a *App) Downloader() *download.Downloader { return a.downloader }

// ReportWriter returns the HTML report writer.
func (a *App) ReportWriter() *report.Writer { return a.reportWriter }

// Hub returns the progress hub.
func (a *App) Hub() *progress.Hub { return a.hub }

// StartMetrics begins serving /metrics when metrics are enabled.
func (a *App) StartMetrics() {
	if a.metricsServer != nil {
		a.metricsServer.Start()
	}
}

// Close shuts services down in reverse dependency order and flushes the
// logger. Called by a Cobra hook after the command finishes.
func (a *App) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.hub.Close(ctx); err != nil {
		a.logger.Warn("progress hub close failed", zap.Error(err))
	}
	if a.metricsServer != nil {
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			a.logger.Warn("metrics server shutdown failed", zap.Error(err))
		}
	}
	// Sync failures on stderr sinks are expected on some platforms.
	_ = a.logger.Sync()
}

func retryPolicy(maxAttempts, initialMs, maxMs int) retry.Policy {
	p := retry.DefaultPolicy()
	if maxAttempts > 0 {
		p.MaxAttempts = maxAttempts
	}
	if initialMs > 0 {
		p.BaseDelay = time.Duration(initialMs) * time.Millisecond
	}
	if maxMs > 0 {
		p.MaxDelay = time.Duration(maxMs) * time.Millisecond
	}
	return p
}

func ensureTrailingSlash(s string) string {
	if s == "" || strings.HasSuffix(s, "/") {
		return s
	}
	return s + "/"
}
