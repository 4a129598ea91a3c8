// Package cmd defines and implements the CLI commands for the faunascraper
// executable.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"faunascraper/internal/app"
	"faunascraper/internal/config"
	"faunascraper/internal/download"
	"faunascraper/internal/page"
	"faunascraper/internal/progress"
	"faunascraper/internal/report"
	"faunascraper/internal/scrape"
)

var cfgFile string

// appKeyType is the key for storing the App in the command context.
type appKeyType string

const appKey appKeyType = "app"

// App is the slice of the application container the commands use. Keeping it
// an interface lets tests inject a fake.
type App interface {
	Close()
	Config() config.Config
	Logger() *zap.Logger
	Source() *page.Source
	Extractor() *scrape.Extractor
	Downloader() *download.Downloader
	ReportWriter() *report.Writer
	Hub() *progress.Hub
	StartMetrics()
}

// newApp is the application factory, a variable so tests can replace it.
var newApp = func() (App, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return app.New(cfg)
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "faunascraper",
		Short: "Extracts animals and their collateral adjectives from the source listing.",
		Long: `faunascraper fetches the animal-names listing page, extracts every
animal together with its collateral adjectives, downloads the animal
images with bounded parallelism, and renders the result as a single
HTML report.`,

		// Runs after flags are parsed and before the subcommand's RunE, so
		// every subcommand finds a fully wired container in its context.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := newApp()
			if err != nil {
				return fmt.Errorf("initialize application services: %w", err)
			}
			ctx := context.WithValue(cmd.Context(), appKey, appInstance)
			cmd.SetContext(ctx)
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if appInstance, ok := cmd.Context().Value(appKey).(App); ok && appInstance != nil {
				appInstance.Close()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is built-in defaults plus FAUNA_* env vars)")

	cmd.AddCommand(newScrapeCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
