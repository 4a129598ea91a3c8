package app_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"faunascraper/internal/app"
	"faunascraper/internal/config"
)

func baseConfig() config.Config {
	return config.Config{
		Source: config.SourceConfig{
			URL:            "https://example.org/animals",
			UserAgent:      "fauna-test",
			TimeoutSeconds: 5,
		},
		Lookup: config.LookupConfig{
			BaseURL:        "https://example.org/summary",
			TimeoutSeconds: 5,
		},
		Download: config.DownloadConfig{
			Dir:           "tmp-test",
			MaxConcurrent: 2,
			MaxImageBytes: 1024,
		},
		Report: config.ReportConfig{OutputPath: "report-test.html"},
	}
}

func TestNewWiresAllServices(t *testing.T) {
	a, err := app.New(baseConfig())
	require.NoError(t, err)
	t.Cleanup(a.Close)

	require.NotNil(t, a.Logger())
	require.NotNil(t, a.Source())
	require.NotNil(t, a.Extractor())
	require.NotNil(t, a.Downloader())
	require.NotNil(t, a.ReportWriter())
	require.NotNil(t, a.Hub())
	require.Equal(t, "https://example.org/animals", a.Config().Source.URL)
}

func TestCloseIsSafeWithoutMetrics(t *testing.T) {
	a, err := app.New(baseConfig())
	require.NoError(t, err)

	// StartMetrics is a no-op when metrics are disabled.
	a.StartMetrics()
	a.Close()
}
