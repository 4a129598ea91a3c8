// Package config loads and validates scraper configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all scraper configuration knobs loaded via Viper.
type Config struct {
	Source   SourceConfig   `mapstructure:"source"`
	Lookup   LookupConfig   `mapstructure:"lookup"`
	Download DownloadConfig `mapstructure:"download"`
	Report   ReportConfig   `mapstructure:"report"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// SourceConfig governs fetching and parsing of the listing page.
type SourceConfig struct {
	URL              string `mapstructure:"url"`
	UserAgent        string `mapstructure:"user_agent"`
	TimeoutSeconds   int    `mapstructure:"timeout_seconds"`
	MaxRetries       int    `mapstructure:"max_retries"`
	BackoffInitialMs int    `mapstructure:"backoff_initial_ms"`
	BackoffMaxMs     int    `mapstructure:"backoff_max_ms"`
}

// LookupConfig configures the page-metadata lookup client.
type LookupConfig struct {
	BaseURL           string  `mapstructure:"base_url"`
	TimeoutSeconds    int     `mapstructure:"timeout_seconds"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
}

// DownloadConfig governs the bounded-parallel image fetch stage.
type DownloadConfig struct {
	Dir              string `mapstructure:"dir"`
	MaxConcurrent    int    `mapstructure:"max_concurrent"`
	TimeoutSeconds   int    `mapstructure:"timeout_seconds"`
	MaxRetries       int    `mapstructure:"max_retries"`
	BackoffInitialMs int    `mapstructure:"backoff_initial_ms"`
	BackoffMaxMs     int    `mapstructure:"backoff_max_ms"`
	MaxImageBytes    int64  `mapstructure:"max_image_bytes"`
}

// ReportConfig controls the rendered HTML output.
type ReportConfig struct {
	OutputPath string `mapstructure:"output_path"`
	Title      string `mapstructure:"title"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// LoggingConfig toggles zap development features and the optional on-disk
// log file.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	File        string `mapstructure:"file"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FAUNA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("source.url", "https://en.wikipedia.org/wiki/List_of_animal_names")
	v.SetDefault("source.user_agent", "faunascraper/0.1")
	v.SetDefault("source.timeout_seconds", 15)
	v.SetDefault("source.max_retries", 3)
	v.SetDefault("source.backoff_initial_ms", 250)
	v.SetDefault("source.backoff_max_ms", 2000)
	v.SetDefault("lookup.base_url", "https://en.wikipedia.org/api/rest_v1/page/summary")
	v.SetDefault("lookup.timeout_seconds", 10)
	v.SetDefault("lookup.requests_per_second", 10)
	v.SetDefault("download.dir", "tmp")
	v.SetDefault("download.max_concurrent", 10)
	v.SetDefault("download.timeout_seconds", 30)
	v.SetDefault("download.max_retries", 3)
	v.SetDefault("download.backoff_initial_ms", 500)
	v.SetDefault("download.backoff_max_ms", 8000)
	v.SetDefault("download.max_image_bytes", 15*1024*1024)
	v.SetDefault("report.output_path", "report.html")
	v.SetDefault("report.title", "Animals and their Collateral Adjectives")
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.file", "")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Source.URL == "" {
		return fmt.Errorf("source.url must be set")
	}
	if c.Source.TimeoutSeconds <= 0 {
		return fmt.Errorf("source.timeout_seconds must be > 0")
	}
	if c.Lookup.BaseURL == "" {
		return fmt.Errorf("lookup.base_url must be set")
	}
	if c.Download.MaxConcurrent <= 0 {
		return fmt.Errorf("download.max_concurrent must be > 0")
	}
	if c.Download.MaxImageBytes <= 0 {
		return fmt.Errorf("download.max_image_bytes must be > 0")
	}
	if c.Metrics.Enabled && c.Metrics.Port <= 0 {
		return fmt.Errorf("metrics.port must be > 0 when metrics are enabled")
	}
	return nil
}

// SourceTimeout converts the source timeout into a duration.
func (c Config) SourceTimeout() time.Duration {
	return time.Duration(c.Source.TimeoutSeconds) * time.Second
}

// LookupTimeout converts the lookup timeout into a duration.
func (c Config) LookupTimeout() time.Duration {
	return time.Duration(c.Lookup.TimeoutSeconds) * time.Second
}

// DownloadTimeout converts the per-task download timeout into a duration.
func (c Config) DownloadTimeout() time.Duration {
	return time.Duration(c.Download.TimeoutSeconds) * time.Second
}
