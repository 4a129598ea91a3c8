// Package lookup resolves page titles to thumbnail image URLs via the
// Wikipedia REST page-summary endpoint.
package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"faunascraper/internal/metrics"
)

// Config controls the summary client.
type Config struct {
	// BaseURL is the summary endpoint prefix, e.g.
	// "https://en.wikipedia.org/api/rest_v1/page/summary/".
	BaseURL string
	// UserAgent identifies the scraper to the API.
	UserAgent string
	// Timeout bounds a single summary request.
	Timeout time.Duration
	// RequestsPerSecond throttles API calls; zero disables throttling.
	RequestsPerSecond float64
}

// Client implements fauna.Lookup against the REST summary API. Construct one
// per run; it carries no cross-run state.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// summaryPayload is the subset of the summary response we read.
type summaryPayload struct {
	Thumbnail struct {
		Source string `json:"source"`
	} `json:"thumbnail"`
}

// NewClient builds a Client.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: limiter,
		logger:  logger,
	}
}

// ImageURL fetches the page summary and returns its thumbnail source, or ""
// when the page has none. A 304 Not Modified from the API is treated as "no
// locator available" rather than an error; we deliberately do not attempt to
// reuse a previously cached locator on 304 (see DESIGN.md).
func (c *Client) ImageURL(ctx context.Context, pageTitle string) (string, error) {
	if pageTitle == "" {
		return "", nil
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			metrics.ObserveLookup("error")
			return "", fmt.Errorf("lookup rate limit wait: %w", err)
		}
	}

	endpoint := c.cfg.BaseURL + url.PathEscape(pageTitle)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		metrics.ObserveLookup("error")
		return "", fmt.Errorf("build summary request: %w", err)
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ObserveLookup("error")
		return "", fmt.Errorf("summary request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified:
		c.logger.Debug("summary not modified, treating as no image", zap.String("page", pageTitle))
		metrics.ObserveLookup("miss")
		return "", nil
	case resp.StatusCode != http.StatusOK:
		metrics.ObserveLookup("error")
		return "", fmt.Errorf("summary request for %q: unexpected status %d", pageTitle, resp.StatusCode)
	}

	var payload summaryPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		metrics.ObserveLookup("error")
		return "", fmt.Errorf("decode summary for %q: %w", pageTitle, err)
	}
	if payload.Thumbnail.Source == "" {
		c.logger.Debug("no thumbnail for page", zap.String("page", pageTitle))
		metrics.ObserveLookup("miss")
		return "", nil
	}
	metrics.ObserveLookup("hit")
	return payload.Thumbnail.Source, nil
}
