// Package page fetches the source document and hands it to the extraction
// stage as a parsed tree. Total unavailability of the source page is the one
// fatal precondition in the pipeline.
package page

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"faunascraper/internal/retry"
)

// Config controls the source fetcher.
type Config struct {
	UserAgent string
	Timeout   time.Duration
	Retry     retry.Policy
}

// Source fetches pages with colly and parses them with goquery.
type Source struct {
	cfg           Config
	baseCollector *colly.Collector
	logger        *zap.Logger
}

// NewSource builds a Source.
func NewSource(cfg Config, logger *zap.Logger) *Source {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := colly.NewCollector(colly.Async(false))
	c.WithTransport(newHTTPTransport())
	return &Source{cfg: cfg, baseCollector: c, logger: logger}
}

// Fetch retrieves url with the configured retry policy and returns the
// parsed document.
func (s *Source) Fetch(ctx context.Context, url string) (*goquery.Document, error) {
	var body []byte
	err := s.cfg.Retry.Do(ctx, func(ctx context.Context) error {
		fetched, err := s.fetchOnce(ctx, url)
		if err != nil {
			s.logger.Warn("source fetch attempt failed", zap.String("url", url), zap.Error(err))
			return err
		}
		body = fetched
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch source page %q: %w", url, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse source page %q: %w", url, err)
	}
	s.logger.Info("source page fetched", zap.String("url", url), zap.Int("bytes", len(body)))
	return doc, nil
}

func (s *Source) fetchOnce(ctx context.Context, url string) ([]byte, error) {
	collector := s.baseCollector.Clone()
	collector.IgnoreRobotsTxt = true
	collector.SetRequestTimeout(s.cfg.Timeout)
	if s.cfg.UserAgent != "" {
		collector.UserAgent = s.cfg.UserAgent
	}

	var (
		body     []byte
		fetchErr error
	)
	collector.OnResponse(func(r *colly.Response) {
		body = append([]byte(nil), r.Body...)
	})
	collector.OnError(func(_ *colly.Response, err error) {
		fetchErr = err
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("source fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return nil, fmt.Errorf("visit failed: %w", err)
		}
		if fetchErr != nil {
			return nil, fmt.Errorf("response failed: %w", fetchErr)
		}
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("empty response body")
	}
	return body, nil
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
