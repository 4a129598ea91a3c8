package lookup

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"faunascraper/internal/metrics"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		BaseURL:   srv.URL + "/summary/",
		UserAgent: "faunascraper-test",
		Timeout:   2 * time.Second,
	}, nil)
}

func TestImageURLReturnsThumbnailSource(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/summary/Lion", r.URL.Path)
		require.Equal(t, "faunascraper-test", r.Header.Get("User-Agent"))
		w.Write([]byte(`{"thumbnail":{"source":"https://img.example/lion.jpg"}}`))
	})

	got, err := c.ImageURL(context.Background(), "Lion")
	require.NoError(t, err)
	require.Equal(t, "https://img.example/lion.jpg", got)
}

func TestImageURLEscapesTitle(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/summary/Gray%20wolf", r.URL.EscapedPath())
		w.Write([]byte(`{}`))
	})

	_, err := c.ImageURL(context.Background(), "Gray wolf")
	require.NoError(t, err)
}

func TestImageURLNoThumbnail(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"title":"Lion"}`))
	})

	got, err := c.ImageURL(context.Background(), "Lion")
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestImageURLNotModifiedMeansNoImage(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotModified)
	})

	got, err := c.ImageURL(context.Background(), "Lion")
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestImageURLErrorStatus(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.ImageURL(context.Background(), "Lion")
	require.Error(t, err)
}

// scrapedValue reads one sample off the live metrics endpoint.
func scrapedValue(t *testing.T, sample string) float64 {
	t.Helper()
	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	for _, line := range strings.Split(rec.Body.String(), "\n") {
		if !strings.HasPrefix(line, sample+" ") {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimPrefix(line, sample+" "), 64)
		require.NoError(t, err)
		return v
	}
	return 0
}

// Deliberately not parallel: it compares scrape deltas on the shared
// registry, so no other lookup may run concurrently.
func TestImageURLRecordsLookupResults(t *testing.T) {
	hits := scrapedValue(t, `faunascraper_lookup_requests_total{result="hit"}`)
	misses := scrapedValue(t, `faunascraper_lookup_requests_total{result="miss"}`)
	errors := scrapedValue(t, `faunascraper_lookup_requests_total{result="error"}`)

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/summary/Lion":
			w.Write([]byte(`{"thumbnail":{"source":"https://img.example/lion.jpg"}}`))
		case "/summary/Dog":
			w.Write([]byte(`{"title":"Dog"}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	})

	_, err := c.ImageURL(context.Background(), "Lion")
	require.NoError(t, err)
	_, err = c.ImageURL(context.Background(), "Dog")
	require.NoError(t, err)
	_, err = c.ImageURL(context.Background(), "Unknown")
	require.Error(t, err)

	require.Equal(t, hits+1, scrapedValue(t, `faunascraper_lookup_requests_total{result="hit"}`))
	require.Equal(t, misses+1, scrapedValue(t, `faunascraper_lookup_requests_total{result="miss"}`))
	require.Equal(t, errors+1, scrapedValue(t, `faunascraper_lookup_requests_total{result="error"}`))
}

func TestImageURLEmptyTitle(t *testing.T) {
	t.Parallel()

	c := NewClient(Config{BaseURL: "http://unused.invalid/"}, nil)
	got, err := c.ImageURL(context.Background(), "")
	require.NoError(t, err)
	require.Empty(t, got)
}
