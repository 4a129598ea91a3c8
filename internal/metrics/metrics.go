// Package metrics exposes Prometheus collectors for the scraper and a small
// HTTP server for scraping them during long runs.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	recordsExtracted  prometheus.Counter
	recordsRejected   prometheus.Counter
	recordsDuplicate  prometheus.Counter
	downloadsTotal    *prometheus.CounterVec
	downloadBytes     prometheus.Counter
	lookupRequests    *prometheus.CounterVec
	activeDownloaders prometheus.Gauge

	once sync.Once
)

// Init registers the collectors. Safe to call multiple times.
func Init() {
	once.Do(func() {
		recordsExtracted = promauto.NewCounter(prometheus.CounterOpts{
			Name: "faunascraper_records_extracted_total",
			Help: "Raw records produced by the extraction stage.",
		})
		recordsRejected = promauto.NewCounter(prometheus.CounterOpts{
			Name: "faunascraper_records_rejected_total",
			Help: "Records dropped by validation.",
		})
		recordsDuplicate = promauto.NewCounter(prometheus.CounterOpts{
			Name: "faunascraper_records_duplicate_total",
			Help: "Records dropped as exact key/value duplicates.",
		})
		downloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "faunascraper_downloads_total",
			Help: "Image download terminations partitioned by reason.",
		}, []string{"reason"})
		downloadBytes = promauto.NewCounter(prometheus.CounterOpts{
			Name: "faunascraper_download_bytes_total",
			Help: "Total image bytes written to disk.",
		})
		lookupRequests = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "faunascraper_lookup_requests_total",
			Help: "Metadata lookup calls partitioned by result.",
		}, []string{"result"})
		activeDownloaders = promauto.NewGauge(prometheus.GaugeOpts{
			Name: "faunascraper_active_downloads",
			Help: "Downloads currently in flight.",
		})
	})
}

// ObserveExtraction records the sizes of one processing pass.
func ObserveExtraction(extracted, rejected, duplicates int) {
	Init()
	recordsExtracted.Add(float64(extracted))
	recordsRejected.Add(float64(rejected))
	recordsDuplicate.Add(float64(duplicates))
}

// ObserveDownload records one terminal download outcome.
func ObserveDownload(reason string, bytes int64) {
	Init()
	downloadsTotal.WithLabelValues(reason).Inc()
	if bytes > 0 {
		downloadBytes.Add(float64(bytes))
	}
}

// ObserveLookup records one metadata lookup result ("hit", "miss", "error").
func ObserveLookup(result string) {
	Init()
	lookupRequests.WithLabelValues(result).Inc()
}

// DownloadStarted increments the in-flight gauge.
func DownloadStarted() {
	Init()
	activeDownloaders.Inc()
}

// DownloadFinished decrements the in-flight gauge.
func DownloadFinished() {
	Init()
	activeDownloaders.Dec()
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
