package progress

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"faunascraper/internal/fauna"
)

// PrometheusSink exports download progress as Prometheus collectors.
type PrometheusSink struct {
	runsStarted   prometheus.Counter
	runsCompleted prometheus.Counter
	fetches       *prometheus.CounterVec
	fetchBytes    prometheus.Counter
	fetchDuration prometheus.Histogram
}

// NewPrometheusSink registers the collectors against reg (default registry
// when nil).
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PrometheusSink{
		runsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "faunascraper_runs_started_total",
			Help: "Total scrape runs started.",
		}),
		runsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "faunascraper_runs_completed_total",
			Help: "Total scrape runs completed.",
		}),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "faunascraper_image_fetches_total",
			Help: "Image fetch completions partitioned by terminal reason.",
		}, []string{"reason"}),
		fetchBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "faunascraper_image_bytes_total",
			Help: "Total image bytes downloaded.",
		}),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "faunascraper_image_fetch_duration_seconds",
			Help:    "Wall time per image fetch.",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		}),
	}
	for _, collector := range []prometheus.Collector{
		s.runsStarted,
		s.runsCompleted,
		s.fetches,
		s.fetchBytes,
		s.fetchDuration,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register progress collector: %w", err)
		}
	}
	return s, nil
}

// Consume folds the batch into the collectors.
func (s *PrometheusSink) Consume(_ context.Context, batch []Event) error {
	for _, evt := range batch {
		switch evt.Stage {
		case StageRunStart:
			s.runsStarted.Inc()
		case StageRunDone:
			s.runsCompleted.Inc()
		case StageFetchDone:
			reason := evt.Reason
			if reason == "" {
				reason = fauna.ReasonHTTPError
			}
			s.fetches.WithLabelValues(string(reason)).Inc()
			if evt.Bytes > 0 {
				s.fetchBytes.Add(float64(evt.Bytes))
			}
			if evt.Dur > 0 {
				s.fetchDuration.Observe(evt.Dur.Seconds())
			}
		}
	}
	return nil
}

// Close implements Sink; collectors stay registered for scrape endpoints
// that outlive the run.
func (s *PrometheusSink) Close(context.Context) error {
	return nil
}
