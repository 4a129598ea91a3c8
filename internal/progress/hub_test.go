package progress

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"faunascraper/internal/fauna"
)

type captureSink struct {
	mu     sync.Mutex
	events []Event
	closed bool
}

func (s *captureSink) Consume(_ context.Context, batch []Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, batch...)
	return nil
}

func (s *captureSink) Close(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *captureSink) snapshot() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

func fetchDone(key string) Event {
	return Event{
		RunID:  uuid.New(),
		TS:     time.Now().UTC(),
		Stage:  StageFetchDone,
		Key:    key,
		URL:    "https://img.example/" + key + ".jpg",
		Reason: fauna.ReasonOK,
		Bytes:  100,
		Dur:    time.Millisecond,
	}
}

func TestHubDeliversAllEventsOnClose(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	hub := NewHub(HubConfig{BufferSize: 128}, sink)

	for i := 0; i < 50; i++ {
		hub.Emit(fetchDone("lion"))
	}
	require.NoError(t, hub.Close(context.Background()))

	require.Len(t, sink.snapshot(), 50)
	require.True(t, sink.closed)
}

func TestHubDropsInvalidEvents(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	hub := NewHub(HubConfig{}, sink)

	hub.Emit(Event{Stage: StageFetchDone}) // no timestamp, no reason
	require.NoError(t, hub.Close(context.Background()))
	require.Empty(t, sink.snapshot())
}

func TestHubEmitAfterCloseIsNoop(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	hub := NewHub(HubConfig{}, sink)
	require.NoError(t, hub.Close(context.Background()))

	hub.Emit(fetchDone("lion"))
	require.Empty(t, sink.snapshot())
}

func TestEventValidate(t *testing.T) {
	t.Parallel()

	valid := fetchDone("dog")
	require.NoError(t, valid.Validate())

	missingReason := valid
	missingReason.Reason = ""
	require.Error(t, missingReason.Validate())

	unknown := valid
	unknown.Stage = "WAT"
	require.Error(t, unknown.Validate())

	start := Event{TS: time.Now(), Stage: StageFetchStart}
	require.Error(t, start.Validate())
	start.URL = "https://img.example/x.jpg"
	require.NoError(t, start.Validate())
}

func TestPrometheusSinkCounts(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	sink, err := NewPrometheusSink(reg)
	require.NoError(t, err)

	batch := []Event{
		{TS: time.Now(), Stage: StageRunStart},
		fetchDone("lion"),
		fetchDone("dog"),
		{TS: time.Now(), Stage: StageRunDone},
	}
	require.NoError(t, sink.Consume(context.Background(), batch))

	require.Equal(t, float64(1), testutil.ToFloat64(sink.runsStarted))
	require.Equal(t, float64(1), testutil.ToFloat64(sink.runsCompleted))
	require.Equal(t, float64(2), testutil.ToFloat64(sink.fetches.WithLabelValues(string(fauna.ReasonOK))))
	require.Equal(t, float64(200), testutil.ToFloat64(sink.fetchBytes))
}
