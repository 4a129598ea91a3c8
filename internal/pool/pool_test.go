package pool

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMapReturnsResultsInTaskOrder(t *testing.T) {
	t.Parallel()

	tasks := []int{5, 4, 3, 2, 1, 0}
	got := Map(context.Background(), 3, tasks, func(_ context.Context, n int) int {
		// Later tasks finish first, exercising out-of-order completion.
		time.Sleep(time.Duration(n) * time.Millisecond)
		return n * 10
	})

	require.Equal(t, []int{50, 40, 30, 20, 10, 0}, got)
}

func TestMapBoundsConcurrency(t *testing.T) {
	t.Parallel()

	const workers = 4
	var active, peak atomic.Int64
	var mu sync.Mutex

	tasks := make([]int, 64)
	Map(context.Background(), workers, tasks, func(_ context.Context, _ int) struct{} {
		cur := active.Add(1)
		mu.Lock()
		if cur > peak.Load() {
			peak.Store(cur)
		}
		mu.Unlock()
		time.Sleep(time.Millisecond)
		active.Add(-1)
		return struct{}{}
	})

	require.LessOrEqual(t, peak.Load(), int64(workers))
}

func TestMapStopsIssuingOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	var started atomic.Int64

	tasks := make([]int, 100)
	results := Map(ctx, 1, tasks, func(_ context.Context, _ int) int {
		if started.Add(1) == 3 {
			cancel()
		}
		return 1
	})

	require.Len(t, results, 100)
	require.Less(t, started.Load(), int64(100))
}

func TestMapEmptyAndZeroWorkers(t *testing.T) {
	t.Parallel()

	require.Empty(t, Map(context.Background(), 0, nil, func(_ context.Context, _ int) int { return 0 }))

	got := Map(context.Background(), 0, []int{7}, func(_ context.Context, n int) int { return n })
	require.Equal(t, []int{7}, got)
}
