// Package pool runs a fixed-size worker pool over a slice of tasks. It is
// the one bounded-concurrency primitive in the repo; the downloader and any
// future fan-out reuse it instead of spawning ad-hoc goroutine groups.
package pool

import (
	"context"
	"sync"
)

// Map executes fn over every task with at most workers goroutines in flight
// and returns one result per task, positionally matched to the input. That
// keeps result identity independent of completion order.
//
// When ctx is canceled, queued tasks are not issued; fn still receives ctx
// for tasks already claimed, so in-flight work can drain or abort on its
// own. Map always returns a full-length slice; slots for tasks that were
// never issued hold the zero value of R and the caller decides what that
// means.
func Map[T, R any](ctx context.Context, workers int, tasks []T, fn func(ctx context.Context, task T) R) []R {
	if workers <= 0 {
		workers = 1
	}
	if workers > len(tasks) {
		workers = len(tasks)
	}

	results := make([]R, len(tasks))
	indices := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				results[i] = fn(ctx, tasks[i])
			}
		}()
	}

	for i := range tasks {
		select {
		case <-ctx.Done():
			close(indices)
			wg.Wait()
			return results
		case indices <- i:
		}
	}
	close(indices)
	wg.Wait()
	return results
}
