// Package retry implements an explicit retry policy with exponential
// backoff. Callers supply the retryable-error predicate, so the policy owns
// scheduling only, not error classification.
package retry

import (
	"context"
	"fmt"
	"time"
)

// Policy controls how Do schedules attempts.
type Policy struct {
	// MaxAttempts is the total attempt ceiling including the first call.
	MaxAttempts int
	// BaseDelay is the wait before the second attempt.
	BaseDelay time.Duration
	// Multiplier scales the delay after every failed attempt (default 2).
	Multiplier float64
	// MaxDelay caps the backoff; zero means uncapped.
	MaxDelay time.Duration
	// Retryable reports whether an error is worth another attempt. A nil
	// predicate retries everything.
	Retryable func(error) bool
}

// DefaultPolicy mirrors the download subsystem defaults: up to three
// attempts, one-second base delay, doubling.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		Multiplier:  2,
	}
}

// Do invokes fn until it succeeds, the policy is exhausted, the error is
// classified permanent, or ctx is done. The returned error is the last one
// fn produced, wrapped with the attempt count when retries were exhausted.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	multiplier := p.Multiplier
	if multiplier <= 0 {
		multiplier = 2
	}

	delay := p.BaseDelay
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(lastErr) {
			return lastErr
		}
		if attempt == attempts {
			break
		}
		if err := sleep(ctx, delay); err != nil {
			return err
		}
		delay = time.Duration(float64(delay) * multiplier)
		if p.MaxDelay > 0 && delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}
	return fmt.Errorf("after %d attempts: %w", attempts, lastErr)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
