package helpers

import (
	"context"
	"time"
)

// MaxRetryDelay caps the doubling backoff used by Retry.
const MaxRetryDelay = 10 * time.Second

// Retry calls fn up to attempts times, sleeping delay between tries and
// doubling it up to MaxRetryDelay. onRetry, if set, sees every failure that
// will be retried. Returns the last error, or ctx.Err() if ctx ends first.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func(context.Context) error, onRetry func(attempt int, err error)) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 1; i <= attempts; i++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if i == attempts {
			break
		}
		if onRetry != nil {
			onRetry(i, err)
		}
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		delay *= 2
		if delay > MaxRetryDelay {
			delay = MaxRetryDelay
		}
	}
	return err
}
