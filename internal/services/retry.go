package services

import (
	"context"
	"errors"
	"time"

	"route-scheduling-service/internal/domain"
)

// retryPolicy bounds how often a Busy outcome is retried before it is
// surfaced to the caller.
type retryPolicy struct {
	Attempts int
	Backoff  time.Duration
}

func defaultRetryPolicy() retryPolicy {
	return retryPolicy{Attempts: 3, Backoff: 50 * time.Millisecond}
}

// withRetry runs fn, retrying ErrBusy with exponential backoff while
// respecting context cancellation. Every other outcome passes through
// untouched on the first occurrence.
func withRetry(ctx context.Context, policy retryPolicy, fn func() error) error {
	attempts := policy.Attempts
	if attempts < 1 {
		attempts = 1
	}
	backoff := policy.Backoff

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn()
		if lastErr == nil || !errors.Is(lastErr, domain.ErrBusy) {
			return lastErr
		}

		if attempt == attempts {
			break
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		backoff *= 2
	}

	return lastErr
}
