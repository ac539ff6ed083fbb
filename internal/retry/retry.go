package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

// DelayFunc computes the wait before the next attempt. attempt is 1-based
// and counts the attempt that just failed.
type DelayFunc func(attempt int) time.Duration

// Linear returns a delay function that waits attempt × base.
func Linear(base time.Duration) DelayFunc {
	return func(attempt int) time.Duration {
		return time.Duration(attempt) * base
	}
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }

func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as non-retryable: Do returns it immediately instead
// of burning the remaining attempts.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Do runs fn up to maxAttempts times, sleeping delay(attempt) between
// failures. It returns nil on the first success, the last error once
// attempts are exhausted, or the context error if ctx is canceled while
// waiting. An error wrapped with Permanent stops the loop at once.
func Do(ctx context.Context, maxAttempts int, delay DelayFunc, fn func() error) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		var perm *permanentError
		if errors.As(lastErr, &perm) {
			return perm.err
		}
		if attempt == maxAttempts {
			break
		}

		wait := delay(attempt)
		log.Warnf("Attempt %d/%d failed: %v (retrying in %v)", attempt, maxAttempts, lastErr, wait)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}

	return fmt.Errorf("all %d attempts failed: %w", maxAttempts, lastErr)
}
