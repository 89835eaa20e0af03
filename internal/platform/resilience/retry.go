package resilience

import (
	"context"
	"time"
)

// RetryPolicy is a fixed attempt count with either a constant delay or a
// per-attempt backoff schedule. The last schedule entry repeats.
type RetryPolicy struct {
	Attempts int
	Delay    time.Duration
	Backoff  []time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 3, Delay: time.Second}
}

// DelayAfter returns the wait before the attempt that follows attempt (1-based).
func (p RetryPolicy) DelayAfter(attempt int) time.Duration {
	if len(p.Backoff) > 0 {
		idx := attempt - 1
		if idx < 0 {
			idx = 0
		}
		if idx >= len(p.Backoff) {
			idx = len(p.Backoff) - 1
		}
		return p.Backoff[idx]
	}
	if p.Delay < 0 {
		return 0
	}
	return p.Delay
}

func (p RetryPolicy) attempts() int {
	if p.Attempts < 1 {
		return 1
	}
	return p.Attempts
}

// Retry runs fn until it succeeds, retryable reports false, the attempts are
// exhausted or ctx is done. It returns the last error from fn.
func Retry(ctx context.Context, policy RetryPolicy, retryable func(error) bool, fn func(attempt int) error) error {
	var lastErr error
	total := policy.attempts()
	for attempt := 1; attempt <= total; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return lastErr
			}
			return err
		}

		lastErr = fn(attempt)
		if lastErr == nil {
			return nil
		}
		if retryable != nil && !retryable(lastErr) {
			return lastErr
		}
		if attempt == total {
			break
		}

		timer := time.NewTimer(policy.DelayAfter(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return lastErr
		case <-timer.C:
		}
	}
	return lastErr
}
