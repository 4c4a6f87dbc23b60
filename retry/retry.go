// Package retry provides a small policy object for bounded retries with
// exponential backoff. Policies are fixed per call site: the strategy that
// owns an operation decides its attempt budget and delays, not the caller.
package retry

import (
	"context"
	"errors"
	"time"
)

// Policy describes a bounded retry sequence. The delay before attempt n+1
// is BaseDelay * Multiplier^(n-1). A Policy is a read-only value; it is
// never mutated during a retry sequence.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	// Values below 1 are treated as 1.
	MaxAttempts int
	// BaseDelay is the sleep before the first retry.
	BaseDelay time.Duration
	// Multiplier scales the delay after each failed attempt. Values at or
	// below zero default to 2.
	Multiplier float64
	// OnRetry, when set, is called before each backoff sleep with the
	// attempt that just failed, its error, and the upcoming delay.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// Do runs op, retrying while retryable reports the returned error as
// recoverable and attempts remain. The backoff sleep blocks the calling
// goroutine but is cut short by context cancellation. A nil retryable
// retries every error. The last error is returned once attempts are
// exhausted or a non-retryable error is seen.
func (p Policy) Do(ctx context.Context, op func(context.Context) error, retryable func(error) bool) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	multiplier := p.Multiplier
	if multiplier <= 0 {
		multiplier = 2
	}

	delay := p.BaseDelay
	var err error
	for attempt := 1; ; attempt++ {
		if err = op(ctx); err == nil {
			return nil
		}
		if retryable != nil && !retryable(err) {
			return err
		}
		if attempt >= attempts {
			return err
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, err, delay)
		}
		if sleepErr := sleep(ctx, delay); sleepErr != nil {
			return errors.Join(err, sleepErr)
		}
		delay = time.Duration(float64(delay) * multiplier)
	}
}

// sleep blocks for d or until ctx is done, whichever comes first.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
