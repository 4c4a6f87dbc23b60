package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crobledo/plinth/retry"
)

var errTransient = errors.New("connection refused")

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	t.Parallel()

	attempts := 0
	policy := retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}

	err := policy.Do(context.Background(), func(context.Context) error {
		attempts++
		return nil
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
}

func TestDo_RecoversOnThirdAttempt(t *testing.T) {
	t.Parallel()

	attempts := 0
	policy := retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}

	err := policy.Do(context.Background(), func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errTransient
		}
		return nil
	}, func(err error) bool { return errors.Is(err, errTransient) })

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	t.Parallel()

	attempts := 0
	policy := retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}

	err := policy.Do(context.Background(), func(context.Context) error {
		attempts++
		return errTransient
	}, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, 3, attempts)
}

func TestDo_NonRetryableStopsImmediately(t *testing.T) {
	t.Parallel()

	permanent := errors.New("syntax error")
	attempts := 0
	policy := retry.Policy{MaxAttempts: 5, BaseDelay: time.Millisecond}

	err := policy.Do(context.Background(), func(context.Context) error {
		attempts++
		return permanent
	}, func(err error) bool { return errors.Is(err, errTransient) })

	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, attempts)
}

func TestDo_ExponentialDelaySequence(t *testing.T) {
	t.Parallel()

	var delays []time.Duration
	policy := retry.Policy{
		MaxAttempts: 4,
		BaseDelay:   time.Millisecond,
		Multiplier:  2,
		OnRetry: func(_ int, _ error, delay time.Duration) {
			delays = append(delays, delay)
		},
	}

	_ = policy.Do(context.Background(), func(context.Context) error {
		return errTransient
	}, nil)

	// base * multiplier^(attempt-1)
	assert.Equal(t, []time.Duration{
		time.Millisecond,
		2 * time.Millisecond,
		4 * time.Millisecond,
	}, delays)
}

func TestDo_ContextCancelDuringBackoff(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	attempts := 0
	policy := retry.Policy{MaxAttempts: 5, BaseDelay: time.Second}

	err := policy.Do(ctx, func(context.Context) error {
		attempts++
		return errTransient
	}, nil)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, 1, attempts)
}

func TestDo_ZeroAttemptsRunsOnce(t *testing.T) {
	t.Parallel()

	attempts := 0
	policy := retry.Policy{}

	err := policy.Do(context.Background(), func(context.Context) error {
		attempts++
		return errTransient
	}, nil)

	assert.Error(t, err)
	assert.Equal(t, 1, attempts)
}
