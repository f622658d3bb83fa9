package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetry_Execute(t *testing.T) {
	t.Run("successful operation", func(t *testing.T) {
		r := New()
		callCount := 0

		err := r.Execute(t.Context(), func() error {
			callCount++
			return nil
		})

		assert.NoError(t, err)
		assert.Equal(t, 1, callCount, "operation should be called exactly once")
	})

	t.Run("retry until success", func(t *testing.T) {
		r := New(WithAttempts(3), WithDelay(time.Millisecond))
		callCount := 0

		err := r.Execute(t.Context(), func() error {
			callCount++
			if callCount < 2 {
				return errors.New("temporary error")
			}
			return nil
		})

		assert.NoError(t, err)
		assert.Equal(t, 2, callCount, "operation should be called exactly twice")
	})

	t.Run("retry exhausted returns the last error", func(t *testing.T) {
		r := New(
			WithAttempts(3),
			WithDelay(time.Millisecond),
			WithMaxDelay(5*time.Millisecond),
		)
		callCount := 0
		expectedErr := errors.New("persistent error")

		err := r.Execute(t.Context(), func() error {
			callCount++
			return expectedErr
		})

		assert.ErrorIs(t, err, expectedErr)
		assert.Equal(t, 3, callCount, "operation should be called exactly 3 times")
	})

	t.Run("unlimited attempts stop when the context ends", func(t *testing.T) {
		r := New(WithAttempts(0), WithDelay(5*time.Millisecond), WithFixedDelay())

		ctx, cancel := context.WithTimeout(t.Context(), 60*time.Millisecond)
		defer cancel()

		callCount := 0
		err := r.Execute(ctx, func() error {
			callCount++
			return errors.New("dial refused")
		})

		assert.Error(t, err)
		assert.Greater(t, callCount, 3, "operation should keep being retried until the deadline")
	})

	t.Run("fixed delay is not capped by the backoff max delay", func(t *testing.T) {
		delay := 30 * time.Millisecond
		r := New(WithAttempts(3), WithDelay(delay), WithMaxDelay(time.Millisecond), WithFixedDelay())

		var attempts []time.Time
		_ = r.Execute(t.Context(), func() error {
			attempts = append(attempts, time.Now())
			return errors.New("boom")
		})

		require.Len(t, attempts, 3)
		for i := 1; i < len(attempts); i++ {
			assert.GreaterOrEqual(t, attempts[i].Sub(attempts[i-1]), delay)
		}
	})

	t.Run("on retry hook sees every retried failure", func(t *testing.T) {
		var seen []uint
		r := New(
			WithAttempts(3),
			WithDelay(time.Millisecond),
			WithOnRetry(func(attempt uint, err error) {
				seen = append(seen, attempt)
			}),
		)

		_ = r.Execute(t.Context(), func() error {
			return errors.New("boom")
		})

		require.NotEmpty(t, seen)
		assert.Equal(t, uint(0), seen[0], "attempts are reported zero-based")
	})
}

func TestNew(t *testing.T) {
	r := New().(*retrier)

	assert.Equal(t, uint(3), r.cfg.attempts)
	assert.Equal(t, time.Second, r.cfg.delay)
	assert.Equal(t, 5*time.Second, r.cfg.maxDelay)
	assert.False(t, r.cfg.fixed)
	assert.True(t, r.cfg.lastErrOnly)
	assert.Nil(t, r.cfg.onRetry)
}

func TestOptions(t *testing.T) {
	cfg := &config{}

	WithAttempts(0)(cfg)
	WithDelay(2 * time.Second)(cfg)
	WithMaxDelay(10 * time.Second)(cfg)
	WithFixedDelay()(cfg)
	WithLastErrorOnly(false)(cfg)

	assert.Equal(t, uint(0), cfg.attempts)
	assert.Equal(t, 2*time.Second, cfg.delay)
	assert.Equal(t, 10*time.Second, cfg.maxDelay)
	assert.True(t, cfg.fixed)
	assert.False(t, cfg.lastErrOnly)
}
