// Package retry provides a configurable retry mechanism for operations that may fail temporarily.
// It wraps the retry-go package from Avast and exposes a simple interface with functional
// options for customizing retry behavior.
//
// The package uses exponential backoff by default. Long-lived reconnect loops, such as the
// feed connection manager, switch to a fixed delay with unlimited attempts:
//
//	r := retry.New(
//	    retry.WithAttempts(0), // retry until the context ends
//	    retry.WithDelay(retryInterval),
//	    retry.WithFixedDelay(),
//	)
package retry

import (
	"context"
	"time"

	retry "github.com/avast/retry-go/v4"
)

// Retry defines the interface for retry operations.
type Retry interface {
	// Execute runs the given function with configured retry logic.
	//
	// The context allows for cancellation. If the context is canceled or times out,
	// the operation stops retrying and the context error is returned.
	//
	// Execute returns nil if the operation succeeds within the configured
	// number of attempts, or an error if all attempts fail or the context is done.
	Execute(ctx context.Context, operation func() error) error
}

// OnRetryFunc is invoked after every failed attempt that will be retried.
// attempt is zero-based.
type OnRetryFunc func(attempt uint, err error)

// config holds internal settings for the retry mechanism.
type config struct {
	attempts    uint          // maximum number of attempts, 0 means unlimited
	delay       time.Duration // base delay between attempts
	maxDelay    time.Duration // cap for exponential backoff
	fixed       bool          // use a constant delay instead of backoff
	lastErrOnly bool          // whether to return only the last error
	onRetry     OnRetryFunc   // optional hook called between attempts
}

// Option defines a functional option for configuring the retry mechanism.
type Option func(*config)

// retrier implements the Retry interface using the retry-go package.
type retrier struct {
	cfg config
}

// Compile-time assertion that retrier implements Retry interface
var _ Retry = (*retrier)(nil)

// New creates and returns a Retry implementation configured with
// the provided options.
//
// Default configuration:
//   - attempts:    3 (1 initial attempt + 2 retries)
//   - delay:       1 second
//   - maxDelay:    5 seconds
//   - delay type:  exponential backoff
//   - lastErrOnly: true
func New(opts ...Option) Retry {
	cfg := config{
		attempts:    3,
		delay:       1 * time.Second,
		maxDelay:    5 * time.Second,
		lastErrOnly: true,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &retrier{
		cfg: cfg,
	}
}

// Execute implements the Retry interface.
func (r *retrier) Execute(ctx context.Context, operation func() error) error {
	delayType, maxDelay := retry.BackOffDelay, r.cfg.maxDelay
	if r.cfg.fixed {
		// retry-go caps every delay at MaxDelay, fixed delays included.
		delayType, maxDelay = retry.FixedDelay, r.cfg.delay
	}

	options := []retry.Option{
		retry.Attempts(r.cfg.attempts),
		retry.Delay(r.cfg.delay),
		retry.MaxDelay(maxDelay),
		retry.DelayType(delayType),
		retry.LastErrorOnly(r.cfg.lastErrOnly),
		retry.Context(ctx),
	}

	if r.cfg.onRetry != nil {
		options = append(options, retry.OnRetry(retry.OnRetryFunc(r.cfg.onRetry)))
	}

	return retry.Do(operation, options...)
}

// WithAttempts sets the maximum number of attempts (including the initial attempt).
// Zero means retry until the operation succeeds or the context is done.
// Default: 3.
func WithAttempts(n uint) Option {
	return func(c *config) {
		c.attempts = n
	}
}

// WithDelay sets the base delay between retry attempts.
// Default: 1 second.
func WithDelay(d time.Duration) Option {
	return func(c *config) {
		c.delay = d
	}
}

// WithMaxDelay caps the exponential growth of the delay.
// Default: 5 seconds.
func WithMaxDelay(d time.Duration) Option {
	return func(c *config) {
		c.maxDelay = d
	}
}

// WithFixedDelay makes every retry wait exactly the configured delay.
func WithFixedDelay() Option {
	return func(c *config) {
		c.fixed = true
	}
}

// WithLastErrorOnly sets whether to return only the last error.
// When false, all errors from all attempts are combined.
// Default: true.
func WithLastErrorOnly(b bool) Option {
	return func(c *config) {
		c.lastErrOnly = b
	}
}

// WithOnRetry registers a hook called after each failed attempt that will be retried.
func WithOnRetry(f OnRetryFunc) Option {
	return func(c *config) {
		c.onRetry = f
	}
}
