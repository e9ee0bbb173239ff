package apperr

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"
)

// ErrRetryExhausted is wrapped into the error returned by [Retry] once every
// attempt has failed with a retryable error. The last underlying error is
// wrapped too, so errors.As still reaches it.
var ErrRetryExhausted = errors.New("agentgraph: all retry attempts exhausted")

// RetryOptions tunes [Retry]. Zero values are replaced with defaults.
type RetryOptions struct {
	// MaxRetries is the number of retries after the first failure.
	// Default: 3. A negative value disables retries.
	MaxRetries int

	// InitialDelay is the wait before the first retry. Default: 1s.
	InitialDelay time.Duration

	// MaxDelay caps the computed delay. Default: 30s.
	MaxDelay time.Duration

	// Multiplier is the exponential growth factor. Default: 2.
	Multiplier float64

	// JitterFraction adds up to JitterFraction * delay of random noise so
	// concurrent callers do not retry in lockstep. Default: 0.1. A negative
	// value disables jitter.
	JitterFraction float64

	// Retryable decides whether an error is retried. Default: [IsRetryable].
	Retryable func(error) bool

	// OnRetry, when set, is called before each wait.
	OnRetry func(attempt int, err error, delay time.Duration)
}

func (o *RetryOptions) applyDefaults() {
	if o.MaxRetries == 0 {
		o.MaxRetries = 3
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.InitialDelay == 0 {
		o.InitialDelay = time.Second
	}
	if o.MaxDelay == 0 {
		o.MaxDelay = 30 * time.Second
	}
	if o.Multiplier == 0 {
		o.Multiplier = 2
	}
	if o.JitterFraction == 0 {
		o.JitterFraction = 0.1
	}
	if o.JitterFraction < 0 {
		o.JitterFraction = 0
	}
	if o.Retryable == nil {
		o.Retryable = IsRetryable
	}
}

// Delay returns the wait before retry number attempt (0-indexed):
// min(InitialDelay * Multiplier^attempt, MaxDelay) + jitter.
func (o RetryOptions) Delay(attempt int) time.Duration {
	o.applyDefaults()
	delay := float64(o.InitialDelay) * math.Pow(o.Multiplier, float64(attempt))
	if delay > float64(o.MaxDelay) {
		delay = float64(o.MaxDelay)
	}
	jitter := delay * o.JitterFraction * rand.Float64() //nolint:gosec // non-cryptographic jitter
	return time.Duration(delay + jitter)
}

// Retry calls fn until it succeeds, returns a non-retryable error, or the
// retry budget is spent. Waits between attempts respect ctx cancellation.
func Retry[T any](ctx context.Context, opts RetryOptions, fn func(ctx context.Context) (T, error)) (T, error) {
	opts.applyDefaults()

	var zero T
	var lastErr error

	for attempt := 0; attempt <= opts.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := opts.Delay(attempt - 1)
			if opts.OnRetry != nil {
				opts.OnRetry(attempt, lastErr, delay)
			}
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(delay):
			}
		}

		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}

		lastErr = err
		if !opts.Retryable(err) {
			return zero, err
		}
	}

	if opts.MaxRetries == 0 {
		return zero, lastErr
	}
	return zero, fmt.Errorf("%w after %d retries: %w", ErrRetryExhausted, opts.MaxRetries, lastErr)
}
