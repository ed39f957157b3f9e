package middleware

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/railcache/railcache/pkg/backend"
)

// Retry wraps a backend and re-issues operations that fail with a
// transient error, using exponential backoff. Only errors matching
// backend.ErrUnavailable are retried; anything else is returned as-is.
type Retry struct {
	inner backend.Backend

	maxAttempts       int
	initialBackoff    time.Duration
	maxBackoff        time.Duration
	backoffMultiplier float64
	jitter            bool
	onRetry           func(attempt int, err error, nextBackoff time.Duration)
}

// RetryOption configures a Retry backend
type RetryOption func(*Retry)

// WithMaxAttempts sets the maximum number of attempts per operation
// Default: 3
func WithMaxAttempts(n int) RetryOption {
	return func(r *Retry) {
		if n > 0 {
			r.maxAttempts = n
		}
	}
}

// WithInitialBackoff sets the initial backoff duration
// Default: 10ms
func WithInitialBackoff(d time.Duration) RetryOption {
	return func(r *Retry) {
		if d > 0 {
			r.initialBackoff = d
		}
	}
}

// WithMaxBackoff sets the maximum backoff duration
// Default: 500ms
func WithMaxBackoff(d time.Duration) RetryOption {
	return func(r *Retry) {
		if d > 0 {
			r.maxBackoff = d
		}
	}
}

// WithBackoffMultiplier sets the exponential backoff multiplier
// Default: 2.0 (doubles each retry)
func WithBackoffMultiplier(m float64) RetryOption {
	return func(r *Retry) {
		if m > 1.0 {
			r.backoffMultiplier = m
		}
	}
}

// WithJitter enables jitter to prevent thundering herd
// Default: true
func WithJitter(enabled bool) RetryOption {
	return func(r *Retry) {
		r.jitter = enabled
	}
}

// WithOnRetry sets a callback invoked before each retry attempt
func WithOnRetry(callback func(attempt int, err error, nextBackoff time.Duration)) RetryOption {
	return func(r *Retry) {
		r.onRetry = callback
	}
}

// NewRetry wraps a backend with retry logic. Backoffs default short
// since cache operations sit on the caller's hot path.
func NewRetry(inner backend.Backend, opts ...RetryOption) *Retry {
	r := &Retry{
		inner:             inner,
		maxAttempts:       3,
		initialBackoff:    10 * time.Millisecond,
		maxBackoff:        500 * time.Millisecond,
		backoffMultiplier: 2.0,
		jitter:            true,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// RetryMiddleware returns a middleware that wraps a backend with retry logic
func RetryMiddleware(opts ...RetryOption) func(backend.Backend) backend.Backend {
	return func(b backend.Backend) backend.Backend {
		return NewRetry(b, opts...)
	}
}

func (r *Retry) do(ctx context.Context, op func() error) error {
	var lastErr error

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err := op()
		if err == nil {
			return nil
		}

		lastErr = err

		if !errors.Is(err, backend.ErrUnavailable) {
			return err
		}

		if attempt >= r.maxAttempts {
			break
		}

		backoff := r.calculateBackoff(attempt)
		if r.onRetry != nil {
			r.onRetry(attempt, err, backoff)
		}

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return lastErr
}

// calculateBackoff uses exponential backoff with optional jitter
func (r *Retry) calculateBackoff(attempt int) time.Duration {
	backoff := float64(r.initialBackoff) * math.Pow(r.backoffMultiplier, float64(attempt-1))

	if backoff > float64(r.maxBackoff) {
		backoff = float64(r.maxBackoff)
	}

	if r.jitter {
		backoff = rand.Float64() * backoff
	}

	return time.Duration(backoff)
}

func (r *Retry) Get(ctx context.Context, key string) (data []byte, found bool, err error) {
	err = r.do(ctx, func() error {
		data, found, err = r.inner.Get(ctx, key)
		return err
	})
	return data, found, err
}

func (r *Retry) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return r.do(ctx, func() error {
		return r.inner.Set(ctx, key, data, ttl)
	})
}

func (r *Retry) Delete(ctx context.Context, key string) error {
	return r.do(ctx, func() error {
		return r.inner.Delete(ctx, key)
	})
}

func (r *Retry) Exists(ctx context.Context, key string) (found bool, err error) {
	err = r.do(ctx, func() error {
		found, err = r.inner.Exists(ctx, key)
		return err
	})
	return found, err
}

// Increment is not idempotent; a retry after an ambiguous failure can
// double-count. Acceptable for rate-limit counters, where overcounting
// only makes the limiter stricter.
func (r *Retry) Increment(ctx context.Context, key string) (value int64, err error) {
	err = r.do(ctx, func() error {
		value, err = r.inner.Increment(ctx, key)
		return err
	})
	return value, err
}

func (r *Retry) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return r.do(ctx, func() error {
		return r.inner.Expire(ctx, key, ttl)
	})
}

func (r *Retry) Ping(ctx context.Context) error {
	return r.do(ctx, func() error {
		return r.inner.Ping(ctx)
	})
}

func (r *Retry) Close() error {
	return r.inner.Close()
}
