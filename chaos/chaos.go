// Package chaos provides fault injection for cache backends. Wrapping a
// backend in chaos lets tests and drills verify that the cache fails open
// when the real backend turns slow, flaky or unreachable.
package chaos

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/railcache/railcache/pkg/backend"
)

// Config holds configuration for fault injection
type Config struct {
	// Latency injection
	LatencyEnabled     bool
	LatencyMin         time.Duration
	LatencyMax         time.Duration
	LatencyProbability float64

	// Error injection (operations fail with backend.ErrUnavailable)
	ErrorEnabled     bool
	ErrorProbability float64

	// Conditional enabling
	EnableCondition func() bool
}

// Option is a functional option for chaos configuration
type Option func(*Config)

// WithLatency enables latency injection
func WithLatency(min, max time.Duration, probability float64) Option {
	return func(c *Config) {
		c.LatencyEnabled = true
		c.LatencyMin = min
		c.LatencyMax = max
		c.LatencyProbability = probability
	}
}

// WithErrors enables unavailability injection
func WithErrors(probability float64) Option {
	return func(c *Config) {
		c.ErrorEnabled = true
		c.ErrorProbability = probability
	}
}

// WithCondition sets a condition for enabling chaos
func WithCondition(condition func() bool) Option {
	return func(c *Config) {
		c.EnableCondition = condition
	}
}

// Backend wraps another backend and injects faults before delegating
type Backend struct {
	inner  backend.Backend
	config *Config

	mu  sync.Mutex
	rng *rand.Rand
}

// New wraps a backend with fault injection
func New(inner backend.Backend, opts ...Option) *Backend {
	config := &Config{
		EnableCondition: func() bool { return true },
	}

	for _, opt := range opts {
		opt(config)
	}

	return &Backend{
		inner:  inner,
		config: config,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// inject applies configured faults. It returns an error when the operation
// should fail instead of reaching the inner backend.
func (b *Backend) inject(ctx context.Context) error {
	if !b.config.EnableCondition() {
		return nil
	}

	if b.config.LatencyEnabled && b.roll(b.config.LatencyProbability) {
		delay := b.randomDuration(b.config.LatencyMin, b.config.LatencyMax)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return backend.ErrUnavailable
		}
	}

	if b.config.ErrorEnabled && b.roll(b.config.ErrorProbability) {
		return backend.ErrUnavailable
	}

	return nil
}

// Get injects faults, then delegates
func (b *Backend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := b.inject(ctx); err != nil {
		return nil, false, err
	}
	return b.inner.Get(ctx, key)
}

// Set injects faults, then delegates
func (b *Backend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := b.inject(ctx); err != nil {
		return err
	}
	return b.inner.Set(ctx, key, value, ttl)
}

// Delete injects faults, then delegates
func (b *Backend) Delete(ctx context.Context, key string) error {
	if err := b.inject(ctx); err != nil {
		return err
	}
	return b.inner.Delete(ctx, key)
}

// Exists injects faults, then delegates
func (b *Backend) Exists(ctx context.Context, key string) (bool, error) {
	if err := b.inject(ctx); err != nil {
		return false, err
	}
	return b.inner.Exists(ctx, key)
}

// Increment injects faults, then delegates
func (b *Backend) Increment(ctx context.Context, key string) (int64, error) {
	if err := b.inject(ctx); err != nil {
		return 0, err
	}
	return b.inner.Increment(ctx, key)
}

// Expire injects faults, then delegates
func (b *Backend) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if err := b.inject(ctx); err != nil {
		return err
	}
	return b.inner.Expire(ctx, key, ttl)
}

// Ping injects faults, then delegates
func (b *Backend) Ping(ctx context.Context) error {
	if err := b.inject(ctx); err != nil {
		return err
	}
	return b.inner.Ping(ctx)
}

// Close closes the inner backend
func (b *Backend) Close() error {
	return b.inner.Close()
}

// roll determines if a fault should be injected based on probability
func (b *Backend) roll(probability float64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rng.Float64() < probability
}

// randomDuration returns a random duration between min and max
func (b *Backend) randomDuration(min, max time.Duration) time.Duration {
	if min >= max {
		return min
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return min + time.Duration(b.rng.Int63n(int64(max-min)))
}

// Presets for common fault scenarios

// Flaky simulates a flaky network with occasional latency and errors
func Flaky(inner backend.Backend, probability float64) *Backend {
	return New(inner,
		WithLatency(5*time.Millisecond, 50*time.Millisecond, probability),
		WithErrors(probability/2),
	)
}

// Partitioned simulates a network partition: every operation fails
func Partitioned(inner backend.Backend) *Backend {
	return New(inner, WithErrors(1.0))
}

// HighLatency simulates a saturated backend
func HighLatency(inner backend.Backend, probability float64) *Backend {
	return New(inner, WithLatency(500*time.Millisecond, 2*time.Second, probability))
}
