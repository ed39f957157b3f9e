package middleware

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/railcache/railcache/pkg/backend"
)

// Circuit Breaker States
const (
	StateClosed   State = iota // Normal operation, calls pass through
	StateOpen                  // Circuit is open, calls fail immediately
	StateHalfOpen              // Testing if the backend has recovered
)

// State represents the current state of the circuit breaker
type State int

func (s State) String() string {
	switch s {
	case StateClosed:
		return "Closed"
	case StateOpen:
		return "Open"
	case StateHalfOpen:
		return "HalfOpen"
	default:
		return "Unknown"
	}
}

var (
	// ErrCircuitOpen is returned when the circuit breaker is open. It
	// wraps backend.ErrUnavailable so callers degrade the same way they
	// do for a direct backend failure.
	ErrCircuitOpen = fmt.Errorf("%w: circuit breaker is open", backend.ErrUnavailable)

	// ErrTooManyRequests is returned when the half-open request budget is spent
	ErrTooManyRequests = fmt.Errorf("%w: too many half-open requests", backend.ErrUnavailable)
)

// CircuitBreaker wraps a backend and stops sending it traffic once its
// failure rate crosses a threshold. While open, every call fails fast
// with ErrCircuitOpen instead of waiting out a timeout against a dead
// store. After a cool-down it lets a few trial requests through and closes
// again once they succeed.
type CircuitBreaker struct {
	inner backend.Backend

	mu sync.Mutex

	// Configuration
	maxRequests      uint32        // Max requests allowed in half-open state
	interval         time.Duration // Time window for counting failures
	timeout          time.Duration // Time to wait in open state before trying half-open
	failureThreshold float64       // Failure rate that trips the circuit (0.0-1.0)
	successThreshold uint32        // Consecutive successes needed to close from half-open
	minRequests      uint32        // Minimum requests in a window before the circuit can trip

	// State tracking
	state          State
	generation     uint64
	stateChangedAt time.Time

	// Counters
	counts           Counts
	halfOpenRequests uint32

	// Callbacks
	onStateChange func(from, to State)
	isFailure     func(err error) bool
}

// Counts holds the statistics for the circuit breaker
type Counts struct {
	Requests             uint32
	TotalSuccesses       uint32
	TotalFailures        uint32
	ConsecutiveSuccesses uint32
	ConsecutiveFailures  uint32
}

// CircuitBreakerOption configures a CircuitBreaker
type CircuitBreakerOption func(*CircuitBreaker)

// WithMaxRequests sets the maximum number of requests allowed in half-open state
func WithMaxRequests(n uint32) CircuitBreakerOption {
	return func(cb *CircuitBreaker) {
		cb.maxRequests = n
	}
}

// WithInterval sets the time window for counting failures
func WithInterval(d time.Duration) CircuitBreakerOption {
	return func(cb *CircuitBreaker) {
		cb.interval = d
	}
}

// WithTimeout sets the time to wait in open state before half-open
func WithTimeout(d time.Duration) CircuitBreakerOption {
	return func(cb *CircuitBreaker) {
		cb.timeout = d
	}
}

// WithFailureThreshold sets the failure rate threshold
func WithFailureThreshold(threshold float64) CircuitBreakerOption {
	return func(cb *CircuitBreaker) {
		if threshold > 0 && threshold <= 1.0 {
			cb.failureThreshold = threshold
		}
	}
}

// WithSuccessThreshold sets the consecutive successes needed to close
func WithSuccessThreshold(n uint32) CircuitBreakerOption {
	return func(cb *CircuitBreaker) {
		cb.successThreshold = n
	}
}

// WithMinRequests sets the minimum request count before the circuit can trip
func WithMinRequests(n uint32) CircuitBreakerOption {
	return func(cb *CircuitBreaker) {
		cb.minRequests = n
	}
}

// WithOnStateChange sets a callback for state changes
func WithOnStateChange(fn func(from, to State)) CircuitBreakerOption {
	return func(cb *CircuitBreaker) {
		cb.onStateChange = fn
	}
}

// WithIsFailure sets a custom function to determine if an error counts as a failure
func WithIsFailure(fn func(err error) bool) CircuitBreakerOption {
	return func(cb *CircuitBreaker) {
		cb.isFailure = fn
	}
}

// NewCircuitBreaker wraps a backend with a circuit breaker using default settings
func NewCircuitBreaker(inner backend.Backend, opts ...CircuitBreakerOption) *CircuitBreaker {
	cb := &CircuitBreaker{
		inner:            inner,
		maxRequests:      1,
		interval:         60 * time.Second,
		timeout:          30 * time.Second,
		failureThreshold: 0.6,
		successThreshold: 1,
		minRequests:      10,
		state:            StateClosed,
		stateChangedAt:   time.Now(),
		isFailure:        defaultIsFailure,
	}

	for _, opt := range opts {
		opt(cb)
	}

	return cb
}

// CircuitBreakerMiddleware returns a middleware that wraps a backend
// with a circuit breaker
func CircuitBreakerMiddleware(opts ...CircuitBreakerOption) func(backend.Backend) backend.Backend {
	return func(b backend.Backend) backend.Backend {
		return NewCircuitBreaker(b, opts...)
	}
}

// defaultIsFailure counts backend unavailability as a failure. A miss,
// a nil error, or a caller-side error like context cancellation does
// not trip the circuit.
func defaultIsFailure(err error) bool {
	return err != nil && errors.Is(err, backend.ErrUnavailable)
}

func (cb *CircuitBreaker) do(op func() error) error {
	generation, err := cb.beforeRequest()
	if err != nil {
		return err
	}

	err = op()
	cb.afterRequest(generation, err)

	return err
}

// beforeRequest checks if the call is allowed based on circuit breaker state
func (cb *CircuitBreaker) beforeRequest() (uint64, error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := time.Now()
	state, generation := cb.currentState(now)

	if state == StateOpen {
		return generation, ErrCircuitOpen
	}

	if state == StateHalfOpen {
		if cb.halfOpenRequests >= cb.maxRequests {
			return generation, ErrTooManyRequests
		}
		cb.halfOpenRequests++
	}

	cb.counts.Requests++
	return generation, nil
}

// afterRequest records the result of a call
func (cb *CircuitBreaker) afterRequest(generation uint64, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := time.Now()
	state, currentGeneration := cb.currentState(now)

	// Ignore if generation doesn't match (state changed during the call)
	if generation != currentGeneration {
		return
	}

	if cb.isFailure(err) {
		cb.counts.TotalFailures++
		cb.counts.ConsecutiveFailures++
		cb.counts.ConsecutiveSuccesses = 0

		if state == StateHalfOpen {
			// Failed during half-open, go back to open
			cb.setState(StateOpen, now)
		} else if state == StateClosed {
			if cb.shouldOpen() {
				cb.setState(StateOpen, now)
			}
		}
	} else {
		cb.counts.TotalSuccesses++
		cb.counts.ConsecutiveSuccesses++
		cb.counts.ConsecutiveFailures = 0

		if state == StateHalfOpen {
			if cb.counts.ConsecutiveSuccesses >= cb.successThreshold {
				cb.setState(StateClosed, now)
			}
		}
	}
}

// currentState returns the current state and generation
func (cb *CircuitBreaker) currentState(now time.Time) (State, uint64) {
	switch cb.state {
	case StateClosed:
		// Check if interval has expired, reset counts
		if cb.interval > 0 && now.Sub(cb.stateChangedAt) > cb.interval {
			cb.resetCounts()
		}
	case StateOpen:
		// Check if timeout has expired, transition to half-open
		if now.Sub(cb.stateChangedAt) >= cb.timeout {
			cb.setState(StateHalfOpen, now)
		}
	}

	return cb.state, cb.generation
}

// shouldOpen determines if the circuit should open based on failure rate
func (cb *CircuitBreaker) shouldOpen() bool {
	if cb.counts.Requests < cb.minRequests {
		return false
	}

	failureRate := float64(cb.counts.TotalFailures) / float64(cb.counts.Requests)
	return failureRate >= cb.failureThreshold
}

// setState changes the circuit breaker state
func (cb *CircuitBreaker) setState(newState State, now time.Time) {
	if cb.state == newState {
		return
	}

	oldState := cb.state
	cb.state = newState
	cb.stateChangedAt = now
	cb.generation++

	cb.resetCounts()

	if newState == StateHalfOpen {
		cb.halfOpenRequests = 0
	}

	if cb.onStateChange != nil {
		cb.onStateChange(oldState, newState)
	}
}

// resetCounts resets all counters
func (cb *CircuitBreaker) resetCounts() {
	cb.counts = Counts{}
}

// GetState returns the current circuit breaker state
func (cb *CircuitBreaker) GetState() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	state, _ := cb.currentState(time.Now())
	return state
}

// GetCounts returns the current circuit breaker counts
func (cb *CircuitBreaker) GetCounts() Counts {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return cb.counts
}

// Reset manually resets the circuit breaker to closed state
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.setState(StateClosed, time.Now())
}

func (cb *CircuitBreaker) Get(ctx context.Context, key string) (data []byte, found bool, err error) {
	err = cb.do(func() error {
		data, found, err = cb.inner.Get(ctx, key)
		return err
	})
	return data, found, err
}

func (cb *CircuitBreaker) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return cb.do(func() error {
		return cb.inner.Set(ctx, key, data, ttl)
	})
}

func (cb *CircuitBreaker) Delete(ctx context.Context, key string) error {
	return cb.do(func() error {
		return cb.inner.Delete(ctx, key)
	})
}

func (cb *CircuitBreaker) Exists(ctx context.Context, key string) (found bool, err error) {
	err = cb.do(func() error {
		found, err = cb.inner.Exists(ctx, key)
		return err
	})
	return found, err
}

func (cb *CircuitBreaker) Increment(ctx context.Context, key string) (value int64, err error) {
	err = cb.do(func() error {
		value, err = cb.inner.Increment(ctx, key)
		return err
	})
	return value, err
}

func (cb *CircuitBreaker) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return cb.do(func() error {
		return cb.inner.Expire(ctx, key, ttl)
	})
}

// Ping bypasses the breaker so health checks can observe the real
// backend even while the circuit is open.
func (cb *CircuitBreaker) Ping(ctx context.Context) error {
	return cb.inner.Ping(ctx)
}

func (cb *CircuitBreaker) Close() error {
	return cb.inner.Close()
}
