package middleware

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/railcache/railcache/pkg/backend"
)

// downBackend fails every data operation but answers Ping, matching a
// store that is up yet rejecting commands.
type downBackend struct {
	backend.Backend
}

func newDownBackend(t *testing.T) *downBackend {
	t.Helper()
	mem := backend.NewMemoryBackend(nil)
	t.Cleanup(func() { mem.Close() })
	return &downBackend{Backend: mem}
}

func (d *downBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, fmt.Errorf("%w: connection refused", backend.ErrUnavailable)
}

func TestCircuitBreakerOpensAfterFailures(t *testing.T) {
	ctx := context.Background()

	var transitions []string
	cb := NewCircuitBreaker(newDownBackend(t),
		WithMinRequests(5),
		WithFailureThreshold(0.5),
		WithOnStateChange(func(from, to State) {
			transitions = append(transitions, fmt.Sprintf("%s->%s", from, to))
		}),
	)

	require.Equal(t, StateClosed, cb.GetState())

	for i := 0; i < 5; i++ {
		_, _, err := cb.Get(ctx, "trainset:TS-001")
		assert.ErrorIs(t, err, backend.ErrUnavailable)
	}

	assert.Equal(t, StateOpen, cb.GetState(), "circuit should open once the failure rate crosses the threshold")
	assert.Equal(t, []string{"Closed->Open"}, transitions)

	// While open, calls fail fast without touching the backend.
	_, _, err := cb.Get(ctx, "trainset:TS-001")
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.ErrorIs(t, err, backend.ErrUnavailable, "fast failures must still look unavailable to callers")
}

func TestCircuitBreakerStaysClosedUnderMinRequests(t *testing.T) {
	ctx := context.Background()

	cb := NewCircuitBreaker(newDownBackend(t), WithMinRequests(10))

	for i := 0; i < 9; i++ {
		cb.Get(ctx, "trainset:TS-001")
	}

	assert.Equal(t, StateClosed, cb.GetState(), "too few samples to trip the circuit")
}

func TestCircuitBreakerRecoversThroughHalfOpen(t *testing.T) {
	ctx := context.Background()

	mem := backend.NewMemoryBackend(nil)
	defer mem.Close()
	flaky := &flakyBackend{Backend: mem, failures: 5}

	cb := NewCircuitBreaker(flaky,
		WithMinRequests(5),
		WithFailureThreshold(0.5),
		WithTimeout(10*time.Millisecond),
		WithSuccessThreshold(1),
	)

	for i := 0; i < 5; i++ {
		cb.Get(ctx, "schedule:2025-07-01")
	}
	require.Equal(t, StateOpen, cb.GetState())

	// After the cool-down a trial request is admitted. The backend
	// has recovered, so the trial closes the circuit.
	time.Sleep(15 * time.Millisecond)

	_, _, err := cb.Get(ctx, "schedule:2025-07-01")
	require.NoError(t, err)
	assert.Equal(t, StateClosed, cb.GetState(), "successful trial request should close the circuit")
}

func TestCircuitBreakerReopensOnFailedTrial(t *testing.T) {
	ctx := context.Background()

	cb := NewCircuitBreaker(newDownBackend(t),
		WithMinRequests(5),
		WithFailureThreshold(0.5),
		WithTimeout(10*time.Millisecond),
	)

	for i := 0; i < 5; i++ {
		cb.Get(ctx, "k")
	}
	require.Equal(t, StateOpen, cb.GetState())

	time.Sleep(15 * time.Millisecond)

	_, _, err := cb.Get(ctx, "k")
	assert.ErrorIs(t, err, backend.ErrUnavailable)
	assert.Equal(t, StateOpen, cb.GetState(), "failed trial request should reopen the circuit")
}

func TestCircuitBreakerPingBypassesBreaker(t *testing.T) {
	ctx := context.Background()

	cb := NewCircuitBreaker(newDownBackend(t),
		WithMinRequests(1),
		WithFailureThreshold(0.1),
	)

	cb.Get(ctx, "k")
	require.Equal(t, StateOpen, cb.GetState())

	assert.NoError(t, cb.Ping(ctx), "health checks must reach the backend even while open")
}

func TestCircuitBreakerReset(t *testing.T) {
	ctx := context.Background()

	cb := NewCircuitBreaker(newDownBackend(t), WithMinRequests(1), WithFailureThreshold(0.1))
	cb.Get(ctx, "k")
	require.Equal(t, StateOpen, cb.GetState())

	cb.Reset()
	assert.Equal(t, StateClosed, cb.GetState())
	assert.Equal(t, Counts{}, cb.GetCounts(), "reset should clear the window counters")
}

func TestCircuitBreakerMiddlewareShape(t *testing.T) {
	mem := backend.NewMemoryBackend(nil)
	defer mem.Close()

	wrapped := CircuitBreakerMiddleware()(mem)
	_, ok := wrapped.(*CircuitBreaker)
	require.True(t, ok)

	assert.NoError(t, wrapped.Set(context.Background(), "k", []byte("v"), 0))
}
