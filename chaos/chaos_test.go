package chaos

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/railcache/railcache/pkg/backend"
)

func newInner(t *testing.T) *backend.MemoryBackend {
	t.Helper()
	mb := backend.NewMemoryBackend(backend.DefaultMemoryConfig())
	t.Cleanup(func() { mb.Close() })
	return mb
}

func TestPartitioned_AllOperationsFail(t *testing.T) {
	b := Partitioned(newInner(t))
	ctx := context.Background()

	_, _, err := b.Get(ctx, "key")
	assert.ErrorIs(t, err, backend.ErrUnavailable)

	assert.ErrorIs(t, b.Set(ctx, "key", []byte("v"), time.Minute), backend.ErrUnavailable)
	assert.ErrorIs(t, b.Delete(ctx, "key"), backend.ErrUnavailable)
	assert.ErrorIs(t, b.Ping(ctx), backend.ErrUnavailable)

	_, err = b.Exists(ctx, "key")
	assert.ErrorIs(t, err, backend.ErrUnavailable)

	_, err = b.Increment(ctx, "key")
	assert.ErrorIs(t, err, backend.ErrUnavailable)

	assert.ErrorIs(t, b.Expire(ctx, "key", time.Minute), backend.ErrUnavailable)
}

func TestZeroProbability_PassesThrough(t *testing.T) {
	inner := newInner(t)
	b := New(inner, WithErrors(0.0))
	ctx := context.Background()

	require.NoError(t, b.Set(ctx, "key", []byte("value"), time.Minute))

	value, found, err := b.Get(ctx, "key")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("value"), value)
}

func TestLatencyInjection_DelaysOperations(t *testing.T) {
	b := New(newInner(t), WithLatency(20*time.Millisecond, 30*time.Millisecond, 1.0))

	start := time.Now()
	_ = b.Ping(context.Background())
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 20*time.Millisecond)
}

func TestLatencyInjection_RespectsCancellation(t *testing.T) {
	b := New(newInner(t), WithLatency(5*time.Second, 10*time.Second, 1.0))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := b.Ping(ctx)
	elapsed := time.Since(start)

	assert.ErrorIs(t, err, backend.ErrUnavailable)
	assert.Less(t, elapsed, time.Second, "Canceled operations must not wait out the full injected delay")
}

func TestCondition_DisablesChaos(t *testing.T) {
	b := New(newInner(t),
		WithErrors(1.0),
		WithCondition(func() bool { return false }),
	)

	assert.NoError(t, b.Ping(context.Background()))
}

func TestFlaky_EventuallyFailsAndSucceeds(t *testing.T) {
	b := New(newInner(t), WithErrors(0.5))
	ctx := context.Background()

	failures, successes := 0, 0
	for i := 0; i < 200; i++ {
		if err := b.Ping(ctx); err != nil {
			failures++
		} else {
			successes++
		}
	}

	assert.Greater(t, failures, 0, "Injection probability 0.5 should produce failures")
	assert.Greater(t, successes, 0, "Injection probability 0.5 should let some calls through")
}
