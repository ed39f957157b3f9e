package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/railcache/railcache"
	"github.com/railcache/railcache/chaos"
	"github.com/railcache/railcache/pkg/backend"
)

func newService(t *testing.T, b backend.Backend) *railcache.Service {
	t.Helper()
	if b == nil {
		mb := backend.NewMemoryBackend(backend.DefaultMemoryConfig())
		t.Cleanup(func() { mb.Close() })
		b = mb
	}
	return railcache.New(b)
}

func TestLimiter_AllowsWithinBudget(t *testing.T) {
	svc := newService(t, nil)
	limiter := New(svc, "api", 5, time.Minute)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		assert.True(t, limiter.Allow(ctx, "client-1"), "Call %d should be within budget", i+1)
	}

	assert.False(t, limiter.Allow(ctx, "client-1"), "Sixth call should exceed the budget")
}

func TestLimiter_SubjectsHaveIndependentBudgets(t *testing.T) {
	svc := newService(t, nil)
	limiter := New(svc, "api", 1, time.Minute)
	ctx := context.Background()

	assert.True(t, limiter.Allow(ctx, "client-1"))
	assert.False(t, limiter.Allow(ctx, "client-1"))

	assert.True(t, limiter.Allow(ctx, "client-2"), "A second subject has its own budget")
}

func TestLimiter_NamespacesAreIndependent(t *testing.T) {
	svc := newService(t, nil)
	api := New(svc, "api", 1, time.Minute)
	export := New(svc, "export", 1, time.Minute)
	ctx := context.Background()

	assert.True(t, api.Allow(ctx, "client-1"))
	assert.True(t, export.Allow(ctx, "client-1"), "Limiters with different names count separately")
}

func TestLimiter_FallsBackWhenBackendUnreachable(t *testing.T) {
	mb := backend.NewMemoryBackend(backend.DefaultMemoryConfig())
	defer mb.Close()
	svc := newService(t, chaos.Partitioned(mb))

	limiter := New(svc, "api", 3, time.Minute)
	ctx := context.Background()

	// The local token bucket starts full with one window's budget
	for i := 0; i < 3; i++ {
		assert.True(t, limiter.Allow(ctx, "client-1"), "Fallback bucket should admit call %d", i+1)
	}

	assert.False(t, limiter.Allow(ctx, "client-1"), "Fallback bucket should reject once drained")
}
