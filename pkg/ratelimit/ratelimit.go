// Package ratelimit provides a fixed-window rate limiter backed by the
// cache service's atomic counters, so concurrent application instances
// share one budget. When the backend is unreachable the limiter degrades
// to a local token bucket instead of rejecting everything, matching the
// cache's fail-open posture.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/railcache/railcache"
)

// keyPrefix namespaces limiter counters away from the domain façades
const keyPrefix = "ratelimit"

// Limiter is a distributed fixed-window rate limiter
type Limiter struct {
	svc    *railcache.Service
	name   string
	limit  int64
	window time.Duration

	mu        sync.Mutex
	fallbacks map[string]*rate.Limiter
}

// New creates a limiter allowing limit events per window per subject.
// The name keeps counters from independent limiters apart.
func New(svc *railcache.Service, name string, limit int, window time.Duration) *Limiter {
	return &Limiter{
		svc:       svc,
		name:      name,
		limit:     int64(limit),
		window:    window,
		fallbacks: make(map[string]*rate.Limiter),
	}
}

// Allow reports whether the subject may proceed. Each call consumes one
// unit of the subject's budget for the current window.
func (l *Limiter) Allow(ctx context.Context, subject string) bool {
	windowStart := time.Now().Truncate(l.window).Unix()
	key := fmt.Sprintf("%s:%s:%s:%d", keyPrefix, l.name, subject, windowStart)

	n, ok := l.svc.Increment(ctx, key)
	if !ok {
		// Backend unreachable: fall back to a per-subject local bucket
		return l.fallback(subject).Allow()
	}

	if n == 1 {
		// First event of the window owns attaching the counter's expiry.
		// A missed expire only leaves one stale window key behind.
		l.svc.Expire(ctx, key, l.window+time.Second)
	}

	return n <= l.limit
}

// fallback returns the local token bucket for a subject, creating it on
// first use with the same average rate as the shared budget
func (l *Limiter) fallback(subject string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, exists := l.fallbacks[subject]
	if !exists {
		perSecond := float64(l.limit) / l.window.Seconds()
		limiter = rate.NewLimiter(rate.Limit(perSecond), int(l.limit))
		l.fallbacks[subject] = limiter
	}
	return limiter
}
