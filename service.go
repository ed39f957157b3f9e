package railcache

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/railcache/railcache/pkg/backend"
	"github.com/railcache/railcache/pkg/codec"
	"github.com/railcache/railcache/pkg/metrics"
)

// Service is the generic cache service. It composes a storage backend with
// a codec and per-instance counters, and fails open on every path: backend
// or codec failures degrade to misses and no-ops, never to caller-visible
// errors. The persistent store remains the source of truth.
//
// All methods are safe for concurrent use.
type Service struct {
	backend       backend.Backend
	codec         codec.Codec
	logger        *zap.Logger
	collector     metrics.Collector
	opTimeout     time.Duration
	healthTimeout time.Duration
	degradedAfter time.Duration

	counters counters
}

// Option is a functional option for Service configuration
type Option func(*Service)

// WithLogger sets a custom zap logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithCodec sets the value codec. The default is JSON.
func WithCodec(c codec.Codec) Option {
	return func(s *Service) {
		s.codec = c
	}
}

// WithCollector sets a metrics collector that observes every operation
func WithCollector(c metrics.Collector) Option {
	return func(s *Service) {
		s.collector = c
	}
}

// WithOperationTimeout bounds each backend call. Zero relies on the
// backend client's own timeouts.
func WithOperationTimeout(d time.Duration) Option {
	return func(s *Service) {
		s.opTimeout = d
	}
}

// WithHealthTimeout bounds the health check round-trip
func WithHealthTimeout(d time.Duration) Option {
	return func(s *Service) {
		s.healthTimeout = d
	}
}

// WithDegradedThreshold sets the ping latency above which a reachable
// backend is reported as degraded
func WithDegradedThreshold(d time.Duration) Option {
	return func(s *Service) {
		s.degradedAfter = d
	}
}

// New creates a cache service over the given backend
func New(b backend.Backend, opts ...Option) *Service {
	s := &Service{
		backend:       b,
		codec:         codec.NewJSON(),
		logger:        zap.NewNop(),
		healthTimeout: 2 * time.Second,
		degradedAfter: 100 * time.Millisecond,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Get retrieves the value stored at key and decodes it into dest, which
// must be a pointer. It reports whether dest was populated. A backend
// failure is indistinguishable from a miss here; the distinction is kept in
// Stats and metrics only.
func (s *Service) Get(ctx context.Context, key string, dest interface{}) bool {
	start := time.Now()
	ctx, cancel := s.bound(ctx)
	defer cancel()

	data, found, err := s.backend.Get(ctx, key)
	if err != nil {
		s.counters.errors.Add(1)
		s.logger.Warn("cache get failed",
			zap.String("key", key),
			zap.Error(err),
		)
		s.record("get", metrics.OutcomeError, start)
		return false
	}

	if !found {
		s.counters.misses.Add(1)
		s.record("get", metrics.OutcomeMiss, start)
		s.recordHitRate()
		return false
	}

	if err := s.codec.Unmarshal(data, dest); err != nil {
		// Undecodable entries count as errors, not misses; the caller
		// still sees a miss and falls back to the store.
		s.counters.errors.Add(1)
		s.logger.Warn("cache entry failed to decode",
			zap.String("key", key),
			zap.String("codec", s.codec.Name()),
			zap.Error(err),
		)
		s.record("get", metrics.OutcomeDecodeError, start)
		return false
	}

	s.counters.hits.Add(1)
	s.record("get", metrics.OutcomeHit, start)
	s.recordHitRate()
	return true
}

// Set encodes value and stores it at key with the given TTL. A zero TTL
// stores the value without expiry. It reports whether the value was stored;
// failure is non-fatal and only surfaces through Stats and logs.
func (s *Service) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) bool {
	start := time.Now()

	data, err := s.codec.Marshal(value)
	if err != nil {
		s.counters.errors.Add(1)
		s.logger.Warn("cache value failed to encode",
			zap.String("key", key),
			zap.String("codec", s.codec.Name()),
			zap.Error(err),
		)
		s.record("set", metrics.OutcomeEncodeError, start)
		return false
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()

	if err := s.backend.Set(ctx, key, data, ttl); err != nil {
		s.counters.errors.Add(1)
		s.logger.Warn("cache set failed",
			zap.String("key", key),
			zap.Error(err),
		)
		s.record("set", metrics.OutcomeError, start)
		return false
	}

	s.counters.sets.Add(1)
	s.record("set", metrics.OutcomeOK, start)
	return true
}

// Delete removes the entry at key. The operation is idempotent: the delete
// counter advances whether or not the key existed.
func (s *Service) Delete(ctx context.Context, key string) {
	start := time.Now()
	ctx, cancel := s.bound(ctx)
	defer cancel()

	if err := s.backend.Delete(ctx, key); err != nil {
		s.counters.errors.Add(1)
		s.logger.Warn("cache delete failed",
			zap.String("key", key),
			zap.Error(err),
		)
		s.record("delete", metrics.OutcomeError, start)
		return
	}

	s.counters.deletes.Add(1)
	s.record("delete", metrics.OutcomeOK, start)
}

// Exists checks for key without fetching or decoding its value. It does not
// touch the hit/miss counters, so conditional logic does not skew read
// metrics.
func (s *Service) Exists(ctx context.Context, key string) bool {
	start := time.Now()
	ctx, cancel := s.bound(ctx)
	defer cancel()

	found, err := s.backend.Exists(ctx, key)
	if err != nil {
		s.counters.errors.Add(1)
		s.logger.Warn("cache exists check failed",
			zap.String("key", key),
			zap.Error(err),
		)
		s.record("exists", metrics.OutcomeError, start)
		return false
	}

	outcome := metrics.OutcomeNotFound
	if found {
		outcome = metrics.OutcomeFound
	}
	s.record("exists", outcome, start)
	return found
}

// Increment atomically increments the integer counter at key and returns
// the new value. The boolean reports whether the increment reached the
// backend; on failure the counter value is zero and callers should treat
// the tally as unknown.
func (s *Service) Increment(ctx context.Context, key string) (int64, bool) {
	start := time.Now()
	ctx, cancel := s.bound(ctx)
	defer cancel()

	n, err := s.backend.Increment(ctx, key)
	if err != nil {
		s.counters.errors.Add(1)
		s.logger.Warn("cache increment failed",
			zap.String("key", key),
			zap.Error(err),
		)
		s.record("increment", metrics.OutcomeError, start)
		return 0, false
	}

	s.record("increment", metrics.OutcomeOK, start)
	return n, true
}

// Expire sets or refreshes the TTL on an existing key, reporting whether
// the call reached the backend. Counter keys created by Increment pick up
// their expiry this way.
func (s *Service) Expire(ctx context.Context, key string, ttl time.Duration) bool {
	start := time.Now()
	ctx, cancel := s.bound(ctx)
	defer cancel()

	if err := s.backend.Expire(ctx, key, ttl); err != nil {
		s.counters.errors.Add(1)
		s.logger.Warn("cache expire failed",
			zap.String("key", key),
			zap.Error(err),
		)
		s.record("expire", metrics.OutcomeError, start)
		return false
	}

	s.record("expire", metrics.OutcomeOK, start)
	return true
}

// GetOrSet retrieves the value at key into dest, or on a miss invokes load,
// stores its result with the given TTL and populates dest from it. Loader
// errors are returned verbatim: the loader talks to the source of truth, so
// its failures are not swallowed by the fail-open policy.
func (s *Service) GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, load func(ctx context.Context) (interface{}, error)) error {
	if s.Get(ctx, key, dest) {
		return nil
	}

	value, err := load(ctx)
	if err != nil {
		return err
	}

	s.Set(ctx, key, value, ttl)

	// Populate dest through the codec so callers observe exactly what a
	// later cache hit would return.
	data, err := s.codec.Marshal(value)
	if err != nil {
		return err
	}
	return s.codec.Unmarshal(data, dest)
}

// Stats returns a snapshot of the service counters. It performs no backend
// round-trip.
func (s *Service) Stats() Stats {
	return s.counters.snapshot()
}

// ResetStats zeroes all counters. Intended for tests and operational resets.
func (s *Service) ResetStats() {
	s.counters.reset()
}

// HealthCheck issues a bounded ping to the backend and reports its
// reachability with the measured round-trip latency. It never returns an
// error: an unreachable backend is a status, not a failure.
func (s *Service) HealthCheck(ctx context.Context) HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, s.healthTimeout)
	defer cancel()

	start := time.Now()
	err := s.backend.Ping(ctx)
	latency := time.Since(start)

	status := StatusHealthy
	switch {
	case err != nil:
		status = StatusUnreachable
		s.logger.Warn("backend health check failed",
			zap.Duration("latency", latency),
			zap.Error(err),
		)
	case latency >= s.degradedAfter:
		status = StatusDegraded
	}

	if s.collector != nil {
		s.collector.RecordHealth(string(status), latency)
	}

	return HealthStatus{
		Status:  status,
		Latency: float64(latency) / float64(time.Millisecond),
	}
}

// bound derives a timeout-bounded context when an operation timeout is set
func (s *Service) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.opTimeout)
}

// record forwards an operation observation to the collector, if any
func (s *Service) record(op, outcome string, start time.Time) {
	if s.collector != nil {
		s.collector.RecordOperation(op, outcome, time.Since(start))
	}
}

// recordHitRate pushes the derived hit rate gauge after read operations
func (s *Service) recordHitRate() {
	if s.collector != nil {
		s.collector.RecordHitRate(s.counters.hitRate())
	}
}
