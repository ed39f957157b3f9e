package railcache

import (
	"context"
	"time"

	"github.com/railcache/railcache/pkg/keys"
)

// Default TTLs for the optimization façade. Algorithm performance profiles
// change slowly, so they outlive individual results by a wide margin.
const (
	DefaultOptimizationResultTTL   = 1 * time.Hour
	DefaultAlgorithmPerformanceTTL = 6 * time.Hour
)

// OptimizationCache caches optimization run results by request fingerprint
// and per-algorithm performance profiles. It owns the "optimization" key
// namespace.
type OptimizationCache struct {
	svc       *Service
	resultTTL time.Duration
	perfTTL   time.Duration
}

// OptimizationOption is a functional option for OptimizationCache
// configuration
type OptimizationOption func(*OptimizationCache)

// WithOptimizationResultTTL sets the default TTL for run results
func WithOptimizationResultTTL(d time.Duration) OptimizationOption {
	return func(c *OptimizationCache) {
		c.resultTTL = d
	}
}

// WithAlgorithmPerformanceTTL sets the default TTL for performance profiles
func WithAlgorithmPerformanceTTL(d time.Duration) OptimizationOption {
	return func(c *OptimizationCache) {
		c.perfTTL = d
	}
}

// NewOptimizationCache creates the optimization façade over a cache service
func NewOptimizationCache(svc *Service, opts ...OptimizationOption) *OptimizationCache {
	c := &OptimizationCache{
		svc:       svc,
		resultTTL: DefaultOptimizationResultTTL,
		perfTTL:   DefaultAlgorithmPerformanceTTL,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// FingerprintRequest derives the deterministic fingerprint of an
// optimization request. Identical inputs always map to the same
// fingerprint, so a repeated request resolves to the cached result.
func FingerprintRequest(request interface{}) (string, error) {
	return keys.Fingerprint(request)
}

// GetOptimizationResult returns the cached result for a request fingerprint
func (c *OptimizationCache) GetOptimizationResult(ctx context.Context, fingerprint string) (*OptimizationResult, bool) {
	var result OptimizationResult
	if !c.svc.Get(ctx, keys.OptimizationResult(fingerprint), &result) {
		return nil, false
	}
	return &result, true
}

// SetOptimizationResult caches a run result under its request fingerprint.
// A zero TTL selects the façade default.
func (c *OptimizationCache) SetOptimizationResult(ctx context.Context, fingerprint string, result *OptimizationResult, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.resultTTL
	}
	c.svc.Set(ctx, keys.OptimizationResult(fingerprint), result, ttl)
}

// GetAlgorithmPerformance returns the cached performance profile for an
// algorithm
func (c *OptimizationCache) GetAlgorithmPerformance(ctx context.Context, algorithmID string) (*AlgorithmPerformance, bool) {
	var perf AlgorithmPerformance
	if !c.svc.Get(ctx, keys.AlgorithmPerformance(algorithmID), &perf) {
		return nil, false
	}
	return &perf, true
}

// SetAlgorithmPerformance caches the performance profile for an algorithm.
// A zero TTL selects the façade default.
func (c *OptimizationCache) SetAlgorithmPerformance(ctx context.Context, algorithmID string, perf *AlgorithmPerformance, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.perfTTL
	}
	c.svc.Set(ctx, keys.AlgorithmPerformance(algorithmID), perf, ttl)
}

// InvalidateResult removes a cached run result, for use when the underlying
// fleet state changed enough that a repeated request must recompute
func (c *OptimizationCache) InvalidateResult(ctx context.Context, fingerprint string) {
	c.svc.Delete(ctx, keys.OptimizationResult(fingerprint))
}
