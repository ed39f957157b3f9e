package railcache

import (
	"context"
	"time"

	"github.com/railcache/railcache/pkg/keys"
)

// Default TTLs for the analytics façade. Dashboards tolerate slight
// staleness but not minutes of it, so both entry kinds are short-lived.
const (
	DefaultPerformanceMetricsTTL = 1 * time.Minute
	DefaultDashboardTTL          = 30 * time.Second
)

// AnalyticsCache caches aggregated performance metrics and dashboard
// snapshots by scope (e.g. "fleet", "depot:muttom", "today"). It owns the
// "analytics" key namespace.
type AnalyticsCache struct {
	svc          *Service
	metricsTTL   time.Duration
	dashboardTTL time.Duration
}

// AnalyticsOption is a functional option for AnalyticsCache configuration
type AnalyticsOption func(*AnalyticsCache)

// WithPerformanceMetricsTTL sets the default TTL for performance metrics
func WithPerformanceMetricsTTL(d time.Duration) AnalyticsOption {
	return func(c *AnalyticsCache) {
		c.metricsTTL = d
	}
}

// WithDashboardTTL sets the default TTL for dashboard snapshots
func WithDashboardTTL(d time.Duration) AnalyticsOption {
	return func(c *AnalyticsCache) {
		c.dashboardTTL = d
	}
}

// NewAnalyticsCache creates the analytics façade over a cache service
func NewAnalyticsCache(svc *Service, opts ...AnalyticsOption) *AnalyticsCache {
	c := &AnalyticsCache{
		svc:          svc,
		metricsTTL:   DefaultPerformanceMetricsTTL,
		dashboardTTL: DefaultDashboardTTL,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// GetPerformanceMetrics returns the cached metrics for a scope
func (c *AnalyticsCache) GetPerformanceMetrics(ctx context.Context, scope string) (*PerformanceMetrics, bool) {
	var m PerformanceMetrics
	if !c.svc.Get(ctx, keys.PerformanceMetrics(scope), &m) {
		return nil, false
	}
	return &m, true
}

// SetPerformanceMetrics caches the metrics for a scope. A zero TTL selects
// the façade default.
func (c *AnalyticsCache) SetPerformanceMetrics(ctx context.Context, scope string, m *PerformanceMetrics, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.metricsTTL
	}
	c.svc.Set(ctx, keys.PerformanceMetrics(scope), m, ttl)
}

// GetDashboardData returns the cached dashboard snapshot for a scope
func (c *AnalyticsCache) GetDashboardData(ctx context.Context, scope string) (*DashboardData, bool) {
	var d DashboardData
	if !c.svc.Get(ctx, keys.DashboardData(scope), &d) {
		return nil, false
	}
	return &d, true
}

// SetDashboardData caches a dashboard snapshot for a scope. A zero TTL
// selects the façade default.
func (c *AnalyticsCache) SetDashboardData(ctx context.Context, scope string, d *DashboardData, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.dashboardTTL
	}
	c.svc.Set(ctx, keys.DashboardData(scope), d, ttl)
}

// InvalidateScope removes both analytics entries for a scope, for use when
// an upstream aggregation is rebuilt out of band
func (c *AnalyticsCache) InvalidateScope(ctx context.Context, scope string) {
	c.svc.Delete(ctx, keys.PerformanceMetrics(scope))
	c.svc.Delete(ctx, keys.DashboardData(scope))
}
