package railcache

import (
	"context"
	"time"

	"github.com/railcache/railcache/pkg/keys"
)

// Default TTLs for the schedule façade
const (
	DefaultScheduleTTL  = 30 * time.Minute
	DefaultConflictsTTL = 30 * time.Minute
)

// DateFormat is the calendar-date qualifier used in schedule keys
const DateFormat = "2006-01-02"

// ScheduleCache caches optimized induction schedules and their conflict
// reports by service date. It owns the "schedule" key namespace.
type ScheduleCache struct {
	svc          *Service
	scheduleTTL  time.Duration
	conflictsTTL time.Duration
}

// ScheduleOption is a functional option for ScheduleCache configuration
type ScheduleOption func(*ScheduleCache)

// WithScheduleTTL sets the default TTL for optimized schedules
func WithScheduleTTL(d time.Duration) ScheduleOption {
	return func(c *ScheduleCache) {
		c.scheduleTTL = d
	}
}

// WithConflictsTTL sets the default TTL for conflict reports
func WithConflictsTTL(d time.Duration) ScheduleOption {
	return func(c *ScheduleCache) {
		c.conflictsTTL = d
	}
}

// NewScheduleCache creates the schedule façade over a cache service
func NewScheduleCache(svc *Service, opts ...ScheduleOption) *ScheduleCache {
	c := &ScheduleCache{
		svc:          svc,
		scheduleTTL:  DefaultScheduleTTL,
		conflictsTTL: DefaultConflictsTTL,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// GetOptimizedSchedule returns the cached schedule for a service date
func (c *ScheduleCache) GetOptimizedSchedule(ctx context.Context, date time.Time) (*OptimizedSchedule, bool) {
	var schedule OptimizedSchedule
	if !c.svc.Get(ctx, keys.Schedule(date.Format(DateFormat)), &schedule) {
		return nil, false
	}
	return &schedule, true
}

// SetOptimizedSchedule caches the schedule for a service date. A zero TTL
// selects the façade default.
func (c *ScheduleCache) SetOptimizedSchedule(ctx context.Context, date time.Time, schedule *OptimizedSchedule, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.scheduleTTL
	}
	c.svc.Set(ctx, keys.Schedule(date.Format(DateFormat)), schedule, ttl)
}

// GetScheduleConflicts returns the cached conflict report for a service date
func (c *ScheduleCache) GetScheduleConflicts(ctx context.Context, date time.Time) (*ScheduleConflicts, bool) {
	var conflicts ScheduleConflicts
	if !c.svc.Get(ctx, keys.ScheduleConflicts(date.Format(DateFormat)), &conflicts) {
		return nil, false
	}
	return &conflicts, true
}

// SetScheduleConflicts caches the conflict report for a service date. A
// zero TTL selects the façade default.
func (c *ScheduleCache) SetScheduleConflicts(ctx context.Context, date time.Time, conflicts *ScheduleConflicts, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.conflictsTTL
	}
	c.svc.Set(ctx, keys.ScheduleConflicts(date.Format(DateFormat)), conflicts, ttl)
}

// InvalidateScheduleDate removes both the schedule and the conflict report
// for a service date. The two entries are always invalidated together;
// removing one without the other would let a stale conflict report describe
// a schedule that no longer exists.
func (c *ScheduleCache) InvalidateScheduleDate(ctx context.Context, date time.Time) {
	day := date.Format(DateFormat)
	c.svc.Delete(ctx, keys.Schedule(day))
	c.svc.Delete(ctx, keys.ScheduleConflicts(day))
}
