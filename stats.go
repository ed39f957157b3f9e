package railcache

import "sync/atomic"

// Stats is a point-in-time snapshot of the service counters. HitRate is
// derived on read and never stored.
type Stats struct {
	Hits    uint64  `json:"hits"`    // Number of cache hits
	Misses  uint64  `json:"misses"`  // Number of cache misses
	Sets    uint64  `json:"sets"`    // Number of successful writes
	Deletes uint64  `json:"deletes"` // Number of delete calls
	Errors  uint64  `json:"errors"`  // Number of backend or codec failures
	HitRate float64 `json:"hitRate"` // Hit percentage (0-100), 0 when no reads yet
}

// counters is the mutable state behind Stats. Each Service owns its own
// instance so isolated services never share counts. Updates are atomic;
// a snapshot taken during concurrent traffic may be slightly torn across
// fields, which is acceptable for dashboard metrics.
type counters struct {
	hits    atomic.Uint64
	misses  atomic.Uint64
	sets    atomic.Uint64
	deletes atomic.Uint64
	errors  atomic.Uint64
}

// snapshot returns the current Stats with the derived hit rate
func (c *counters) snapshot() Stats {
	s := Stats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Sets:    c.sets.Load(),
		Deletes: c.deletes.Load(),
		Errors:  c.errors.Load(),
	}
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total) * 100
	}
	return s
}

// hitRate computes the current hit percentage without a full snapshot
func (c *counters) hitRate() float64 {
	hits := c.hits.Load()
	total := hits + c.misses.Load()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total) * 100
}

// reset zeroes all counters
func (c *counters) reset() {
	c.hits.Store(0)
	c.misses.Store(0)
	c.sets.Store(0)
	c.deletes.Store(0)
	c.errors.Store(0)
}
