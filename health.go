package railcache

// Status describes backend reachability as observed by a health check
type Status string

// Health statuses reported by HealthCheck
const (
	StatusHealthy     Status = "healthy"
	StatusDegraded    Status = "degraded"
	StatusUnreachable Status = "unreachable"
)

// HealthStatus is a transient snapshot of backend health. It is produced
// fresh on every check and never cached.
type HealthStatus struct {
	Status  Status  `json:"status"`
	Latency float64 `json:"latency"` // Measured round-trip in milliseconds
}
