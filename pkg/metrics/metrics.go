// Package metrics provides monitoring and metrics collection for the cache
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Operation outcome labels recorded by collectors
const (
	OutcomeHit         = "hit"
	OutcomeMiss        = "miss"
	OutcomeOK          = "ok"
	OutcomeFound       = "found"
	OutcomeNotFound    = "not_found"
	OutcomeError       = "error"
	OutcomeDecodeError = "decode_error"
	OutcomeEncodeError = "encode_error"
)

// Collector defines the interface for cache metrics collection
type Collector interface {
	// RecordOperation records a completed cache operation with its outcome
	// and duration
	RecordOperation(op string, outcome string, duration time.Duration)

	// RecordHitRate records the current hit rate percentage (0-100)
	RecordHitRate(rate float64)

	// RecordHealth records the result of a health check
	RecordHealth(status string, latency time.Duration)

	// GetRegistry returns the prometheus registry
	GetRegistry() *prometheus.Registry
}

// Config holds configuration for metrics collection
type Config struct {
	// Namespace for metrics (e.g., "railcache")
	Namespace string

	// Subsystem for metrics (e.g., "service")
	Subsystem string

	// Enable histogram buckets for latency distribution
	EnableHistogram bool

	// Custom histogram buckets (in seconds)
	HistogramBuckets []float64

	// Constant labels to add to all metrics
	ConstLabels map[string]string
}

// ConfigOption is a functional option for metrics configuration
type ConfigOption func(*Config)

// WithNamespace sets the metrics namespace
func WithNamespace(namespace string) ConfigOption {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem
func WithSubsystem(subsystem string) ConfigOption {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithHistogram enables or disables the latency histogram
func WithHistogram(enabled bool) ConfigOption {
	return func(c *Config) {
		c.EnableHistogram = enabled
	}
}

// WithHistogramBuckets sets custom histogram buckets (in seconds)
func WithHistogramBuckets(buckets []float64) ConfigOption {
	return func(c *Config) {
		c.HistogramBuckets = buckets
	}
}

// WithConstLabels sets constant labels added to all metrics
func WithConstLabels(labels map[string]string) ConfigOption {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// DefaultConfig returns the default metrics configuration
func DefaultConfig() *Config {
	return &Config{
		Namespace:       "railcache",
		Subsystem:       "service",
		EnableHistogram: true,
		HistogramBuckets: []float64{
			0.0005, // 0.5ms
			0.001,  // 1ms
			0.0025, // 2.5ms
			0.005,  // 5ms
			0.01,   // 10ms
			0.025,  // 25ms
			0.05,   // 50ms
			0.1,    // 100ms
			0.25,   // 250ms
			0.5,    // 500ms
			1.0,    // 1s
		},
		ConstLabels: make(map[string]string),
	}
}
