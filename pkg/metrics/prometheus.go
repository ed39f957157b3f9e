package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector implements Collector for Prometheus
type PrometheusCollector struct {
	config   *Config
	registry *prometheus.Registry

	// Operation metrics
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec

	// Derived cache metrics
	hitRate prometheus.Gauge

	// Health metrics
	healthStatus  *prometheus.GaugeVec
	healthLatency prometheus.Gauge
}

// knownHealthStatuses pins the label set so scrapes always expose all three
var knownHealthStatuses = []string{"healthy", "degraded", "unreachable"}

// NewPrometheusCollector creates a new Prometheus metrics collector
func NewPrometheusCollector(opts ...ConfigOption) (*PrometheusCollector, error) {
	config := DefaultConfig()
	for _, opt := range opts {
		opt(config)
	}

	registry := prometheus.NewRegistry()
	collector := &PrometheusCollector{
		config:   config,
		registry: registry,
	}

	if err := collector.initMetrics(); err != nil {
		return nil, err
	}

	return collector, nil
}

// initMetrics initializes all Prometheus metrics
func (p *PrometheusCollector) initMetrics() error {
	p.operationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   p.config.Namespace,
			Subsystem:   p.config.Subsystem,
			Name:        "operations_total",
			Help:        "Total number of cache operations by operation and outcome",
			ConstLabels: p.config.ConstLabels,
		},
		[]string{"operation", "outcome"},
	)

	if p.config.EnableHistogram {
		p.operationDuration = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   p.config.Namespace,
				Subsystem:   p.config.Subsystem,
				Name:        "operation_duration_seconds",
				Help:        "Histogram of cache operation duration in seconds",
				Buckets:     p.config.HistogramBuckets,
				ConstLabels: p.config.ConstLabels,
			},
			[]string{"operation"},
		)
	}

	p.hitRate = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   p.config.Namespace,
			Subsystem:   p.config.Subsystem,
			Name:        "hit_rate",
			Help:        "Current cache hit rate as a percentage (0-100)",
			ConstLabels: p.config.ConstLabels,
		},
	)

	p.healthStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace:   p.config.Namespace,
			Subsystem:   p.config.Subsystem,
			Name:        "health_status",
			Help:        "Backend health status (1 for the current status, 0 otherwise)",
			ConstLabels: p.config.ConstLabels,
		},
		[]string{"status"},
	)

	p.healthLatency = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   p.config.Namespace,
			Subsystem:   p.config.Subsystem,
			Name:        "health_check_latency_seconds",
			Help:        "Round-trip latency of the most recent backend health check",
			ConstLabels: p.config.ConstLabels,
		},
	)

	p.registry.MustRegister(
		p.operationsTotal,
		p.hitRate,
		p.healthStatus,
		p.healthLatency,
	)

	if p.config.EnableHistogram {
		p.registry.MustRegister(p.operationDuration)
	}

	return nil
}

// RecordOperation records a completed cache operation
func (p *PrometheusCollector) RecordOperation(op string, outcome string, duration time.Duration) {
	p.operationsTotal.WithLabelValues(op, outcome).Inc()
	if p.config.EnableHistogram {
		p.operationDuration.WithLabelValues(op).Observe(duration.Seconds())
	}
}

// RecordHitRate records the current hit rate percentage
func (p *PrometheusCollector) RecordHitRate(rate float64) {
	p.hitRate.Set(rate)
}

// RecordHealth records the result of a health check
func (p *PrometheusCollector) RecordHealth(status string, latency time.Duration) {
	for _, s := range knownHealthStatuses {
		value := 0.0
		if s == status {
			value = 1.0
		}
		p.healthStatus.WithLabelValues(s).Set(value)
	}
	p.healthLatency.Set(latency.Seconds())
}

// GetRegistry returns the Prometheus registry
func (p *PrometheusCollector) GetRegistry() *prometheus.Registry {
	return p.registry
}

// MustRegister registers a custom collector
func (p *PrometheusCollector) MustRegister(collectors ...prometheus.Collector) {
	p.registry.MustRegister(collectors...)
}
