package metrics

import (
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// findMetric locates a metric family by name in gathered output
func findMetric(t *testing.T, families []*dto.MetricFamily, name string) *dto.MetricFamily {
	t.Helper()
	for _, family := range families {
		if family.GetName() == name {
			return family
		}
	}
	return nil
}

func TestPrometheusCollector_RecordOperation(t *testing.T) {
	collector, err := NewPrometheusCollector()
	require.NoError(t, err)

	collector.RecordOperation("get", OutcomeHit, 2*time.Millisecond)
	collector.RecordOperation("get", OutcomeHit, 1*time.Millisecond)
	collector.RecordOperation("get", OutcomeMiss, 1*time.Millisecond)
	collector.RecordOperation("set", OutcomeOK, 3*time.Millisecond)

	families, err := collector.GetRegistry().Gather()
	require.NoError(t, err)

	ops := findMetric(t, families, "railcache_service_operations_total")
	require.NotNil(t, ops)

	counts := make(map[string]float64)
	for _, m := range ops.GetMetric() {
		var op, outcome string
		for _, label := range m.GetLabel() {
			switch label.GetName() {
			case "operation":
				op = label.GetValue()
			case "outcome":
				outcome = label.GetValue()
			}
		}
		counts[op+"/"+outcome] = m.GetCounter().GetValue()
	}

	assert.Equal(t, 2.0, counts["get/hit"])
	assert.Equal(t, 1.0, counts["get/miss"])
	assert.Equal(t, 1.0, counts["set/ok"])
}

func TestPrometheusCollector_RecordHitRate(t *testing.T) {
	collector, err := NewPrometheusCollector()
	require.NoError(t, err)

	collector.RecordHitRate(75.0)

	families, err := collector.GetRegistry().Gather()
	require.NoError(t, err)

	hitRate := findMetric(t, families, "railcache_service_hit_rate")
	require.NotNil(t, hitRate)
	require.Len(t, hitRate.GetMetric(), 1)
	assert.Equal(t, 75.0, hitRate.GetMetric()[0].GetGauge().GetValue())
}

func TestPrometheusCollector_RecordHealth(t *testing.T) {
	collector, err := NewPrometheusCollector()
	require.NoError(t, err)

	collector.RecordHealth("degraded", 150*time.Millisecond)

	families, err := collector.GetRegistry().Gather()
	require.NoError(t, err)

	health := findMetric(t, families, "railcache_service_health_status")
	require.NotNil(t, health)

	values := make(map[string]float64)
	for _, m := range health.GetMetric() {
		for _, label := range m.GetLabel() {
			if label.GetName() == "status" {
				values[label.GetValue()] = m.GetGauge().GetValue()
			}
		}
	}

	assert.Equal(t, 0.0, values["healthy"])
	assert.Equal(t, 1.0, values["degraded"])
	assert.Equal(t, 0.0, values["unreachable"])

	latency := findMetric(t, families, "railcache_service_health_check_latency_seconds")
	require.NotNil(t, latency)
	assert.InDelta(t, 0.15, latency.GetMetric()[0].GetGauge().GetValue(), 0.0001)
}

func TestPrometheusCollector_HistogramDisabled(t *testing.T) {
	collector, err := NewPrometheusCollector(WithHistogram(false))
	require.NoError(t, err)

	collector.RecordOperation("get", OutcomeHit, time.Millisecond)

	families, err := collector.GetRegistry().Gather()
	require.NoError(t, err)

	assert.Nil(t, findMetric(t, families, "railcache_service_operation_duration_seconds"))
}

func TestPrometheusCollector_CustomNamespace(t *testing.T) {
	collector, err := NewPrometheusCollector(
		WithNamespace("fleet"),
		WithSubsystem("cache"),
	)
	require.NoError(t, err)

	collector.RecordOperation("get", OutcomeHit, time.Millisecond)

	families, err := collector.GetRegistry().Gather()
	require.NoError(t, err)

	assert.NotNil(t, findMetric(t, families, "fleet_cache_operations_total"))
}
