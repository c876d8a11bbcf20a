package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulingMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSchedulingMetrics(reg)

	m.ObserveProbe("list", "not_found")
	m.ObserveProbe("list", "not_found")
	m.ObserveProbe("list", "ok")
	m.ObserveUnresolved("create")
	m.ObserveExcluded("missing_date")
	m.ObserveSave("update", "error")
	m.ObserveBackendLatency("list", 0.25)

	families, err := reg.Gather()
	require.NoError(t, err)
	byName := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		byName[f.GetName()] = f
	}
	hist, ok := byName["clinic_scheduler_backend_latency_seconds"]
	require.True(t, ok)
	require.Len(t, hist.GetMetric(), 1)
	assert.Equal(t, uint64(1), hist.GetMetric()[0].GetHistogram().GetSampleCount())

	assert.Equal(t, 2.0, counterValue(t, byName["clinic_scheduler_route_probe_total"], "outcome", "not_found"))
	assert.Equal(t, 1.0, counterValue(t, byName["clinic_scheduler_route_probe_total"], "outcome", "ok"))
	assert.Equal(t, 1.0, counterValue(t, byName["clinic_scheduler_route_unresolved_total"], "operation", "create"))
	assert.Equal(t, 1.0, counterValue(t, byName["clinic_scheduler_saves_total"], "result", "error"))

	excluded, ok := byName["clinic_scheduler_excluded_records_total"]
	require.True(t, ok)
	assert.Equal(t, 1.0, excluded.GetMetric()[0].GetCounter().GetValue())
}

func TestSchedulingMetricsDefaultRegistry(t *testing.T) {
	m := NewSchedulingMetrics(nil)
	m.ObserveProbe("list", "ok")
}

func TestSchedulingMetricsNilSafe(t *testing.T) {
	var m *SchedulingMetrics
	m.ObserveProbe("list", "ok")
	m.ObserveUnresolved("list")
	m.ObserveExcluded("missing_time")
	m.ObserveSave("create", "ok")
	m.ObserveBackendLatency("list", 0.1)
}

func counterValue(t *testing.T, family *dto.MetricFamily, label, value string) float64 {
	t.Helper()
	require.NotNil(t, family)
	for _, metric := range family.GetMetric() {
		for _, pair := range metric.GetLabel() {
			if pair.GetName() == label && pair.GetValue() == value {
				return metric.GetCounter().GetValue()
			}
		}
	}
	t.Fatalf("no %s=%s series in %s", label, value, family.GetName())
	return 0
}
