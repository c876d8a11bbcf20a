package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "clinic_scheduler"

// SchedulingMetrics exposes counters/histograms for calendar loads, route
// probing and appointment writes.
type SchedulingMetrics struct {
	routeProbes     *prometheus.CounterVec
	routeUnresolved *prometheus.CounterVec
	excludedRecords *prometheus.CounterVec
	saves           *prometheus.CounterVec
	backendLatency  *prometheus.HistogramVec
}

func NewSchedulingMetrics(reg prometheus.Registerer) *SchedulingMetrics {
	m := &SchedulingMetrics{
		routeProbes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "route_probe_total",
			Help:      "Appointment route candidates tried, by outcome",
		}, []string{"operation", "outcome"}),
		routeUnresolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "route_unresolved_total",
			Help:      "Operations where every route candidate returned 404",
		}, []string{"operation"}),
		excludedRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "excluded_records_total",
			Help:      "Appointment records left off the calendar",
		}, []string{"reason"}),
		saves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "saves_total",
			Help:      "Appointment writes by operation and result",
		}, []string{"operation", "result"}),
		backendLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_latency_seconds",
			Help:      "Latency of appointments backend operations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.routeProbes, m.routeUnresolved, m.excludedRecords, m.saves, m.backendLatency)
	return m
}

// ObserveProbe records one candidate attempt. outcome is e.g. "ok", "not_found", "error".
func (m *SchedulingMetrics) ObserveProbe(operation, outcome string) {
	if m == nil {
		return
	}
	m.routeProbes.WithLabelValues(operation, outcome).Inc()
}

func (m *SchedulingMetrics) ObserveUnresolved(operation string) {
	if m == nil {
		return
	}
	m.routeUnresolved.WithLabelValues(operation).Inc()
}

func (m *SchedulingMetrics) ObserveExcluded(reason string) {
	if m == nil {
		return
	}
	m.excludedRecords.WithLabelValues(reason).Inc()
}

func (m *SchedulingMetrics) ObserveSave(operation, result string) {
	if m == nil {
		return
	}
	m.saves.WithLabelValues(operation, result).Inc()
}

func (m *SchedulingMetrics) ObserveBackendLatency(operation string, seconds float64) {
	if m == nil {
		return
	}
	m.backendLatency.WithLabelValues(operation).Observe(seconds)
}
