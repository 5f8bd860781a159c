package audit

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the prometheus collectors fed by the Recorder.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	AuditEntries    *prometheus.CounterVec
	MetricValues    *prometheus.HistogramVec
	SinkFailures    *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "exchange_engine_requests_total",
				Help: "Total number of inbound operations by route and status",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "exchange_engine_request_duration_seconds",
				Help:    "Latency in seconds of inbound operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		AuditEntries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "exchange_engine_audit_entries_total",
				Help: "Total number of audit entries by action and severity",
			},
			[]string{"action", "severity"},
		),
		MetricValues: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "exchange_engine_metric_value",
				Help:    "Observed values of engine metric events",
				Buckets: prometheus.ExponentialBuckets(1, 4, 10),
			},
			[]string{"name"},
		),
		SinkFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "exchange_engine_audit_sink_failures_total",
				Help: "Records that could not be persisted",
			},
			[]string{"kind"},
		),
	}
	reg.MustRegister(m.RequestsTotal, m.RequestDuration, m.AuditEntries, m.MetricValues, m.SinkFailures)
	return m
}
