// Package metrics exports Prometheus metrics for the analysis pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all pipeline Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	AnalysesTotal    *prometheus.CounterVec
	AnalysisDuration *prometheus.HistogramVec
	BackendFailures  *prometheus.CounterVec
	FetchFailures    *prometheus.CounterVec
	AuditDropped     prometheus.Counter
}

// New registers the metrics on a fresh registry
func New() *Metrics {
	return NewWithRegistry(prometheus.NewRegistry())
}

// NewWithRegistry registers the metrics on reg
func NewWithRegistry(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		AnalysesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "truevail_analyses_total",
			Help: "Completed analyses by mode, status and producing tier",
		}, []string{"mode", "status", "source"}),
		AnalysisDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "truevail_analysis_duration_seconds",
			Help:    "End-to-end analysis latency",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"mode"}),
		BackendFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "truevail_backend_failures_total",
			Help: "Remote backend failures by backend and failure kind",
		}, []string{"backend", "kind"}),
		FetchFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "truevail_fetch_failures_total",
			Help: "Content extraction failures by kind",
		}, []string{"kind"}),
		AuditDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "truevail_audit_dropped_total",
			Help: "Audit records dropped because the buffer was full",
		}),
	}
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveAnalysis records one completed analysis
func (m *Metrics) ObserveAnalysis(mode, status, source string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.AnalysesTotal.WithLabelValues(mode, status, source).Inc()
	m.AnalysisDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
}

// BackendFailed records one failed backend call
func (m *Metrics) BackendFailed(backend, kind string) {
	if m == nil {
		return
	}
	m.BackendFailures.WithLabelValues(backend, kind).Inc()
}

// FetchFailed records one failed page extraction
func (m *Metrics) FetchFailed(kind string) {
	if m == nil {
		return
	}
	m.FetchFailures.WithLabelValues(kind).Inc()
}

// AuditRecordDropped counts a dropped audit record
func (m *Metrics) AuditRecordDropped() {
	if m == nil {
		return
	}
	m.AuditDropped.Inc()
}
