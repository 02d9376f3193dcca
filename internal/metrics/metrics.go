// Package metrics exposes Prometheus collectors for extraction runs.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/a3tai/mcp-remit-reader/internal/claims"
)

const namespace = "remit"

// Outcome labels for documents.
const (
	OutcomeOK      = "ok"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
)

// Metrics groups the collectors of one process. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	documents *prometheus.CounterVec
	records   prometheus.Counter
	pages     prometheus.Counter
	degraded  *prometheus.CounterVec
	duration  prometheus.Histogram
}

// New creates collectors registered on a private registry, together with
// the Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_total",
			Help:      "Documents processed, by outcome.",
		}, []string{"outcome"}),
		records: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_total",
			Help:      "Claim records extracted.",
		}),
		pages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_total",
			Help:      "Pages read by successful runs.",
		}),
		degraded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocks_degraded_total",
			Help:      "Patient blocks whose geometry fields were degraded, by reason.",
		}, []string{"reason"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of successful extraction runs.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
	}
	reg.MustRegister(
		m.documents, m.records, m.pages, m.degraded, m.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveRun records a successful run.
func (m *Metrics) ObserveRun(stats claims.Stats, records int) {
	if m == nil {
		return
	}
	m.documents.WithLabelValues(OutcomeOK).Inc()
	m.records.Add(float64(records))
	m.pages.Add(float64(stats.Pages))
	m.degraded.WithLabelValues("unresolved").Add(float64(stats.Unresolved))
	m.degraded.WithLabelValues("truncated").Add(float64(stats.Truncated))
	m.duration.Observe(stats.Elapsed.Seconds())
}

// ObserveFailure records a document that produced no records.
func (m *Metrics) ObserveFailure(outcome string) {
	if m == nil {
		return
	}
	m.documents.WithLabelValues(outcome).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
