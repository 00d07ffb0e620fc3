// Package metrics exposes the Prometheus instrumentation of the server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the collectors updated by the services and HTTP layer.
type Metrics struct {
	registry *prometheus.Registry

	UploadsCompleted prometheus.Counter
	UploadsAborted   prometheus.Counter
	NotifyFailures   prometheus.Counter
	RequestDuration  *prometheus.HistogramVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		UploadsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "deliverhub_uploads_completed_total",
			Help: "Multipart uploads finalized and catalogued.",
		}),
		UploadsAborted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "deliverhub_uploads_aborted_total",
			Help: "Multipart uploads aborted (client-requested or reconciled).",
		}),
		NotifyFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "deliverhub_notify_failures_total",
			Help: "Assignment notifications that could not be queued.",
		}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "deliverhub_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status.",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 2.5, 5, 10},
		}, []string{"route", "status"}),
	}

	reg.MustRegister(m.UploadsCompleted, m.UploadsAborted, m.NotifyFailures, m.RequestDuration)
	return m
}

// Handler serves the /metrics endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
