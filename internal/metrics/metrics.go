package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Status label values
const (
	StatusSuccess  = "success"
	StatusFailure  = "failure"
	StatusNotFound = "not_found"
)

// Metrics holds all Prometheus metrics for the extension layer
type Metrics struct {
	registry *prometheus.Registry

	// Extension metrics
	ExtensionInvocationsTotal   *prometheus.CounterVec
	ExtensionInvocationDuration *prometheus.HistogramVec
	ExtensionNotFoundTotal      prometheus.Counter
	ExtensionsRegistered        prometheus.Gauge

	// Command metrics
	CommandExecutionsTotal   *prometheus.CounterVec
	CommandExecutionDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers all metrics on a private registry
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		ExtensionInvocationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "extension_invocations_total",
				Help: "Total number of extension invocations by outcome",
			},
			[]string{"extension_id", "status"},
		),
		ExtensionInvocationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "extension_invocation_duration_seconds",
				Help:    "Duration of extension invocations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"extension_id"},
		),
		ExtensionNotFoundTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "extension_not_found_total",
				Help: "Total number of dispatches to an unknown extension id",
			},
		),
		ExtensionsRegistered: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "extensions_registered",
				Help: "Number of extensions in the registry",
			},
		),

		CommandExecutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "command_executions_total",
				Help: "Total number of host command executions",
			},
			[]string{"command", "status"},
		),
		CommandExecutionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "command_execution_duration_seconds",
				Help:    "Duration of host command executions in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"command"},
		),
	}

	m.registry.MustRegister(
		m.ExtensionInvocationsTotal,
		m.ExtensionInvocationDuration,
		m.ExtensionNotFoundTotal,
		m.ExtensionsRegistered,
		m.CommandExecutionsTotal,
		m.CommandExecutionDuration,
	)

	return m
}

// ObserveInvocation records one registry dispatch. An unknown extension id is
// counted separately and gets no duration sample.
func (m *Metrics) ObserveInvocation(extensionID, status string, d time.Duration) {
	m.ExtensionInvocationsTotal.WithLabelValues(extensionID, status).Inc()
	if status == StatusNotFound {
		m.ExtensionNotFoundTotal.Inc()
		return
	}
	m.ExtensionInvocationDuration.WithLabelValues(extensionID).Observe(d.Seconds())
}

// ObserveCommand records one command execution
func (m *Metrics) ObserveCommand(command, status string, d time.Duration) {
	m.CommandExecutionsTotal.WithLabelValues(command, status).Inc()
	m.CommandExecutionDuration.WithLabelValues(command).Observe(d.Seconds())
}

// SetRegistered sets the registered extension gauge
func (m *Metrics) SetRegistered(n int) {
	m.ExtensionsRegistered.Set(float64(n))
}

// Handler returns an HTTP handler for the metrics endpoint. Nothing in this
// module serves it; the host mounts it if it runs an HTTP server.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry returns the Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
