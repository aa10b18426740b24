// Package telemetry provides Prometheus metrics for monitoring.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mcsim"

// Outcome labels for SimulationsTotal.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Metrics holds the service's collectors on a private registry. All record
// methods are safe on a nil *Metrics.
type Metrics struct {
	registry *prometheus.Registry

	SimulationsTotal   *prometheus.CounterVec
	SimulationDuration *prometheus.HistogramVec
	PathsTotal         prometheus.Counter
	RejectedRequests   *prometheus.CounterVec
	HistoryFallbacks   prometheus.Counter
}

// NewMetrics creates a Metrics instance with every collector registered.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		SimulationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "simulations_total",
			Help:      "Total number of ensemble simulations by model and outcome",
		}, []string{"model", "outcome"}),
		SimulationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "simulation_duration_seconds",
			Help:      "Ensemble simulation duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"model"}),
		PathsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "paths_total",
			Help:      "Total number of simulated paths",
		}),
		RejectedRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejected_requests_total",
			Help:      "Total number of rejected requests by reason",
		}, []string{"reason"}),
		HistoryFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_fallbacks_total",
			Help:      "Total number of tickers simulated on synthetic history",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordSimulation records one ensemble run.
func (m *Metrics) RecordSimulation(model string, paths int, seconds float64, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	m.SimulationsTotal.WithLabelValues(model, outcome).Inc()
	m.SimulationDuration.WithLabelValues(model).Observe(seconds)
	if err == nil {
		m.PathsTotal.Add(float64(paths))
	}
}

// RecordRejected records a request refused before simulation.
func (m *Metrics) RecordRejected(reason string) {
	if m == nil {
		return
	}
	m.RejectedRequests.WithLabelValues(reason).Inc()
}

// RecordHistoryFallbacks records tickers that fell back to synthetic history.
func (m *Metrics) RecordHistoryFallbacks(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.HistoryFallbacks.Add(float64(n))
}
