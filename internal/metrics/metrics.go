// Package metrics exposes Prometheus instruments for cart synchronization.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "medimart"

// Metrics groups the cart instruments on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	mutationsTotal *prometheus.CounterVec
	changesTotal   *prometheus.CounterVec
	observers      prometheus.Gauge
	cartUnits      prometheus.Gauge
}

// New creates and registers all instruments.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.mutationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cart",
			Name:      "mutations_total",
			Help:      "Cart mutations by operation and result.",
		},
		[]string{"op", "result"},
	)

	m.changesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cart",
			Name:      "changes_total",
			Help:      "Change notifications delivered, by source (local, remote, poll).",
		},
		[]string{"source"},
	)

	m.observers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cart",
			Name:      "observers_mounted",
			Help:      "Observers currently mounted in this execution context.",
		},
	)

	m.cartUnits = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cart",
			Name:      "units",
			Help:      "Total quantity in the cart as last persisted by this context.",
		},
	)

	m.registry.MustRegister(m.mutationsTotal, m.changesTotal, m.observers, m.cartUnits)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry (for tests).
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Mutation records the outcome of a cart mutation.
func (m *Metrics) Mutation(op string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.mutationsTotal.WithLabelValues(op, result).Inc()
}

// Change records a delivered change notification.
func (m *Metrics) Change(source string) {
	if m == nil {
		return
	}
	m.changesTotal.WithLabelValues(source).Inc()
}

// ObserverMounted tracks observer lifecycle.
func (m *Metrics) ObserverMounted(delta int) {
	if m == nil {
		return
	}
	m.observers.Add(float64(delta))
}

// CartUnits sets the current unit count.
func (m *Metrics) CartUnits(n int) {
	if m == nil {
		return
	}
	m.cartUnits.Set(float64(n))
}
