package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the configuration client.
type Metrics struct {
	compositionsTotal *prometheus.CounterVec
	namespacesLoaded  prometheus.Gauge
	changeEventsTotal *prometheus.CounterVec
	registry          *prometheus.Registry
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "avconfig"
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
	}

	m.compositionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compositions_total",
			Help:      "Total number of property source composition passes",
		},
		[]string{"phase"},
	)

	m.namespacesLoaded = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "namespaces_loaded",
			Help:      "Number of remote namespaces currently loaded",
		},
	)

	m.changeEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "change_events_total",
			Help:      "Total number of published configuration change events",
		},
		[]string{"namespace", "type"},
	)

	m.registry.MustRegister(
		m.compositionsTotal,
		m.namespacesLoaded,
		m.changeEventsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// RecordComposition increments the composition pass counter for a phase
// ("main" or "bootstrap").
func (m *Metrics) RecordComposition(phase string) {
	m.compositionsTotal.WithLabelValues(phase).Inc()
}

// SetNamespacesLoaded records the number of loaded namespaces.
func (m *Metrics) SetNamespacesLoaded(n int) {
	m.namespacesLoaded.Set(float64(n))
}

// RecordChangeEvent increments the change event counter.
func (m *Metrics) RecordChangeEvent(namespace, changeType string) {
	m.changeEventsTotal.WithLabelValues(namespace, changeType).Inc()
}

// Handler returns an HTTP handler serving the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
