package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics aggregates the Prometheus collectors for the storefront.
type Metrics struct {
	registry *prometheus.Registry

	cartMutations       *prometheus.CounterVec
	persistenceFailures *prometheus.CounterVec
	checkoutHandoffs    prometheus.Counter
	cardRecycles        *prometheus.CounterVec
}

// NewMetrics registers the storefront collectors on a fresh registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		cartMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "cart",
			Name:      "mutations_total",
			Help:      "Cart mutations by operation.",
		}, []string{"op"}),
		persistenceFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "persistence_failures_total",
			Help:      "Writes to a backing store that failed and were absorbed.",
		}, []string{"store"}),
		checkoutHandoffs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "checkout",
			Name:      "handoffs_total",
			Help:      "Checkout handoffs initiated.",
		}),
		cardRecycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "float",
			Name:      "card_recycles_total",
			Help:      "Floating cards recycled past the top of the viewport, by zone.",
		}, []string{"zone"}),
	}

	registry.MustRegister(
		m.cartMutations,
		m.persistenceFailures,
		m.checkoutHandoffs,
		m.cardRecycles,
	)

	return m
}

// RecordMutation counts a cart mutation by operation name.
func (m *Metrics) RecordMutation(op string) {
	m.cartMutations.WithLabelValues(op).Inc()
}

// RecordPersistenceFailure counts an absorbed write failure for a store.
func (m *Metrics) RecordPersistenceFailure(store string) {
	m.persistenceFailures.WithLabelValues(store).Inc()
}

// RecordHandoff counts a checkout handoff.
func (m *Metrics) RecordHandoff() {
	m.checkoutHandoffs.Inc()
}

// RecordRecycle counts a floating card wrapping back below the viewport.
func (m *Metrics) RecordRecycle(zone string) {
	m.cardRecycles.WithLabelValues(zone).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
