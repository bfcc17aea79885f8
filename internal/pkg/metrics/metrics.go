// Package metrics exposes separation counters and gauges to Prometheus.
package metrics

import (
	"net/http"
	"strings"
	"time"

	"separation/internal/core/domain/model/order"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "separation"

// Metrics holds every collector of the service on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	OrdersCreated      *prometheus.CounterVec
	LineTransitions    *prometheus.CounterVec
	OrdersFinalized    *prometheus.CounterVec
	ShippingChanges    *prometheus.CounterVec
	SeparationDuration prometheus.Histogram

	InProgressOrders      prometheus.Gauge
	AwaitingPurchaseLines prometheus.Gauge

	HubSubscribers   *prometheus.GaugeVec
	HubEventsDropped *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{registry: registry}

	m.OrdersCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_created_total",
			Help:      "Order creation attempts by outcome",
		},
		[]string{"outcome"},
	)
	m.LineTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "line_transitions_total",
			Help:      "Line transition attempts by action and outcome",
		},
		[]string{"action", "outcome"},
	)
	m.OrdersFinalized = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_finalized_total",
			Help:      "Order finalization attempts by outcome",
		},
		[]string{"outcome"},
	)
	m.ShippingChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shipping_changes_total",
			Help:      "Logistics or packaging change attempts by outcome",
		},
		[]string{"outcome"},
	)
	m.SeparationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "order_separation_duration_seconds",
			Help:      "Time from order start to finalization",
			Buckets:   []float64{300, 900, 1800, 3600, 7200, 14400, 28800, 86400},
		},
	)
	m.InProgressOrders = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "in_progress_orders",
			Help:      "Orders currently being separated",
		},
	)
	m.AwaitingPurchaseLines = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "awaiting_purchase_lines",
			Help:      "Lines waiting on purchasing in in-progress orders",
		},
	)
	m.HubSubscribers = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "hub_subscribers",
			Help:      "Open observer subscriptions by topic kind",
		},
		[]string{"topic"},
	)
	m.HubEventsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hub_events_dropped_total",
			Help:      "Events dropped for lagging subscribers by topic kind",
		},
		[]string{"topic"},
	)

	registry.MustRegister(
		m.OrdersCreated,
		m.LineTransitions,
		m.OrdersFinalized,
		m.ShippingChanges,
		m.SeparationDuration,
		m.InProgressOrders,
		m.AwaitingPurchaseLines,
		m.HubSubscribers,
		m.HubEventsDropped,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) OrderCreated(outcome string) {
	m.OrdersCreated.WithLabelValues(outcome).Inc()
}

func (m *Metrics) LineTransitioned(action order.Action, outcome string) {
	m.LineTransitions.WithLabelValues(action.String(), outcome).Inc()
}

// OrderFinalized observes elapsed only for successful finalizations.
func (m *Metrics) OrderFinalized(outcome string, elapsed time.Duration) {
	m.OrdersFinalized.WithLabelValues(outcome).Inc()
	if elapsed > 0 {
		m.SeparationDuration.Observe(elapsed.Seconds())
	}
}

func (m *Metrics) ShippingChanged(outcome string) {
	m.ShippingChanges.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SetFleet(inProgress, awaitingPurchase int) {
	m.InProgressOrders.Set(float64(inProgress))
	m.AwaitingPurchaseLines.Set(float64(awaitingPurchase))
}

func (m *Metrics) SubscriberAdded(topic string) {
	m.HubSubscribers.WithLabelValues(topicKind(topic)).Inc()
}

func (m *Metrics) SubscriberRemoved(topic string) {
	m.HubSubscribers.WithLabelValues(topicKind(topic)).Dec()
}

func (m *Metrics) EventDropped(topic string) {
	m.HubEventsDropped.WithLabelValues(topicKind(topic)).Inc()
}

// topicKind keeps order ids out of label values.
func topicKind(topic string) string {
	kind, _, _ := strings.Cut(topic, ":")
	return kind
}
