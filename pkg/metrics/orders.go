package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics records order creation and webhook processing outcomes.
type OrderMetrics struct {
	created  *prometheus.CounterVec
	webhooks *prometheus.CounterVec
}

// NewOrderMetrics registers the order metrics on the provided registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	created := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "print_orders_created_total",
		Help: "Print orders created, labeled by checkout-session outcome.",
	}, []string{"outcome"})
	webhooks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_webhooks_total",
		Help: "Midtrans webhook deliveries, labeled by processing outcome.",
	}, []string{"outcome"})
	reg.MustRegister(created, webhooks)
	return &OrderMetrics{
		created:  created,
		webhooks: webhooks,
	}
}

// IncCreated increments the order-created counter for the given outcome.
func (m *OrderMetrics) IncCreated(outcome string) {
	if m == nil || m.created == nil {
		return
	}
	m.created.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncWebhook increments the webhook counter for the given outcome.
func (m *OrderMetrics) IncWebhook(outcome string) {
	if m == nil || m.webhooks == nil {
		return
	}
	m.webhooks.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
