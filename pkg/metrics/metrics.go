package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// BackofficeMetrics records the business counters exposed at /metrics.
type BackofficeMetrics struct {
	ordersCreated   prometheus.Counter
	orderStatus     *prometheus.CounterVec
	paymentsTotal   *prometheus.CounterVec
	refundsTotal    prometheus.Counter
	returnsDecided  *prometheus.CounterVec
	lowStockAlerts  prometheus.Counter
	outboxPublished *prometheus.CounterVec
}

// NewBackofficeMetrics registers the counters on the provided registerer.
func NewBackofficeMetrics(reg prometheus.Registerer) *BackofficeMetrics {
	if reg == nil {
		return &BackofficeMetrics{}
	}
	m := &BackofficeMetrics{
		ordersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "Orders successfully created.",
		}),
		orderStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "order_status_transitions_total",
			Help: "Order status transitions by target status.",
		}, []string{"status"}),
		paymentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Payment confirmations by outcome.",
		}, []string{"outcome"}),
		refundsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "refunds_total",
			Help: "Refunds issued through the processor.",
		}),
		returnsDecided: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "returns_decided_total",
			Help: "Return requests decided by staff.",
		}, []string{"decision"}),
		lowStockAlerts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "low_stock_alerts_total",
			Help: "Low stock notifications emitted.",
		}),
		outboxPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "outbox_published_total",
			Help: "Outbox events published by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(
		m.ordersCreated,
		m.orderStatus,
		m.paymentsTotal,
		m.refundsTotal,
		m.returnsDecided,
		m.lowStockAlerts,
		m.outboxPublished,
	)
	return m
}

// IncOrderCreated increments the order creation counter.
func (m *BackofficeMetrics) IncOrderCreated() {
	if m == nil || m.ordersCreated == nil {
		return
	}
	m.ordersCreated.Inc()
}

// IncOrderStatus records a transition into the named status.
func (m *BackofficeMetrics) IncOrderStatus(status string) {
	if m == nil || m.orderStatus == nil {
		return
	}
	m.orderStatus.WithLabelValues(normalizeLabel(status)).Inc()
}

// IncPayment records a payment confirmation outcome (succeeded/failed).
func (m *BackofficeMetrics) IncPayment(outcome string) {
	if m == nil || m.paymentsTotal == nil {
		return
	}
	m.paymentsTotal.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncRefund increments the refund counter.
func (m *BackofficeMetrics) IncRefund() {
	if m == nil || m.refundsTotal == nil {
		return
	}
	m.refundsTotal.Inc()
}

// IncReturnDecision records a staff decision (approved/rejected).
func (m *BackofficeMetrics) IncReturnDecision(decision string) {
	if m == nil || m.returnsDecided == nil {
		return
	}
	m.returnsDecided.WithLabelValues(normalizeLabel(decision)).Inc()
}

// IncLowStockAlert increments the low stock alert counter.
func (m *BackofficeMetrics) IncLowStockAlert() {
	if m == nil || m.lowStockAlerts == nil {
		return
	}
	m.lowStockAlerts.Inc()
}

// IncOutboxPublished records an outbox publish attempt outcome.
func (m *BackofficeMetrics) IncOutboxPublished(outcome string) {
	if m == nil || m.outboxPublished == nil {
		return
	}
	m.outboxPublished.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
