package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "payments"

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by route and status code.",
		},
		[]string{"method", "route", "code"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets: []float64{
				0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.3, 0.5, 1, 2, 5,
			},
		},
		[]string{"method", "route"},
	)

	paymentsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "created_total",
			Help:      "Payments created by type.",
		},
		[]string{"type"},
	)

	paymentsCancelledTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cancelled_total",
			Help:      "Payments cancelled by type.",
		},
		[]string{"type"},
	)

	outboxDeliveredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_delivered_total",
			Help:      "Outbox events accepted by the conduit.",
		},
		[]string{"event", "conduit"},
	)

	outboxFailedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_failed_total",
			Help:      "Outbox delivery attempts that left the event in place.",
		},
		[]string{"reason"},
	)

	outboxDeliveryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "outbox_delivery_duration_seconds",
			Help:      "Time spent handing one event to the conduit.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	auditDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "client_audit_dropped_total",
			Help:      "Client audit lookups dropped because the queue was full.",
		},
	)
)

// Outbox failure reasons.
const (
	ReasonDecode  = "decode"
	ReasonSend    = "send"
	ReasonStorage = "storage"
)

func ObserveHTTP(method, route, code string, seconds float64) {
	httpRequestsTotal.WithLabelValues(method, route, code).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(seconds)
}

func IncPaymentCreated(paymentType string) {
	paymentsCreatedTotal.WithLabelValues(paymentType).Inc()
}

func IncPaymentCancelled(paymentType string) {
	paymentsCancelledTotal.WithLabelValues(paymentType).Inc()
}

func IncOutboxDelivered(event, conduit string) {
	outboxDeliveredTotal.WithLabelValues(event, conduit).Inc()
}

func IncOutboxFailed(reason string) {
	outboxFailedTotal.WithLabelValues(reason).Inc()
}

func ObserveOutboxDelivery(seconds float64) {
	outboxDeliveryDuration.Observe(seconds)
}

func IncAuditDropped() {
	auditDroppedTotal.Inc()
}

func Handler() http.Handler {
	return promhttp.Handler()
}
