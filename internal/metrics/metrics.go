package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pla_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pla_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	TransactionsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pla_transactions_created_total",
			Help: "Total number of ledger transactions created",
		},
		[]string{"gateway", "direction"},
	)

	WebhookEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pla_webhook_events_total",
			Help: "Total number of provider webhook events received",
		},
		[]string{"provider", "outcome"},
	)

	RefundsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pla_refunds_total",
			Help: "Total number of refunds issued",
		},
	)

	EscrowOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pla_escrow_operations_total",
			Help: "Total number of escrow operations",
		},
		[]string{"operation"},
	)

	SubscriptionsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pla_subscriptions_created_total",
			Help: "Total number of subscriptions created",
		},
		[]string{"interval"},
	)

	NotificationQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pla_notification_queue_length",
			Help: "Current length of the notification queue",
		},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordTransactionCreated(gateway, direction string) {
	TransactionsCreatedTotal.WithLabelValues(gateway, direction).Inc()
}

func RecordWebhookEvent(provider, outcome string) {
	WebhookEventsTotal.WithLabelValues(provider, outcome).Inc()
}

func RecordRefund() {
	RefundsTotal.Inc()
}

func RecordEscrowOperation(operation string) {
	EscrowOperationsTotal.WithLabelValues(operation).Inc()
}

func RecordSubscriptionCreated(interval string) {
	SubscriptionsCreatedTotal.WithLabelValues(interval).Inc()
}
