package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cashbox_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cashbox_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	TopupsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cashbox_topups_created_total",
			Help: "Total number of top-up intents created",
		},
	)

	TopupTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cashbox_topup_transitions_total",
			Help: "Top-up state transitions by target status",
		},
		[]string{"status"},
	)

	TopupsExpiredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cashbox_topups_expired_total",
			Help: "Pending top-ups cancelled by the expiry sweeper",
		},
	)

	WithdrawalsRequestedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cashbox_withdrawals_requested_total",
			Help: "Total number of withdrawal requests accepted",
		},
	)

	WithdrawalTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cashbox_withdrawal_transitions_total",
			Help: "Withdrawal state transitions by target status",
		},
		[]string{"status"},
	)

	WalletCreditedCentsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cashbox_wallet_credited_cents_total",
			Help: "Total minor units credited to wallets via completed top-ups",
		},
	)

	WalletDebitedCentsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cashbox_wallet_debited_cents_total",
			Help: "Total minor units debited from wallets via completed withdrawals",
		},
	)

	NotificationsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cashbox_notifications_sent_total",
			Help: "Total number of notifications sent",
		},
		[]string{"type", "status"},
	)

	NotifyQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cashbox_notify_queue_length",
			Help: "Current length of the notification queue",
		},
	)

	ConcurrencyRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cashbox_concurrency_retries_total",
			Help: "Money transactions retried after serialization failures",
		},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordTopupTransition(status string) {
	TopupTransitionsTotal.WithLabelValues(status).Inc()
}

func RecordWithdrawalTransition(status string) {
	WithdrawalTransitionsTotal.WithLabelValues(status).Inc()
}
