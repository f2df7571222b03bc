// Package metrics описывает метрики Prometheus сервиса членства.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "membership"

var (
	// HTTPRequests считает HTTP-запросы.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests",
		},
		[]string{"method", "route", "status_code"},
	)

	// HTTPRequestDuration измеряет длительность HTTP-запросов.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)

	notificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_sent_total",
			Help:      "Notifications delivered to users",
		},
		[]string{"channel", "kind"},
	)

	notificationsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_failed_total",
			Help:      "Notifications that could not be delivered",
		},
		[]string{"channel", "kind"},
	)

	subscriptionsExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscriptions_expired_total",
			Help:      "Subscriptions moved to expired by the lifecycle sweep",
		},
	)

	schedulerPassDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scheduler_pass_duration_seconds",
			Help:      "Duration of one scheduler pass",
			Buckets:   []float64{.1, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	paymentsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_processed_total",
			Help:      "Payment webhooks applied, by resulting status",
		},
		[]string{"status"},
	)
)

// Виды уведомлений.
const (
	KindExpired   = "expired"
	KindWarning   = "warning"
	KindPayment   = "payment"
	KindBroadcast = "broadcast"
	KindLogin     = "login"
)

// RecordNotification учитывает попытку доставки.
func RecordNotification(channel, kind string, err error) {
	if err != nil {
		notificationsFailed.WithLabelValues(channel, kind).Inc()
		return
	}
	notificationsSent.WithLabelValues(channel, kind).Inc()
}

// RecordExpired учитывает истёкшую подписку.
func RecordExpired() {
	subscriptionsExpired.Inc()
}

// ObserveSchedulerPass записывает длительность прохода планировщика.
func ObserveSchedulerPass(d time.Duration) {
	schedulerPassDuration.Observe(d.Seconds())
}

// RecordPayment учитывает обработанный платёж.
func RecordPayment(status string) {
	paymentsProcessed.WithLabelValues(status).Inc()
}
