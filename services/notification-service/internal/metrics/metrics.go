package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	NotificationsSentTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_sent_total",
		Help: "Notifications sent, by event type",
	}, []string{"event_type"})
	NotificationsFailedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_failed_total",
		Help: "Deliveries sent to retry or dlq, by reason",
	}, []string{"reason"})
	DuplicateEventsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notifications_duplicate_events_total",
		Help: "Events skipped because they were already processed",
	})
)

func init() {
	prometheus.MustRegister(NotificationsSentTotal, NotificationsFailedTotal, DuplicateEventsTotal)
}
