// Package observability registers the service-wide Prometheus metrics.
package observability

import "github.com/prometheus/client_golang/prometheus"

var (
	activitiesLogged = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "footprint",
		Subsystem: "activities",
		Name:      "logged_total",
		Help:      "Number of activities logged, labeled by category.",
	}, []string{"category"})

	insightsGenerated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "footprint",
		Subsystem: "insights",
		Name:      "generated_total",
		Help:      "Number of insight generations that produced a goal, labeled by category.",
	}, []string{"category"})

	goalProgressReports = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "footprint",
		Subsystem: "insights",
		Name:      "progress_reports_total",
		Help:      "Number of accepted manual goal progress reports.",
	})

	notificationsDelivered = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "footprint",
		Subsystem: "notify",
		Name:      "delivered_total",
		Help:      "Realtime notifications handed to a live connection, labeled by event.",
	}, []string{"event"})

	notificationsDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "footprint",
		Subsystem: "notify",
		Name:      "dropped_total",
		Help:      "Realtime notifications dropped because delivery failed, labeled by event.",
	}, []string{"event"})
)

func init() {
	prometheus.MustRegister(
		activitiesLogged,
		insightsGenerated,
		goalProgressReports,
		notificationsDelivered,
		notificationsDropped,
	)
}

// RecordActivityLogged counts a persisted activity.
func RecordActivityLogged(category string) {
	activitiesLogged.WithLabelValues(category).Inc()
}

// RecordInsightGenerated counts a goal produced by the insight engine.
func RecordInsightGenerated(category string) {
	insightsGenerated.WithLabelValues(category).Inc()
}

// RecordGoalProgressReported counts an accepted manual progress report.
func RecordGoalProgressReported() {
	goalProgressReports.Inc()
}

// RecordNotificationDelivered counts a successful realtime delivery.
func RecordNotificationDelivered(event string) {
	notificationsDelivered.WithLabelValues(event).Inc()
}

// RecordNotificationDropped counts a swallowed notification failure.
func RecordNotificationDropped(event string) {
	notificationsDropped.WithLabelValues(event).Inc()
}
