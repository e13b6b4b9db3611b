// Package metrics exposes Prometheus instrumentation for the reminder
// pipeline, the realtime hub and the maintenance jobs.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RemindersSent counts dispatched session reminders by threshold
	RemindersSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studyhub_reminders_sent_total",
		Help: "Session reminders dispatched, by lead-time threshold.",
	}, []string{"threshold"})

	// NotificationsCreated counts persisted notifications by type
	NotificationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studyhub_notifications_created_total",
		Help: "Notifications persisted, by type.",
	}, []string{"type"})

	// RealtimeConnections tracks open WebSocket connections
	RealtimeConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "studyhub_realtime_connections",
		Help: "Currently open WebSocket connections.",
	})

	// RealtimeEvents counts handled and emitted hub events
	RealtimeEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studyhub_realtime_events_total",
		Help: "Hub events processed, by event name and direction.",
	}, []string{"event", "direction"})

	// JobRuns counts scheduler job executions by outcome
	JobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studyhub_job_runs_total",
		Help: "Scheduled job executions, by job name and outcome.",
	}, []string{"job", "status"})
)

// Handler returns the /metrics endpoint handler
func Handler() http.Handler {
	return promhttp.Handler()
}
