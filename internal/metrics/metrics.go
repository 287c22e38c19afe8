// Package metrics exposes Prometheus collectors for the ingestion pipeline.
// HTTP traffic metrics live in the middleware package; the counters here
// cover the message path from the Telegram source to the dashboard fan-out.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// MessagesReceived counts every inbound message handed to the pipeline,
	// before any filtering.
	MessagesReceived = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ingest_messages_received_total",
		Help: "Total inbound messages received by the ingestion pipeline.",
	})

	// MessagesDropped counts messages dropped by the monitored-sender check.
	MessagesDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ingest_messages_dropped_total",
		Help: "Messages dropped because the sender is not monitored.",
	})

	// KeywordMatches counts messages that matched a configured keyword.
	KeywordMatches = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ingest_keyword_matches_total",
		Help: "Messages that matched a configured keyword.",
	})

	// ResolveFailures counts messages dropped because a dimension lookup or
	// insert failed.
	ResolveFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ingest_resolve_failures_total",
		Help: "Messages dropped due to reference resolution errors.",
	})

	// PersistFailures counts fact inserts that failed. Such messages are
	// still broadcast; durability is best effort, liveness is not.
	PersistFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ingest_persist_failures_total",
		Help: "Notification inserts that failed (message still broadcast).",
	})

	// AlertsBroadcast counts alerts pushed to the dashboard hub.
	AlertsBroadcast = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ingest_alerts_broadcast_total",
		Help: "Alerts fanned out to connected dashboard sessions.",
	})
)

func init() {
	prometheus.MustRegister(
		MessagesReceived,
		MessagesDropped,
		KeywordMatches,
		ResolveFailures,
		PersistFailures,
		AlertsBroadcast,
	)
}
