package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bridge_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Relay metrics
	RelayMessagesReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bridge_relay_messages_received_total",
			Help: "Messages ingested through the webhook",
		},
	)

	RelayResponsesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bridge_relay_responses_sent_total",
			Help: "Responses recorded through the relay API",
		},
	)

	// Bridge metrics
	BridgeMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bridge_messages_sent_total",
			Help: "Messages sent through the bridge",
		},
	)

	BridgeResponsesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bridge_responses_sent_total",
			Help: "Responses sent through the bridge",
		},
	)

	BridgeEventsEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_events_emitted_total",
			Help: "Bridge events emitted, by event name",
		},
		[]string{"event"},
	)

	BridgeEntriesExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bridge_entries_expired_total",
			Help: "Messages and responses removed by cleanup",
		},
	)

	// Auto-reply metrics
	AutoRepliesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_auto_replies_total",
			Help: "Automatic replies sent, by category",
		},
		[]string{"category"},
	)

	// Rate limit metrics
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_rate_limit_hits_total",
			Help: "Requests rejected by rate limiting",
		},
		[]string{"endpoint"},
	)
)
