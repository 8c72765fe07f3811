package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timetrack_http_requests_total",
			Help: "Total number of HTTP requests by route and status class",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "timetrack_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	WebSocketConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "timetrack_websocket_connections_active",
			Help: "Number of registered WebSocket connections",
		},
	)

	WebSocketConnectionsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timetrack_websocket_connections_rejected_total",
			Help: "Total number of WebSocket handshakes rejected",
		},
		[]string{"reason"},
	)

	WebSocketEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "timetrack_websocket_evictions_total",
			Help: "Total number of connections closed because the same user connected again",
		},
	)

	WebSocketMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timetrack_websocket_messages_total",
			Help: "Total number of inbound WebSocket messages by type",
		},
		[]string{"message_type"},
	)

	BroadcastTickDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "timetrack_broadcast_tick_duration_seconds",
			Help:    "Time spent recomputing and queueing one broadcast tick",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)

	BroadcastFramesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "timetrack_broadcast_frames_sent_total",
			Help: "Total number of timer snapshots queued to connections",
		},
	)

	BroadcastFramesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "timetrack_broadcast_frames_dropped_total",
			Help: "Total number of timer snapshots dropped because a connection's queue was full",
		},
	)

	TimersCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "timetrack_timers_created_total",
			Help: "Total number of timers started",
		},
	)

	TimersStopped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "timetrack_timers_stopped_total",
			Help: "Total number of timers stopped",
		},
	)
)
