package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WebSocketConnectionsTotal is the gauge of total WebSocket connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "liberty_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// WebSocketEventsTotal counts WebSocket events by type.
	WebSocketEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "liberty_websocket_events_total",
		Help: "Total WebSocket events by type",
	}, []string{"event_type"})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "liberty_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})

	// TicketRoomConnections is the gauge of support-chat connections per ticket.
	TicketRoomConnections = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "liberty_ticket_room_connections",
		Help: "Number of WebSocket connections per support ticket room",
	}, []string{"ticket_id"})

	// ModerationEventsTotal counts moderation workflow events by kind.
	ModerationEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "liberty_moderation_events_total",
		Help: "Total moderation workflow events published",
	}, []string{"event_type"})
)
