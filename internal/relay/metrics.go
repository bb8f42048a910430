package relay

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Relay-wide Prometheus metrics, served on /metrics.
var (
	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "roomcast_active_sessions",
		Help: "Number of currently connected sessions.",
	})

	roomsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "roomcast_rooms_created_total",
		Help: "Total number of rooms created.",
	})

	roomsReaped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "roomcast_rooms_reaped_total",
		Help: "Total number of idle empty rooms removed by the sweeper.",
	})

	relayedMessages = promauto.NewCounter(prometheus.CounterOpts{
		Name: "roomcast_relayed_messages_total",
		Help: "Total number of application messages relayed to room peers.",
	})

	broadcastDrops = promauto.NewCounter(prometheus.CounterOpts{
		Name: "roomcast_broadcast_drops_total",
		Help: "Broadcast deliveries skipped because the recipient was not writable.",
	})
)
