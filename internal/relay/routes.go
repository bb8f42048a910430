// Package relay wires HTTP handlers into a ServeMux for the Roomcast
// application via routing helpers.
package relay

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes configures and returns an HTTP ServeMux with all application
// routes: liveness, JSON status, Prometheus metrics, the WebSocket endpoint,
// and the test page.
func SetupRoutes(hub *Hub) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", HealthHandler)
	mux.HandleFunc("/status", hub.StatusHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/ws", hub.WebSocketHandler)
	mux.HandleFunc("/test", TestPageHandler)
	return mux
}
