// Package relay exposes HTTP handlers, including the WebSocket upgrade, the
// liveness line, the JSON status surface, and the built-in test page.
package relay

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     checkOrigin,
}

// WebSocketHandler handles WebSocket upgrade requests. It validates the
// method, upgrades the connection, and hands the new session to the hub,
// which launches the read/write pumps.
func (h *Hub) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	sess := NewSession(conn, h, r.RemoteAddr)

	// Register the session with the hub; the hub launches the pump goroutines.
	select {
	case h.register <- sess:
	case <-h.ctx.Done():
		_ = conn.Close()
	}
}

// HealthHandler provides a simple liveness endpoint that returns server
// status as plain text.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "Roomcast relay is running!")
}

// statusResponse is the JSON shape served by StatusHandler.
type statusResponse struct {
	UptimeSeconds int64          `json:"uptimeSeconds"`
	Rooms         map[string]int `json:"rooms"`
	TotalSessions int            `json:"totalSessions"`
}

// StatusHandler reports process uptime, per-room member counts, and the total
// number of connected sessions. It is read-only and only enumerates the
// registry.
func (h *Hub) StatusHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	resp := statusResponse{
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
		Rooms:         h.registry.Counts(),
		TotalSessions: h.SessionCount(),
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logrus.WithError(err).Debug("Error writing status response")
	}
}

// TestPageHandler serves a minimal HTML page for exercising the join/relay
// protocol from a browser: join a room, send chat messages, watch peer
// traffic.
func TestPageHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	html := `<!DOCTYPE html>
<html>
<head>
    <title>Roomcast Test</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        #log { border: 1px solid #ccc; height: 300px; padding: 10px; overflow-y: scroll; margin: 10px 0; background-color: #f9f9f9; }
        input[type="text"] { padding: 5px; margin-right: 10px; }
        button { padding: 5px 15px; }
    </style>
</head>
<body>
    <h1>Roomcast Test</h1>
    <div>
        <input type="text" id="room" placeholder="Room code" value="LOBBY">
        <input type="text" id="name" placeholder="Name (optional)">
        <button onclick="join()">Join</button>
    </div>
    <div>
        <input type="text" id="text" placeholder="Message..." disabled>
        <button id="sendBtn" onclick="sendChat()" disabled>Send</button>
    </div>
    <div id="log"></div>

    <script>
        let ws = null;
        const log = document.getElementById('log');

        function append(line) {
            const div = document.createElement('div');
            div.textContent = line;
            log.appendChild(div);
            log.scrollTop = log.scrollHeight;
        }

        function join() {
            if (ws) { ws.close(); }
            ws = new WebSocket('ws://' + location.host + '/ws');
            ws.onopen = function() {
                ws.send(JSON.stringify({
                    type: 'join',
                    room: document.getElementById('room').value,
                    fromName: document.getElementById('name').value || undefined
                }));
            };
            ws.onmessage = function(ev) {
                append(ev.data);
                const msg = JSON.parse(ev.data);
                if (msg.type === 'ack') {
                    document.getElementById('text').disabled = false;
                    document.getElementById('sendBtn').disabled = false;
                }
            };
            ws.onclose = function() {
                append('-- disconnected --');
                document.getElementById('text').disabled = true;
                document.getElementById('sendBtn').disabled = true;
                ws = null;
            };
        }

        function sendChat() {
            const input = document.getElementById('text');
            if (input.value && ws && ws.readyState === WebSocket.OPEN) {
                ws.send(JSON.stringify({ type: 'chat', text: input.value }));
                append('(you) ' + input.value);
                input.value = '';
            }
        }

        document.getElementById('text').addEventListener('keypress', function(e) {
            if (e.key === 'Enter') { sendChat(); }
        });
    </script>
</body>
</html>`
	if _, err := fmt.Fprint(w, html); err != nil {
		logrus.WithError(err).Debug("Error writing HTML response")
	}
}
