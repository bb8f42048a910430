// Package relay manages individual WebSocket sessions, handling read/write
// pumps, rate limiting, and lifecycle control for each connection.
package relay

import (
	"errors"
	"io"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send protocol-level pings with this period. Must be less than pongWait.
	pingPeriod = 54 * time.Second
)

// Session is one connected client's server-side state: the WebSocket
// connection, the outbound queue, and — once the first valid join has been
// processed — the bound room code, identity, and display name.
type Session struct {
	conn *websocket.Conn
	send chan []byte
	hub  *Hub
	addr string

	// closed is guarded by the hub's session mutex.
	closed bool

	// Bound exactly once by the hub loop on the first valid join; empty
	// roomCode means the session is still unjoined.
	roomCode string
	identity string
	name     string

	maxMessageSize int64
	rateLimiter    *rateLimiter
	rateLimit      RateLimitConfig
	log            *logrus.Entry
}

// NewSession creates a Session for conn with a buffered outbound queue. The
// read limit and rate-limiter parameters come from the active configuration.
func NewSession(conn *websocket.Conn, hub *Hub, addr string) *Session {
	cfg := currentConfig()
	if conn != nil {
		conn.SetReadLimit(cfg.MaxMessageSize)
	}

	return &Session{
		conn:           conn,
		send:           make(chan []byte, 256),
		hub:            hub,
		addr:           addr,
		maxMessageSize: cfg.MaxMessageSize,
		rateLimiter:    newRateLimiter(cfg.RateLimit.Burst, cfg.RateLimit.RefillInterval),
		rateLimit:      cfg.RateLimit,
		log:            logrus.WithField("remote_addr", addr),
	}
}

// joined reports whether the session has been bound to a room.
func (s *Session) joined() bool {
	return s.roomCode != ""
}

// setupReadConnection configures the read deadline and pong handler so dead
// peers are detected by the ping/pong cycle.
func (s *Session) setupReadConnection() {
	if err := s.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		s.log.WithError(err).Warn("Error setting initial read deadline")
	}
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
}

// logReadError classifies a read failure so routine disconnects stay quiet
// while genuine protocol errors surface in the logs.
func (s *Session) logReadError(err error) {
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		s.log.Warnf("Message exceeded maximum size of %d bytes", s.maxMessageSize)
	case websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure):
		s.log.WithError(err).Debug("Session disconnected")
	case errors.Is(err, io.EOF) || isExpectedCloseError(err):
		s.log.WithError(err).Debug("Session connection closed")
	default:
		s.log.WithError(err).Warn("WebSocket read error")
	}
}

// readPump pumps inbound frames from the connection to the hub's event loop.
// Frames over the rate limit are discarded before they reach the router. On
// any read failure the pump exits and requests unregistration, which is how
// every disconnect — clean or not — gets cleaned up.
func (s *Session) readPump() {
	defer func() {
		select {
		case s.hub.unregister <- s:
		case <-s.hub.ctx.Done():
		}
		if err := s.conn.Close(); err != nil && !isExpectedCloseError(err) {
			s.log.WithError(err).Debug("Error closing connection in readPump")
		}
	}()

	s.setupReadConnection()

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			s.logReadError(err)
			break
		}

		if !s.rateLimiter.allow() {
			s.log.Debugf("Rate limit exceeded (%d messages per %s); discarding message",
				s.rateLimit.Burst, s.rateLimit.RefillInterval)
			continue
		}

		select {
		case s.hub.inbound <- inboundFrame{sess: s, payload: raw}:
		case <-s.hub.ctx.Done():
			return
		}
	}
}

// writePump pumps queued outbound messages to the connection and keeps the
// link alive with periodic pings. It exits when the send queue is closed by
// the hub or when any write fails.
func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		if err := s.conn.Close(); err != nil && !isExpectedCloseError(err) {
			s.log.WithError(err).Debug("Error closing connection in writePump")
		}
	}()

	for {
		select {
		case message, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the queue during unregistration.
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				s.log.WithError(err).Debug("Failed to write message")
				return
			}

		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.log.WithError(err).Debug("Failed to write ping message")
				return
			}
		}
	}
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
