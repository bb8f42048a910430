// Package relay coordinates session registration, message routing, broadcast
// fan-out, and connection cleanup via the Hub type.
package relay

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// inboundFrame carries one raw payload from a session's read pump into the
// hub's event loop.
type inboundFrame struct {
	sess    *Session
	payload []byte
}

// Hub runs the relay's single logical thread of control: session
// registration, inbound message routing, disconnect cleanup, and the periodic
// idle-room sweep are all processed in sequence by Run, so Registry and Room
// state is never mutated concurrently.
type Hub struct {
	registry *Registry

	sessions   map[*Session]bool
	inbound    chan inboundFrame
	register   chan *Session
	unregister chan *Session

	mutex  sync.RWMutex
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	started       time.Time
	sweepInterval time.Duration
	idleThreshold time.Duration

	log *logrus.Entry
}

// NewHub creates a Hub bound to registry, with sweep tuning taken from the
// active configuration. Call Run in a separate goroutine to start it.
func NewHub(registry *Registry) *Hub {
	cfg := currentConfig()
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		registry:      registry,
		sessions:      make(map[*Session]bool),
		inbound:       make(chan inboundFrame),
		register:      make(chan *Session),
		unregister:    make(chan *Session),
		ctx:           ctx,
		cancel:        cancel,
		done:          make(chan struct{}),
		started:       time.Now(),
		sweepInterval: cfg.RoomSweepInterval,
		idleThreshold: cfg.RoomIdleThreshold,
		log:           logrus.WithField("component", "hub"),
	}
}

// Registry returns the room registry owned by this hub.
func (h *Hub) Registry() *Registry {
	return h.registry
}

// SessionCount returns the number of currently connected sessions, joined or
// not.
func (h *Hub) SessionCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.sessions)
}

// Run starts the hub's main event loop, handling session registration and
// unregistration, inbound message routing, and the idle-room sweep. This
// method should be called in a separate goroutine as it runs until Shutdown.
func (h *Hub) Run() {
	defer close(h.done)

	ticker := time.NewTicker(h.sweepInterval)
	defer ticker.Stop()

	h.log.Info("Hub running")

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownSessions()
			return

		case sess := <-h.register:
			if sess == nil {
				h.log.Warn("Received nil session registration; skipping")
				continue
			}
			h.registerSession(sess)

		case sess := <-h.unregister:
			h.handleDisconnect(sess)

		case frame := <-h.inbound:
			h.route(frame.sess, frame.payload)

		case now := <-ticker.C:
			h.registry.Sweep(now, h.idleThreshold)
		}
	}
}

// registerSession tracks the session and launches its pump goroutines.
func (h *Hub) registerSession(sess *Session) {
	h.mutex.Lock()
	sess.closed = false
	h.sessions[sess] = true
	count := len(h.sessions)
	h.mutex.Unlock()

	activeSessions.Inc()
	sess.log.Infof("Session connected. Total sessions: %d", count)

	h.wg.Add(2)
	go func() {
		defer h.wg.Done()
		sess.writePump()
	}()
	go func() {
		defer h.wg.Done()
		sess.readPump()
	}()
}

// handleDisconnect removes the session and, if it had joined a room, removes
// it from the room's membership and notifies the remaining members. This is
// the only event that fires without a sender-initiated message. A session
// that never joined disconnects silently.
func (h *Hub) handleDisconnect(sess *Session) {
	h.mutex.Lock()
	if _, ok := h.sessions[sess]; !ok {
		h.mutex.Unlock()
		return
	}
	delete(h.sessions, sess)
	sess.closed = true
	count := len(h.sessions)
	h.mutex.Unlock()

	// Close the queue after releasing the lock; this stops the write pump.
	close(sess.send)
	activeSessions.Dec()
	sess.log.Infof("Session disconnected. Total sessions: %d", count)

	if !sess.joined() {
		return
	}
	room := h.registry.Lookup(sess.roomCode)
	if room == nil {
		return
	}

	now := time.Now()
	h.registry.Leave(room, sess, now)

	payload, _ := json.Marshal(leaveMessage{
		Type:     typeLeave,
		FromID:   sess.identity,
		FromName: sess.name,
		TS:       now.UnixMilli(),
	})
	h.broadcast(room, payload, sess)
}

// broadcast delivers payload to every member of room except exclude. Delivery
// is per-recipient and non-blocking: members that are closing or have a full
// send queue are skipped, so one failing peer never stalls the rest and no
// failure reaches the sender.
func (h *Hub) broadcast(room *Room, payload []byte, exclude *Session) {
	for _, member := range h.registry.Members(room) {
		if member == exclude {
			continue
		}
		if !h.deliver(member, payload) {
			broadcastDrops.Inc()
			h.log.WithFields(logrus.Fields{
				"room":        room.Code(),
				"remote_addr": member.addr,
			}).Warn("Dropping broadcast to unwritable session")
		}
	}
}

// deliver queues payload on the session's send channel if the session is
// still registered and writable, reporting whether the message was accepted.
func (h *Hub) deliver(sess *Session, payload []byte) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Warnf("Recovered from panic in deliver: %v", r)
			ok = false
		}
	}()

	// Hold the lock across the send so the channel cannot be closed between
	// the registration check and the send itself.
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	if _, registered := h.sessions[sess]; !registered || sess.closed {
		return false
	}

	select {
	case sess.send <- payload:
		return true
	default:
		return false
	}
}

// shutdownSessions closes every live session queue and connection so both
// pump goroutines exit promptly.
func (h *Hub) shutdownSessions() {
	h.log.Info("Shutting down all session connections...")

	h.mutex.Lock()
	sessions := make([]*Session, 0, len(h.sessions))
	for sess := range h.sessions {
		sessions = append(sessions, sess)
		sess.closed = true
	}
	h.sessions = make(map[*Session]bool)
	h.mutex.Unlock()

	for _, sess := range sessions {
		close(sess.send)
		if sess.conn != nil {
			if err := sess.conn.Close(); err != nil && !isExpectedCloseError(err) {
				sess.log.WithError(err).Warn("Error closing session connection")
			}
		}
	}

	h.log.Infof("Closed %d session connections", len(sessions))
}

// Shutdown initiates graceful shutdown of the hub and waits for the event
// loop and all session goroutines to finish, or for the timeout to elapse.
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.log.Info("Initiating hub shutdown...")

	h.cancel()
	<-h.done

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.log.Info("Hub shutdown completed")
		return nil
	case <-time.After(timeout):
		h.log.Warn("Hub shutdown timeout reached, some goroutines may still be running")
		return context.DeadlineExceeded
	}
}
