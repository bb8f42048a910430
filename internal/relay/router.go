// Package relay routes inbound session payloads: join handling while a
// session is unjoined, control queries and the generic relay once joined.
package relay

import (
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"
)

// route dispatches one inbound payload from sess. Payloads that do not parse
// as a JSON object are dropped without a reply. Runs on the hub's event loop.
func (h *Hub) route(sess *Session, raw []byte) {
	msg, ok := parseInbound(raw)
	if !ok {
		sess.log.Debug("Dropping malformed payload")
		return
	}

	if !sess.joined() {
		h.handleJoin(sess, msg)
		return
	}

	room := h.registry.Lookup(sess.roomCode)
	if room == nil {
		// The sweeper reclaimed the room between messages; best-effort drop.
		return
	}
	h.registry.Touch(room, time.Now())

	switch msg.Type {
	case typeRoomCount:
		h.sendRoomCounts(sess)
	case typeKeepalive:
		h.sendPong(sess)
	default:
		h.relay(sess, room, msg)
	}
}

// handleJoin processes a message from an unjoined session. Only a join with a
// usable room code binds the session; anything else earns a single error
// reply and leaves the session unjoined.
func (h *Hub) handleJoin(sess *Session, msg *inboundMessage) {
	if msg.Type != typeJoin {
		h.sendError(sess, "join a room before sending messages")
		return
	}

	code := NormalizeRoomCode(msg.Room)
	if code == "" {
		h.sendError(sess, "join requires a room")
		return
	}

	room := h.registry.GetOrCreate(code)

	identity := msg.FromID
	if identity == "" {
		identity = newIdentity()
	}
	name := msg.FromName
	if name == "" {
		name = identity
	}

	// Bind exactly once; a joined session stays in its room until disconnect.
	sess.roomCode = code
	sess.identity = identity
	sess.name = name
	count := h.registry.Join(room, sess, time.Now())

	sess.log.WithFields(logrus.Fields{
		"room":     code,
		"identity": identity,
	}).Info("Session joined room")

	// The ack goes to the joiner before the join broadcast reaches peers.
	ack, _ := json.Marshal(ackMessage{
		Type:        typeAck,
		Room:        code,
		YourID:      identity,
		PlayerCount: count,
	})
	h.deliver(sess, ack)

	stampedJoin, err := msg.stamped(identity, name)
	if err != nil {
		h.log.WithError(err).Warn("Failed to re-stamp join message")
		return
	}
	h.broadcast(room, stampedJoin, sess)
}

// relay re-stamps an application message with the sender's server-bound
// identity and name — overwriting whatever the payload claimed — and fans it
// out to the rest of the room.
func (h *Hub) relay(sess *Session, room *Room, msg *inboundMessage) {
	payload, err := msg.stamped(sess.identity, sess.name)
	if err != nil {
		h.log.WithError(err).Warn("Failed to re-stamp relay message")
		return
	}
	relayedMessages.Inc()
	h.broadcast(room, payload, sess)
}

func (h *Hub) sendRoomCounts(sess *Session) {
	payload, _ := json.Marshal(roomCountsMessage{
		Type:   typeRoomCounts,
		Counts: h.registry.Counts(),
	})
	h.deliver(sess, payload)
}

func (h *Hub) sendPong(sess *Session) {
	payload, _ := json.Marshal(pongMessage{Type: typePong})
	h.deliver(sess, payload)
}

func (h *Hub) sendError(sess *Session, text string) {
	payload, _ := json.Marshal(errorMessage{Type: typeError, Message: text})
	h.deliver(sess, payload)
}
