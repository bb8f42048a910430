package relay

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisconnectBroadcastsLeave(t *testing.T) {
	h := newTestHub(t)
	a := newTestSession(t, h, "10.0.0.1:1")
	b := newTestSession(t, h, "10.0.0.2:2")

	joinRoom(t, h, a, "ABC")
	joinRoom(t, h, b, "ABC")
	receiveJSON(t, a) // drain B's join broadcast

	h.handleDisconnect(b)

	leave := receiveJSON(t, a)
	assert.Equal(t, "leave", leave["type"])
	assert.Equal(t, b.identity, leave["fromId"])
	assert.Equal(t, b.name, leave["fromName"])
	assert.NotZero(t, leave["ts"])

	room := h.registry.Lookup("ABC")
	require.NotNil(t, room, "an occupied room survives the leave")
	members := h.registry.Members(room)
	require.Len(t, members, 1)
	assert.Same(t, a, members[0])

	// A second disconnect for the same session is a no-op.
	h.handleDisconnect(b)
	requireNoMessage(t, a)
}

func TestDisconnectUnjoinedSessionIsSilent(t *testing.T) {
	h := newTestHub(t)
	a := newTestSession(t, h, "10.0.0.1:1")
	joinRoom(t, h, a, "ABC")

	lurker := newTestSession(t, h, "10.0.0.9:9")
	h.handleDisconnect(lurker)

	requireNoMessage(t, a)
	assert.Equal(t, 1, h.SessionCount())
}

func TestDeliverAfterDisconnectFails(t *testing.T) {
	h := newTestHub(t)
	sess := newTestSession(t, h, "10.0.0.1:1")

	h.handleDisconnect(sess)

	assert.False(t, h.deliver(sess, []byte(`{}`)))
}

func TestBroadcastSkipsFullSendQueue(t *testing.T) {
	h := newTestHub(t)
	a := newTestSession(t, h, "10.0.0.1:1")
	b := newTestSession(t, h, "10.0.0.2:2")
	c := newTestSession(t, h, "10.0.0.3:3")

	joinRoom(t, h, a, "ABC")
	joinRoom(t, h, b, "ABC")
	receiveJSON(t, a)
	joinRoom(t, h, c, "ABC")
	receiveJSON(t, a)
	receiveJSON(t, b)

	// Saturate B's queue; it must not stall delivery to C.
	for i := 0; i < cap(b.send); i++ {
		b.send <- []byte(`{}`)
	}

	h.route(a, []byte(`{"type":"chat","text":"hi"}`))

	msg := receiveJSON(t, c)
	assert.Equal(t, "chat", msg["type"])
	requireNoMessage(t, a)
}

func TestHubRunRoutesInboundFrames(t *testing.T) {
	h := newTestHub(t)
	sess := newTestSession(t, h, "10.0.0.1:1")

	go h.Run()

	h.inbound <- inboundFrame{sess: sess, payload: []byte(`{"type":"join","room":"abc"}`)}

	ack := receiveJSON(t, sess)
	assert.Equal(t, "ack", ack["type"])
	assert.Equal(t, "ABC", ack["room"])

	require.NoError(t, h.Shutdown(time.Second))
}

func TestHubRunSkipsNilRegistration(t *testing.T) {
	h := newTestHub(t)
	go h.Run()

	select {
	case h.register <- nil:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("hub did not accept registration")
	}

	require.NoError(t, h.Shutdown(time.Second))
}

func TestShutdownWithNoSessions(t *testing.T) {
	h := newTestHub(t)
	go h.Run()

	require.NoError(t, h.Shutdown(time.Second))
}
