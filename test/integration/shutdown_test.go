package integration

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roomcast/roomcast/internal/relay"
	"github.com/roomcast/roomcast/test/testhelpers"
)

// TestHubShutdownClosesClients verifies that shutting the hub down closes
// live connections and completes within the timeout.
func TestHubShutdownClosesClients(t *testing.T) {
	hub, testServer := startRelay(t, nil)

	conn := testhelpers.DialWebSocket(t, testServer.URL)
	testhelpers.SendJSON(t, conn, map[string]string{"type": "join", "room": "ABC"})
	ack := testhelpers.ReadJSON(t, conn, time.Second)
	require.Equal(t, "ack", ack["type"])

	require.NoError(t, hub.Shutdown(2*time.Second))

	// The server closed the connection; the next read must fail.
	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}

// TestHTTPServerGracefulShutdown verifies that ShutdownServer stops a running
// server without error.
func TestHTTPServerGracefulShutdown(t *testing.T) {
	hub := relay.NewHub(relay.NewRegistry())
	go hub.Run()
	t.Cleanup(func() { _ = hub.Shutdown(2 * time.Second) })

	server := relay.CreateServer("127.0.0.1:0", relay.SetupRoutes(hub))

	errCh := make(chan error, 1)
	go func() {
		errCh <- relay.StartServer(server)
	}()

	// Give the listener a moment to come up before shutting it down.
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, relay.ShutdownServer(server, 2*time.Second))

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, http.ErrServerClosed)
	case <-time.After(time.Second):
		t.Fatal("server did not exit after shutdown")
	}
}
