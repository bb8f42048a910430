// Package testhelpers provides common utilities for testing the Roomcast
// server: spinning up test servers, dialing WebSocket clients, and exchanging
// protocol messages with deadlines so a hung connection fails fast instead of
// stalling the suite.
package testhelpers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// CreateTestServer creates a test HTTP server with the given handler.
// It returns a running httptest.Server that should be closed after use.
func CreateTestServer(handler http.Handler) *httptest.Server {
	return httptest.NewServer(handler)
}

// WebSocketURL converts a test server's base URL into the ws:// URL of the
// /ws endpoint.
func WebSocketURL(t *testing.T, serverURL string) string {
	t.Helper()
	u, err := url.Parse(serverURL)
	if err != nil {
		t.Fatalf("Failed to parse test server URL: %v", err)
	}
	u.Scheme = "ws"
	u.Path = "/ws"
	return u.String()
}

// DialWebSocket connects to the test server's WebSocket endpoint with an
// Origin header matching the server, so the origin check passes the way a
// same-origin browser client would.
func DialWebSocket(t *testing.T, serverURL string) *websocket.Conn {
	t.Helper()
	header := http.Header{}
	header.Set("Origin", serverURL)

	conn, resp, err := websocket.DefaultDialer.Dial(WebSocketURL(t, serverURL), header)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	if resp != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// DialRaw attempts a WebSocket handshake with the given headers and returns
// the raw results, for tests that assert on handshake failures.
func DialRaw(t *testing.T, serverURL string, header http.Header) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	return websocket.DefaultDialer.Dial(WebSocketURL(t, serverURL), header)
}

// SendJSON marshals v and writes it as a text message.
func SendJSON(t *testing.T, conn *websocket.Conn, v interface{}) {
	t.Helper()
	payload, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Failed to marshal message: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		t.Fatalf("Failed to send message: %v", err)
	}
}

// ReadJSON reads the next message and decodes it into a generic map, failing
// the test if nothing arrives within timeout.
func ReadJSON(t *testing.T, conn *websocket.Conn, timeout time.Duration) map[string]interface{} {
	t.Helper()
	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		t.Fatalf("Failed to set read deadline: %v", err)
	}
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read message: %v", err)
	}
	var msg map[string]interface{}
	if err := json.Unmarshal(payload, &msg); err != nil {
		t.Fatalf("Failed to decode message %q: %v", payload, err)
	}
	return msg
}

// ExpectNoMessage asserts that nothing arrives on conn within timeout.
//
// It reads the underlying network connection directly rather than calling
// conn.ReadMessage: gorilla/websocket makes any read error — including the
// deadline expiry this helper relies on — permanent for the connection, which
// would break every subsequent read on conn.
func ExpectNoMessage(t *testing.T, conn *websocket.Conn, timeout time.Duration) {
	t.Helper()
	raw := conn.UnderlyingConn()
	if err := raw.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		t.Fatalf("Failed to set read deadline: %v", err)
	}
	var buf [1]byte
	n, err := raw.Read(buf[:])
	if err == nil || n > 0 {
		t.Fatalf("Expected no message, but data arrived on the connection")
	}
	if clearErr := raw.SetReadDeadline(time.Time{}); clearErr != nil {
		t.Fatalf("Failed to clear read deadline: %v", clearErr)
	}
	if netErr, ok := err.(interface{ Timeout() bool }); ok && netErr.Timeout() {
		return
	}
	if errors.Is(err, io.EOF) {
		// The peer closed the connection without sending data; the original
		// close-frame tolerance maps to EOF at the transport level.
		return
	}
	t.Fatalf("Unexpected error while waiting for absence of message: %v", err)
}

// AssertStatusCode checks if the HTTP response has the expected status code.
func AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("Expected status code %d, got %d", expected, resp.StatusCode)
	}
}

// AssertContentType checks if the HTTP response has the expected Content-Type header.
func AssertContentType(t *testing.T, resp *http.Response, expected string) {
	t.Helper()
	contentType := resp.Header.Get("Content-Type")
	if contentType != expected {
		t.Errorf("Expected content type %s, got %s", expected, contentType)
	}
}

// MakeRequest creates and executes an HTTP request, returning the response.
func MakeRequest(t *testing.T, method, url string) *http.Response {
	t.Helper()

	client := &http.Client{Timeout: 5 * time.Second}
	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}
