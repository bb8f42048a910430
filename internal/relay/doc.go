// Package relay implements the core of the Roomcast message relay: a registry
// of named rooms, per-connection sessions, the broadcast engine that fans
// messages out to room peers, and the WebSocket/HTTP surfaces that expose
// them.
//
// The implementation is organized into specialized files for configuration,
// the room registry, the hub event loop, sessions, message routing, and HTTP
// handlers to keep the codebase maintainable and testable as the project
// grows.
package relay
