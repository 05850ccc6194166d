// Package websocket provides the WebSocket transport for the match server.
//
// The websocket package implements:
//   - Real-time bidirectional communication over a persistent channel
//   - Connection identity assignment and lifecycle management
//   - Frame decoding and dispatch to the session protocol handler
//   - Targeted delivery and idle-connection broadcasting
//
// Architecture:
//
// The package uses a hub-and-spoke model where a central Hub owns all
// WebSocket connections. Each connection runs a dedicated read goroutine and
// a dedicated write goroutine; the write goroutine is the only writer on the
// underlying socket.
//
// Message Protocol:
//
// Frames are JSON objects tagged by an "action" field; the protocol package
// defines the inbound and outbound variants. The hub decodes inbound frames
// and hands them to a MessageHandler; it never interprets game semantics
// itself.
//
// Connection Lifecycle:
//
// 1. Client connects and is assigned an opaque connection ID
// 2. Connection registered with hub
// 3. Client sends action frames, receives notification frames
// 4. Disconnection unregisters the connection and notifies the handler
//
// Concurrency:
//
// The hub's client table is guarded by a mutex. Delivery never blocks: a
// connection whose outbound queue is full is dropped, which tears it down
// through the normal disconnect path.
package websocket
