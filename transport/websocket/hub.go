package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"tictactoe/game/engine"
	"tictactoe/game/protocol"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins in development
		// TODO: Configure this for production
		return true
	},
}

// MessageHandler consumes decoded inbound frames and connection teardowns.
type MessageHandler interface {
	HandleMessage(conn engine.Conn, msg *protocol.Inbound)
	HandleDisconnect(conn engine.Conn)
}

// BoundChecker reports whether a connection is currently bound to a match.
// Idle broadcasts skip bound connections.
type BoundChecker interface {
	IsBound(connID string) bool
}

// Client represents one WebSocket connection. Its ID is an opaque identity
// assigned at upgrade time, stable for the connection's lifetime.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	id   string
}

// ID returns the connection's opaque identity.
func (c *Client) ID() string { return c.id }

// Hub maintains the set of active connections and delivers outbound frames.
type Hub struct {
	// Active clients by connection ID
	mu      sync.RWMutex
	clients map[string]*Client

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	bound   BoundChecker
	handler MessageHandler
}

// NewHub creates a new WebSocket hub. SetHandler must be called before the
// first connection is served.
func NewHub(bound BoundChecker) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		bound:      bound,
	}
}

// SetHandler wires the session protocol handler. Separate from NewHub
// because the handler needs the hub as its dispatcher.
func (h *Hub) SetHandler(handler MessageHandler) {
	h.handler = handler
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)
		}
	}
}

// ServeWS handles WebSocket requests from clients
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WS] upgrade failed: %v", err)
		return
	}

	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, 256),
		id:   uuid.NewString(),
	}

	client.hub.register <- client

	// Start client goroutines
	go client.writePump()
	go client.readPump()
}

// SendTo delivers one frame to a single connection. Unknown connections are
// ignored; the caller may be racing a disconnect.
func (h *Hub) SendTo(conn engine.Conn, msg *protocol.Outbound) {
	h.mu.RLock()
	client, ok := h.clients[conn.ID()]
	h.mu.RUnlock()
	if !ok {
		return
	}

	h.deliver(client, mustMarshal(msg))
}

// BroadcastToIdle delivers one frame to every connection not currently bound
// to a match.
func (h *Hub) BroadcastToIdle(msg *protocol.Outbound) {
	h.mu.RLock()
	idle := make([]*Client, 0, len(h.clients))
	for _, client := range h.clients {
		if !h.bound.IsBound(client.id) {
			idle = append(idle, client)
		}
	}
	h.mu.RUnlock()

	data := mustMarshal(msg)
	for _, client := range idle {
		h.deliver(client, data)
	}
}

// Count returns the number of active connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// deliver enqueues data without blocking. A full queue means the client has
// stopped draining; drop it. The membership check and the channel send happen
// under the read lock so delivery cannot race the close in unregisterClient.
func (h *Hub) deliver(client *Client, data []byte) {
	var full bool

	h.mu.RLock()
	if _, active := h.clients[client.id]; active {
		select {
		case client.send <- data:
		default:
			full = true
		}
	}
	h.mu.RUnlock()

	if full {
		h.unregisterClient(client)
	}
}

// registerClient adds a connection to the client table
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	h.clients[client.id] = client
	total := len(h.clients)
	h.mu.Unlock()

	log.Printf("[WS] client registered conn=%s (total clients: %d)", client.id, total)
}

// unregisterClient removes a connection from the client table. Safe to call
// more than once; only the first call closes the send channel.
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client.id]
	if ok {
		delete(h.clients, client.id)
		close(client.send)
	}
	remaining := len(h.clients)
	h.mu.Unlock()

	if ok {
		log.Printf("[WS] client unregistered conn=%s (remaining clients: %d)", client.id, remaining)
	}
}

func mustMarshal(msg *protocol.Outbound) []byte {
	data, err := json.Marshal(msg)
	if err != nil {
		// Outbound frames are plain structs; this cannot fail at runtime.
		log.Printf("[WS] failed to marshal outbound frame: %v", err)
		return []byte(`{"action":"error"}`)
	}
	return data
}

// readPump pumps messages from the WebSocket connection to the handler
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
		c.hub.handler.HandleDisconnect(c)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[WS] read error conn=%s: %v", c.id, err)
			}
			break
		}

		var msg protocol.Inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("[WS] malformed frame conn=%s: %v", c.id, err)
			// An empty action falls through to the handler's unknown-action
			// error reply.
			msg = protocol.Inbound{}
		}
		c.hub.handler.HandleMessage(c, &msg)
	}
}

// writePump pumps messages from the hub to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// One frame per message so JSON clients can decode each write
			// on its own.
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
