// Package websocket pushes registry and lifecycle changes to the desktop
// UI, replacing the file-watch notification of older builds.
package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ezhost/panel/pkg/logger"
)

// Message is one push frame sent to UI clients.
type Message struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// Hub fans messages out to all connected UI clients.
type Hub struct {
	mu           sync.RWMutex
	clients      map[*websocket.Conn]bool
	broadcast    chan Message
	register     chan *websocket.Conn
	unregister   chan *websocket.Conn
	shutdownChan chan struct{}
	shutdownOnce sync.Once
}

// NewHub creates a hub; call Run in a goroutine to start it.
func NewHub() *Hub {
	return &Hub{
		clients:      make(map[*websocket.Conn]bool),
		broadcast:    make(chan Message, 256),
		register:     make(chan *websocket.Conn),
		unregister:   make(chan *websocket.Conn),
		shutdownChan: make(chan struct{}),
	}
}

// Run processes register/unregister/broadcast traffic until Shutdown.
func (h *Hub) Run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			h.clients[conn] = true
			total := len(h.clients)
			h.mu.Unlock()
			logger.Info("WebSocket client connected", map[string]interface{}{
				"total_clients": total,
			})

		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			for conn := range h.clients {
				conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
				if err := conn.WriteJSON(msg); err != nil {
					go func(c *websocket.Conn) { h.unregister <- c }(conn)
				}
			}
			h.mu.RUnlock()

		case <-h.shutdownChan:
			h.mu.Lock()
			for conn := range h.clients {
				conn.Close()
			}
			h.clients = make(map[*websocket.Conn]bool)
			h.mu.Unlock()
			return
		}
	}
}

// Register hands a fresh connection to the hub and starts its keepalive
// reader. The hub owns the connection from this point.
func (h *Hub) Register(conn *websocket.Conn) {
	h.register <- conn
	go h.readLoop(conn)
}

// Broadcast queues a message for every client. Messages are dropped when
// the queue is full rather than blocking a lifecycle transition.
func (h *Hub) Broadcast(messageType string, data interface{}) {
	msg := Message{Type: messageType, Timestamp: time.Now(), Data: data}
	select {
	case h.broadcast <- msg:
	default:
		logger.Warn("WebSocket broadcast queue full, dropping message", map[string]interface{}{
			"type": messageType,
		})
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Shutdown closes every client connection and stops Run. Safe to call
// more than once.
func (h *Hub) Shutdown() {
	h.shutdownOnce.Do(func() { close(h.shutdownChan) })
}

// readLoop keeps the connection alive with ping/pong and unregisters it
// when the peer goes away. Inbound frames are discarded; the push channel
// is one-way.
func (h *Hub) readLoop(conn *websocket.Conn) {
	defer func() {
		// Run may already have returned after Shutdown.
		select {
		case h.unregister <- conn:
		case <-h.shutdownChan:
		}
	}()

	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	pingTicker := time.NewTicker(30 * time.Second)
	defer pingTicker.Stop()
	done := make(chan struct{})
	defer close(done)

	go func() {
		for {
			select {
			case <-pingTicker.C:
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Debug("WebSocket client closed unexpectedly", map[string]interface{}{
					"error": err.Error(),
				})
			}
			return
		}
	}
}
