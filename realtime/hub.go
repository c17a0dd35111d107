// Package realtime keeps the live websocket listeners (kitchen screens,
// waiter apps) and pushes order events to them.
package realtime

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"go-restaurant-pos/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait = 5 * time.Second
	// sendBuffer frames may queue per listener before it counts as stalled.
	sendBuffer = 32
)

// Message is the envelope of every frame sent to listeners.
type Message struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

// client is one listener. Its writer goroutine owns all writes to conn.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

type Hub struct {
	upgrader websocket.Upgrader
	log      *logger.Logger

	mu      sync.Mutex
	clients map[*client]struct{}
}

// NewHub accepts connections from allowedOrigins; "*" allows any origin.
func NewHub(allowedOrigins []string, log *logger.Logger) *Hub {
	h := &Hub{log: log, clients: make(map[*client]struct{})}
	h.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, o := range allowedOrigins {
				if o == "*" || o == origin {
					return true
				}
			}
			return false
		},
	}
	return h
}

func (h *Hub) HandleWebSocket() gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			h.log.Error("ws_upgrade", "error during connection upgrade", err)
			return
		}
		cl := h.register(conn)
		defer h.unregister(cl)

		// Listeners only receive; reading detects the disconnect.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}
}

// Broadcast queues one frame for every listener and returns without waiting
// on the network. A listener whose queue is full is dropped; nothing is
// retried.
func (h *Hub) Broadcast(event string, payload any) {
	messageBytes, err := json.Marshal(Message{Event: event, Payload: payload})
	if err != nil {
		h.log.Error("ws_broadcast", "error marshaling message", err, slog.String("event", event))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for cl := range h.clients {
		select {
		case cl.send <- messageBytes:
		default:
			h.log.Debug("ws_broadcast", "dropping stalled listener", slog.String("event", event))
			h.drop(cl)
		}
	}
}

// Clients returns the number of connected listeners.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) register(conn *websocket.Conn) *client {
	greeting, _ := json.Marshal(Message{Event: "connected", Payload: "You are successfully connected to the server!"})
	cl := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	cl.send <- greeting

	h.mu.Lock()
	h.clients[cl] = struct{}{}
	h.mu.Unlock()

	go h.writePump(cl)
	return cl
}

func (h *Hub) unregister(cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.drop(cl)
}

// drop removes cl and stops its writer. Callers hold h.mu.
func (h *Hub) drop(cl *client) {
	if _, ok := h.clients[cl]; !ok {
		return
	}
	delete(h.clients, cl)
	close(cl.send)
}

// writePump drains cl.send until it is closed or a write fails. Closing the
// connection ends the read loop in HandleWebSocket, which unregisters cl.
func (h *Hub) writePump(cl *client) {
	defer cl.conn.Close()
	for data := range cl.send {
		_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := cl.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.log.Debug("ws_write", "listener write failed", slog.String("error", err.Error()))
			return
		}
	}
	_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = cl.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
