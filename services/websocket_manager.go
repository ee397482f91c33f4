package services

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
)

// WebSocket errors
var (
	ErrConnectionNotFound   = errors.New("connection not found")
	ErrConnectionBufferFull = errors.New("connection buffer full")
)

// Hub fans report events out to connected dashboard clients
type Hub struct {
	connections map[string]*Connection
	mu          sync.RWMutex
	broadcast   chan Event
}

// Connection represents a single dashboard WebSocket connection
type Connection struct {
	Conn     *websocket.Conn
	ID       string
	Username string
	Send     chan []byte
}

// Event is a message broadcast to all dashboard clients
type Event struct {
	Type string
	Data interface{}
}

// EventPayload is the wire format of broadcast events
type EventPayload struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp int64       `json:"timestamp"`
}

var hub *Hub
var hubOnce sync.Once

// GetHub returns the singleton WebSocket hub
func GetHub() *Hub {
	hubOnce.Do(func() {
		hub = &Hub{
			connections: make(map[string]*Connection),
			broadcast:   make(chan Event, 100),
		}
		go hub.handleBroadcast()
	})
	return hub
}

// Register registers a new WebSocket connection
func (h *Hub) Register(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.connections[conn.ID] = conn

	slog.Info("WebSocket connection registered",
		"connectionID", conn.ID,
		"username", conn.Username,
		"totalConnections", len(h.connections))
}

// Unregister removes a WebSocket connection
func (h *Hub) Unregister(connectionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conn, exists := h.connections[connectionID]; exists {
		close(conn.Send)
		delete(h.connections, connectionID)

		slog.Info("WebSocket connection unregistered",
			"connectionID", connectionID,
			"remainingConnections", len(h.connections))
	}
}

// Broadcast queues an event for delivery to all connected clients
func (h *Hub) Broadcast(event Event) {
	select {
	case h.broadcast <- event:
	default:
		slog.Warn("WebSocket broadcast queue full, dropping event", "type", event.Type)
	}
}

// handleBroadcast processes broadcast events
func (h *Hub) handleBroadcast() {
	for event := range h.broadcast {
		payload := EventPayload{
			Type:      event.Type,
			Data:      event.Data,
			Timestamp: time.Now().Unix(),
		}

		jsonData, err := json.Marshal(payload)
		if err != nil {
			slog.Error("Failed to marshal WebSocket event", "error", err)
			continue
		}

		h.mu.RLock()
		for _, conn := range h.connections {
			select {
			case conn.Send <- jsonData:
				// Event sent successfully
			default:
				// Connection buffer full, skip
				slog.Warn("WebSocket connection buffer full",
					"connectionID", conn.ID)
			}
		}
		h.mu.RUnlock()
	}
}

// SendTo sends raw data to a specific connection
func (h *Hub) SendTo(connectionID string, data []byte) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if conn, exists := h.connections[connectionID]; exists {
		select {
		case conn.Send <- data:
			return nil
		default:
			return ErrConnectionBufferFull
		}
	}
	return ErrConnectionNotFound
}

// ConnectionCount returns the number of active connections
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}
