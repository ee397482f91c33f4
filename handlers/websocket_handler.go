package handlers

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"insta-tracker/services"
)

// WebSocketMessage represents an incoming WebSocket message
type WebSocketMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// WebSocketUpgrade upgrades HTTP connection to WebSocket
func WebSocketUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		c.Locals("allowed", true)
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// HandleWebSocket serves the dashboard report feed over a WebSocket
func HandleWebSocket(c *websocket.Conn) {
	username, _ := c.Locals("username").(string)

	conn := &services.Connection{
		Conn:     c,
		ID:       uuid.New().String(),
		Username: username,
		Send:     make(chan []byte, 256),
	}

	hub := services.GetHub()
	hub.Register(conn)
	defer hub.Unregister(conn.ID)

	// Send initial connection success message
	welcomeMsg := map[string]interface{}{
		"type":          "connected",
		"message":       "WebSocket connection established",
		"connection_id": conn.ID,
	}
	if welcomeData, err := json.Marshal(welcomeMsg); err == nil {
		c.WriteMessage(websocket.TextMessage, welcomeData)
	}

	go handleWebSocketSend(conn)
	handleWebSocketReceive(conn)
}

// handleWebSocketSend handles sending messages to the WebSocket client
func handleWebSocketSend(conn *services.Connection) {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		conn.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			conn.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// Channel closed
				conn.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := conn.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				slog.Error("Failed to write WebSocket message", "error", err)
				return
			}

		case <-ticker.C:
			// Send ping to keep connection alive
			conn.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleWebSocketReceive handles receiving messages from the WebSocket client
func handleWebSocketReceive(conn *services.Connection) {
	defer conn.Conn.Close()

	conn.Conn.SetReadLimit(64 * 1024)
	conn.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.Conn.SetPongHandler(func(string) error {
		conn.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, messageBytes, err := conn.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("WebSocket read error", "error", err)
			}
			break
		}

		conn.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))

		var msg WebSocketMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			slog.Error("Failed to parse WebSocket message", "error", err)
			continue
		}

		switch msg.Type {
		case "ping":
			pongMsg := map[string]string{"type": "pong"}
			if pongData, err := json.Marshal(pongMsg); err == nil {
				conn.Send <- pongData
			}

		case "subscribe":
			// The feed is a single stream; subscribing is a no-op kept for
			// dashboard compatibility.
			slog.Info("WebSocket client subscribed", "connectionID", conn.ID)

		default:
			slog.Warn("Unknown WebSocket message type",
				"type", msg.Type,
				"connectionID", conn.ID)
		}
	}
}
