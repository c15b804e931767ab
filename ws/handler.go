package ws

import (
	"encoding/json"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// UpgradeRequired rejects plain HTTP requests on the WebSocket route.
func UpgradeRequired(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// Handler returns the fiber handler serving the live schedule socket. Each
// connection gets a read loop on the caller's goroutine and a write pump.
func Handler(hub *Hub) fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		client := &Client{
			ID:   uuid.NewString(),
			Send: make(chan []byte, 256),
		}

		hub.Register(client)

		go writePump(client, conn)
		readPump(hub, client, conn)
	})
}

func readPump(hub *Hub, client *Client, conn *websocket.Conn) {
	defer func() {
		hub.Unregister(client)
		conn.Close()
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			break
		}

		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue // Ignore malformed messages.
		}

		hub.ProcessMessage(client, msg)
	}
}

func writePump(client *Client, conn *websocket.Conn) {
	for message := range client.Send {
		if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
			break
		}
	}
}
