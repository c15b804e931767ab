// Package ws provides live schedule updates over WebSockets. It implements
// a hub-and-spoke pattern where clients subscribe to per-theater topics and
// receive events broadcast to those topics. The hub is the single owner of
// all connections; nothing else in the service holds a socket.
package ws

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"theater-booking/logger"
)

// Event represents a schedule change pushed to connected clients.
type Event struct {
	Type      string      `json:"type"`
	TheaterID uint        `json:"theater_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// Event types published by the booking and escalation flows.
const (
	EventBookingCreated      = "booking.created"
	EventBookingUpdated      = "booking.updated"
	EventBookingCanceled     = "booking.canceled"
	EventEscalationPerformed = "escalation.performed"
	EventEscalationCancelled = "escalation.cancelled"
)

// ClientMessage represents an inbound message from a WebSocket client.
type ClientMessage struct {
	Action string `json:"action"`
	Topics []uint `json:"theater_ids"`
}

// Client represents a single WebSocket connection.
type Client struct {
	ID       string
	Theaters []uint
	Send     chan []byte
}

// Hub is the central connection manager. All operations are safe for
// concurrent use.
type Hub struct {
	mu      sync.RWMutex
	clients map[uint]map[*Client]struct{} // theater id -> subscribers
	all     map[*Client]struct{}
}

// NewHub creates a new Hub ready to manage WebSocket clients.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[uint]map[*Client]struct{}),
		all:     make(map[*Client]struct{}),
	}
}

// Register adds a client to the hub and subscribes it to its initial
// theaters.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.all[client] = struct{}{}

	for _, theaterID := range client.Theaters {
		if h.clients[theaterID] == nil {
			h.clients[theaterID] = make(map[*Client]struct{})
		}
		h.clients[theaterID][client] = struct{}{}
	}
}

// Unregister removes a client from the hub and closes its Send channel.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.all[client]; !ok {
		return
	}

	for _, theaterID := range client.Theaters {
		if subscribers, ok := h.clients[theaterID]; ok {
			delete(subscribers, client)
			if len(subscribers) == 0 {
				delete(h.clients, theaterID)
			}
		}
	}

	delete(h.all, client)
	close(client.Send)
}

// Subscribe adds theaters to an already-registered client.
func (h *Hub) Subscribe(client *Client, theaterIDs []uint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, theaterID := range theaterIDs {
		if h.clients[theaterID] == nil {
			h.clients[theaterID] = make(map[*Client]struct{})
		}
		h.clients[theaterID][client] = struct{}{}
	}
	client.Theaters = append(client.Theaters, theaterIDs...)
}

// Unsubscribe removes theaters from an already-registered client.
func (h *Hub) Unsubscribe(client *Client, theaterIDs []uint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	removeSet := make(map[uint]struct{}, len(theaterIDs))
	for _, id := range theaterIDs {
		removeSet[id] = struct{}{}
	}

	for _, theaterID := range theaterIDs {
		if subscribers, ok := h.clients[theaterID]; ok {
			delete(subscribers, client)
			if len(subscribers) == 0 {
				delete(h.clients, theaterID)
			}
		}
	}

	remaining := make([]uint, 0, len(client.Theaters))
	for _, id := range client.Theaters {
		if _, rm := removeSet[id]; !rm {
			remaining = append(remaining, id)
		}
	}
	client.Theaters = remaining
}

// ProcessMessage handles an inbound ClientMessage.
func (h *Hub) ProcessMessage(client *Client, msg ClientMessage) {
	switch msg.Action {
	case "subscribe":
		h.Subscribe(client, msg.Topics)
	case "unsubscribe":
		h.Unsubscribe(client, msg.Topics)
	}
}

// Broadcast sends an event to all clients watching the event's theater, and
// to clients with no theater filter.
func (h *Hub) Broadcast(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	data, err := json.Marshal(event)
	if err != nil {
		logger.Error(fmt.Sprintf("Failed to marshal ws event: %v", err), err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[event.TheaterID] {
		h.send(client, data)
	}

	// Clients without a subscription receive everything.
	for client := range h.all {
		if len(client.Theaters) == 0 {
			h.send(client, data)
		}
	}
}

func (h *Hub) send(client *Client, data []byte) {
	select {
	case client.Send <- data:
	default:
		// Client buffer full; skip to avoid blocking.
	}
}

// ClientCount returns the total number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.all)
}

// TheaterSubscriberCount returns the number of clients watching a theater.
func (h *Hub) TheaterSubscriberCount(theaterID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[theaterID])
}
