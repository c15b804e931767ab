package ws

import (
	"encoding/json"
	"testing"
)

func TestHub_RegisterClient(t *testing.T) {
	hub := NewHub()
	client := &Client{
		ID:       "client-1",
		Theaters: []uint{1},
		Send:     make(chan []byte, 256),
	}

	hub.Register(client)

	if hub.ClientCount() != 1 {
		t.Fatalf("expected 1 client, got %d", hub.ClientCount())
	}
	if hub.TheaterSubscriberCount(1) != 1 {
		t.Fatalf("expected 1 subscriber on theater 1, got %d", hub.TheaterSubscriberCount(1))
	}
}

func TestHub_UnregisterClient(t *testing.T) {
	hub := NewHub()
	client := &Client{
		ID:       "client-2",
		Theaters: []uint{2},
		Send:     make(chan []byte, 256),
	}

	hub.Register(client)
	hub.Unregister(client)

	if hub.ClientCount() != 0 {
		t.Fatalf("expected 0 clients, got %d", hub.ClientCount())
	}
	if hub.TheaterSubscriberCount(2) != 0 {
		t.Fatalf("expected 0 subscribers on theater 2, got %d", hub.TheaterSubscriberCount(2))
	}

	// Unregistering twice must not panic or close the channel again.
	hub.Unregister(client)
}

func TestHub_BroadcastToTheater(t *testing.T) {
	hub := NewHub()

	subscriber := &Client{
		ID:       "sub-1",
		Theaters: []uint{1},
		Send:     make(chan []byte, 256),
	}
	otherTheater := &Client{
		ID:       "other-1",
		Theaters: []uint{2},
		Send:     make(chan []byte, 256),
	}
	unfiltered := &Client{
		ID:   "all-1",
		Send: make(chan []byte, 256),
	}

	hub.Register(subscriber)
	hub.Register(otherTheater)
	hub.Register(unfiltered)

	hub.Broadcast(Event{
		Type:      EventBookingCreated,
		TheaterID: 1,
	})

	select {
	case data := <-subscriber.Send:
		var event Event
		if err := json.Unmarshal(data, &event); err != nil {
			t.Fatalf("failed to unmarshal event: %v", err)
		}
		if event.Type != EventBookingCreated {
			t.Errorf("expected %s, got %s", EventBookingCreated, event.Type)
		}
		if event.TheaterID != 1 {
			t.Errorf("expected theater 1, got %d", event.TheaterID)
		}
		if event.Timestamp.IsZero() {
			t.Error("expected timestamp to be filled in")
		}
	default:
		t.Fatal("subscriber did not receive the event")
	}

	select {
	case <-otherTheater.Send:
		t.Fatal("client watching another theater received the event")
	default:
	}

	// Clients with no theater filter receive everything.
	select {
	case <-unfiltered.Send:
	default:
		t.Fatal("unfiltered client did not receive the event")
	}
}

func TestHub_SubscribeUnsubscribe(t *testing.T) {
	hub := NewHub()
	client := &Client{
		ID:   "client-3",
		Send: make(chan []byte, 256),
	}

	hub.Register(client)

	hub.ProcessMessage(client, ClientMessage{Action: "subscribe", Topics: []uint{1, 2}})
	if hub.TheaterSubscriberCount(1) != 1 || hub.TheaterSubscriberCount(2) != 1 {
		t.Fatal("expected client subscribed to theaters 1 and 2")
	}

	hub.ProcessMessage(client, ClientMessage{Action: "unsubscribe", Topics: []uint{1}})
	if hub.TheaterSubscriberCount(1) != 0 {
		t.Fatal("expected client unsubscribed from theater 1")
	}
	if hub.TheaterSubscriberCount(2) != 1 {
		t.Fatal("expected client still subscribed to theater 2")
	}
	if len(client.Theaters) != 1 || client.Theaters[0] != 2 {
		t.Errorf("expected client theaters [2], got %v", client.Theaters)
	}
}

func TestHub_BroadcastSkipsFullBuffers(t *testing.T) {
	hub := NewHub()
	client := &Client{
		ID:       "slow-1",
		Theaters: []uint{1},
		Send:     make(chan []byte, 1),
	}

	hub.Register(client)

	// Second broadcast overflows the 1-slot buffer and must not block.
	hub.Broadcast(Event{Type: EventBookingCreated, TheaterID: 1})
	hub.Broadcast(Event{Type: EventBookingUpdated, TheaterID: 1})

	if len(client.Send) != 1 {
		t.Fatalf("expected exactly 1 buffered event, got %d", len(client.Send))
	}
}
