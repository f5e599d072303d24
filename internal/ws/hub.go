package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Event represents a WebSocket message to be broadcast
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// NewEvent marshals payload into an Event of the given type.
func NewEvent(eventType string, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Event{Type: eventType, Payload: data}, nil
}

// roleEvent routes an event to one device role, or to every role when role is empty.
type roleEvent struct {
	role  string
	event Event
}

// Hub maintains the set of connected kiosk devices and pushes events to them
type Hub struct {
	// Registered clients by device role
	rooms map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *roleEvent
	done       chan struct{}

	logger *zap.Logger
	mu     sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *roleEvent, 256),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run starts the hub's main loop and returns when ctx ends.
// This should be called as a goroutine: go hub.Run(ctx)
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			close(h.done)
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.role] == nil {
				h.rooms[client.role] = make(map[*Client]bool)
			}
			h.rooms[client.role][client] = true
			h.mu.Unlock()
			h.logger.Debug("device connected", zap.String("role", client.role))

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()

		case ev := <-h.broadcast:
			message, err := json.Marshal(ev.event)
			if err != nil {
				h.logger.Error("marshal event", zap.String("type", ev.event.Type), zap.Error(err))
				continue
			}

			h.mu.Lock()
			for role, clients := range h.rooms {
				if ev.role != "" && ev.role != role {
					continue
				}
				for client := range clients {
					select {
					case client.send <- message:
					default:
						// Slow device; drop it and let it reconnect.
						h.remove(client)
					}
				}
			}
			h.mu.Unlock()
		}
	}
}

// remove must be called with h.mu held.
func (h *Hub) remove(client *Client) {
	clients, ok := h.rooms[client.role]
	if !ok {
		return
	}
	if _, exists := clients[client]; !exists {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.rooms, client.role)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, clients := range h.rooms {
		for client := range clients {
			h.remove(client)
		}
	}
}

// Broadcast sends an event to every connected device.
func (h *Hub) Broadcast(event Event) {
	h.send(&roleEvent{event: event})
}

// BroadcastToRole sends an event to devices of one role.
func (h *Hub) BroadcastToRole(role string, event Event) {
	h.send(&roleEvent{role: role, event: event})
}

// send drops the event once the hub has stopped.
func (h *Hub) send(ev *roleEvent) {
	select {
	case h.broadcast <- ev:
	case <-h.done:
	}
}

// Clients returns the number of connected devices.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, clients := range h.rooms {
		n += len(clients)
	}
	return n
}
