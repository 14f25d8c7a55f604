package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/perlasbingo/settlement/internal/domain"
	"github.com/perlasbingo/settlement/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Message is the frame pushed to subscribers
type Message struct {
	Type string       `json:"type"`
	Data domain.JSONB `json:"data"`
}

// GameRoom names the room of everyone watching a game
func GameRoom(gameID int64) string {
	return fmt.Sprintf("game:%d", gameID)
}

// UserRoom names the private channel of a user
func UserRoom(userID int64) string {
	return fmt.Sprintf("user:%d", userID)
}

// Rooms returns the rooms an event is delivered to. Game-wide events go to the
// game room; balance and request updates only to their owner.
func Rooms(event *domain.OutboxEvent) []string {
	var rooms []string
	switch event.Type {
	case domain.EventTypeBallDrawn, domain.EventTypeGameStatusChanged:
		if id, ok := event.Data.Int64("gameId"); ok {
			rooms = append(rooms, GameRoom(id))
		}
	case domain.EventTypeBingoWinner:
		if id, ok := event.Data.Int64("gameId"); ok {
			rooms = append(rooms, GameRoom(id))
		}
		if id, ok := event.Data.Int64("userId"); ok {
			rooms = append(rooms, UserRoom(id))
		}
	default:
		if id, ok := event.Data.Int64("userId"); ok {
			rooms = append(rooms, UserRoom(id))
		}
	}
	return rooms
}

// Hub fans events out to websocket clients grouped in rooms.
// It implements domain.EventPublisher.
type Hub struct {
	mu      sync.RWMutex
	rooms   map[string]map[*Client]struct{}
	clients map[*Client][]string
	logger  *logger.Logger
}

// NewHub creates an empty hub
func NewHub(logger *logger.Logger) *Hub {
	return &Hub{
		rooms:   make(map[string]map[*Client]struct{}),
		clients: make(map[*Client][]string),
		logger:  logger.Named("Realtime"),
	}
}

// Register subscribes the client to rooms
func (h *Hub) Register(c *Client, rooms ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, room := range rooms {
		members, ok := h.rooms[room]
		if !ok {
			members = make(map[*Client]struct{})
			h.rooms[room] = members
		}
		members[c] = struct{}{}
	}
	h.clients[c] = append(h.clients[c], rooms...)
}

// Unregister drops the client from every room and closes it
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	rooms, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		for _, room := range rooms {
			delete(h.rooms[room], c)
			if len(h.rooms[room]) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	h.mu.Unlock()

	if ok {
		c.Close()
	}
}

// Subscribers counts the clients in a room
func (h *Hub) Subscribers(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Publish delivers event to every client of its rooms, at most once per client.
// Slow clients drop frames instead of blocking the outbox.
func (h *Hub) Publish(_ context.Context, event *domain.OutboxEvent) error {
	rooms := Rooms(event)
	if len(rooms) == 0 {
		return nil
	}

	payload, err := json.Marshal(Message{Type: event.Type, Data: event.Data})
	if err != nil {
		return fmt.Errorf("encode %s frame: %w", event.Type, err)
	}

	h.mu.RLock()
	targets := make(map[*Client]struct{})
	for _, room := range rooms {
		for c := range h.rooms[room] {
			targets[c] = struct{}{}
		}
	}
	h.mu.RUnlock()

	for c := range targets {
		if !c.Send(payload) {
			h.logger.Warn("Dropped realtime frame",
				zap.Int64("userID", c.UserID),
				zap.String("eventType", event.Type))
		}
	}
	return nil
}

// Close disconnects every client
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.rooms = make(map[string]map[*Client]struct{})
	h.clients = make(map[*Client][]string)
	h.mu.Unlock()

	for _, c := range clients {
		c.Close()
	}
}
