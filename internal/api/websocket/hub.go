package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Hub maintains the set of active clients and broadcasts messages to clients
type Hub struct {
	// Rooms indexed by project ID
	Rooms map[string]*Room

	// Register requests from clients
	Register chan *Client

	// Unregister requests from clients
	Unregister chan *Client

	// Broadcast messages to clients in a specific room
	Broadcast chan Message

	mu sync.RWMutex

	Logger zerolog.Logger
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		Rooms:      make(map[string]*Room),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Broadcast:  make(chan Message, 256),
		Logger:     logger,
	}
}

// Run starts the hub's main event loop and returns when ctx is done
func (h *Hub) Run(ctx context.Context) {
	cleanupTicker := time.NewTicker(5 * time.Minute)
	defer cleanupTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.Logger.Info().Msg("WebSocket hub stopped")
			return

		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.Unregister:
			h.unregisterClient(client)

		case message := <-h.Broadcast:
			h.broadcastMessage(message)

		case <-cleanupTicker.C:
			h.cleanupEmptyRooms()
		}
	}
}

// Publish queues a message for its room without blocking. It reports false
// when the broadcast queue is full.
func (h *Hub) Publish(message Message) bool {
	select {
	case h.Broadcast <- message:
		return true
	default:
		h.Logger.Warn().
			Str("projectId", message.ProjectID).
			Str("type", string(message.Type)).
			Msg("Broadcast queue full, message dropped")
		return false
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, exists := h.Rooms[client.ProjectID]
	if !exists {
		room = NewRoom(client.ProjectID, h.Logger)
		h.Rooms[client.ProjectID] = room
		h.Logger.Info().Str("projectId", client.ProjectID).Msg("Created new room")
	}

	room.AddClient(client)
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, exists := h.Rooms[client.ProjectID]
	if !exists {
		return
	}

	if room.RemoveClient(client) {
		close(client.Send)
	}

	if room.IsEmpty() {
		delete(h.Rooms, client.ProjectID)
		h.Logger.Info().Str("projectId", client.ProjectID).Msg("Removed empty room")
	}
}

// broadcastMessage delivers an already processed message to its room
func (h *Hub) broadcastMessage(message Message) {
	h.mu.RLock()
	room, exists := h.Rooms[message.ProjectID]
	h.mu.RUnlock()

	if !exists {
		h.Logger.Debug().
			Str("projectId", message.ProjectID).
			Str("type", string(message.Type)).
			Msg("Room not found for broadcast")
		return
	}

	room.Broadcast(message)

	h.Logger.Debug().
		Str("type", string(message.Type)).
		Str("projectId", message.ProjectID).
		Uint("userId", message.UserID).
		Msg("Broadcasted message")
}

func (h *Hub) cleanupEmptyRooms() {
	h.mu.Lock()
	defer h.mu.Unlock()

	cleaned := 0
	for projectID, room := range h.Rooms {
		if room.IsEmpty() {
			delete(h.Rooms, projectID)
			cleaned++
		}
	}

	if cleaned > 0 {
		h.Logger.Info().
			Int("cleanedRooms", cleaned).
			Int("activeRooms", len(h.Rooms)).
			Msg("Room cleanup completed")
	}
}

// GetRoomStats returns the client count of every active room
func (h *Hub) GetRoomStats() map[string]int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	stats := make(map[string]int, len(h.Rooms))
	for projectID, room := range h.Rooms {
		stats[projectID] = room.ClientCount()
	}
	return stats
}

// GetActiveUsersInRoom returns active users in a specific room
func (h *Hub) GetActiveUsersInRoom(projectID string) []UserInfo {
	h.mu.RLock()
	room, exists := h.Rooms[projectID]
	h.mu.RUnlock()

	if !exists {
		return []UserInfo{}
	}

	return room.GetActiveUsers()
}
