package websocket

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Room groups the clients editing one project
type Room struct {
	ProjectID string
	Clients   map[string]*Client
	mu        sync.RWMutex
	Logger    zerolog.Logger
}

func NewRoom(projectID string, logger zerolog.Logger) *Room {
	return &Room{
		ProjectID: projectID,
		Clients:   make(map[string]*Client),
		Logger:    logger,
	}
}

// AddClient adds a client to the room
func (r *Room) AddClient(client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Clients[client.ID] = client
	r.Logger.Info().
		Str("projectId", r.ProjectID).
		Str("clientId", client.ID).
		Uint("userId", client.UserID).
		Int("totalClients", len(r.Clients)).
		Msg("Client joined room")

	r.broadcastUserJoin(client)
}

// RemoveClient removes a client from the room
func (r *Room) RemoveClient(client *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.Clients[client.ID]; !exists {
		return false
	}
	delete(r.Clients, client.ID)
	r.Logger.Info().
		Str("projectId", r.ProjectID).
		Str("clientId", client.ID).
		Uint("userId", client.UserID).
		Int("remainingClients", len(r.Clients)).
		Msg("Client left room")

	r.broadcastUserLeave(client)
	return true
}

// Broadcast sends a message to all clients in the room except
// message.excludeClient
func (r *Room) Broadcast(message Message) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, client := range r.Clients {
		if client.ID == message.excludeClient {
			continue
		}
		select {
		case client.Send <- message:
		default:
			r.Logger.Warn().
				Str("clientId", client.ID).
				Msg("Client send buffer full, message dropped")
		}
	}
}

// GetActiveUsers returns the distinct users in the room
func (r *Room) GetActiveUsers() []UserInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.activeUsers()
}

func (r *Room) activeUsers() []UserInfo {
	users := make([]UserInfo, 0, len(r.Clients))
	seen := make(map[uint]bool)

	for _, client := range r.Clients {
		if !seen[client.UserID] {
			users = append(users, UserInfo{
				UserID:   client.UserID,
				Username: client.Username,
				Color:    client.Color,
			})
			seen[client.UserID] = true
		}
	}

	return users
}

// IsEmpty returns true if the room has no clients
func (r *Room) IsEmpty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.Clients) == 0
}

// ClientCount returns the number of clients in the room
func (r *Room) ClientCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.Clients)
}

// broadcastUserJoin notifies all clients that a user joined and sends the
// active user list to the newcomer. Callers hold the lock.
func (r *Room) broadcastUserJoin(client *Client) {
	message := NewUserJoinMessage(r.ProjectID, client.UserID, client.Username, client.info())
	for _, c := range r.Clients {
		select {
		case c.Send <- message:
		default:
		}
	}

	usersMessage := Message{
		Type:      MessageTypeUserJoin,
		ProjectID: r.ProjectID,
		Username:  "system",
		Timestamp: time.Now(),
		Data: map[string]any{
			"activeUsers": r.activeUsers(),
		},
	}
	select {
	case client.Send <- usersMessage:
	default:
	}
}

// broadcastUserLeave notifies the remaining clients. Callers hold the lock.
func (r *Room) broadcastUserLeave(client *Client) {
	message := NewUserLeaveMessage(r.ProjectID, client.UserID, client.Username, client.info())
	for _, c := range r.Clients {
		select {
		case c.Send <- message:
		default:
		}
	}
}
