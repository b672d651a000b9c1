package websocket

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 2 << 20

	// Upper bound for processing one queued message
	processTimeout = 30 * time.Second
)

type Client struct {
	ID           string
	UserID       uint
	Username     string
	ProjectID    string
	Color        string
	Hub          *Hub
	Conn         *websocket.Conn
	Send         chan Message
	Processor    *MessageProcessor
	ProcessQueue chan Message
	Logger       zerolog.Logger

	workerDone chan struct{}
}

func NewClient(id string, userID uint, username string, projectID string, hub *Hub, conn *websocket.Conn, processor *MessageProcessor, logger zerolog.Logger) *Client {
	client := &Client{
		ID:           id,
		UserID:       userID,
		Username:     username,
		ProjectID:    projectID,
		Color:        generateUserColor(userID),
		Hub:          hub,
		Conn:         conn,
		Send:         make(chan Message, 256),
		Processor:    processor,
		ProcessQueue: make(chan Message, 100),
		Logger:       logger,
		workerDone:   make(chan struct{}),
	}

	go client.processWorker()

	return client
}

func (c *Client) info() UserInfo {
	return UserInfo{UserID: c.UserID, Username: c.Username, Color: c.Color}
}

// ReadPump reads messages from the connection until it fails. Messages that
// need processing are queued for the worker, the rest are relayed to the room.
func (c *Client) ReadPump() {
	defer func() {
		close(c.ProcessQueue)
		<-c.workerDone
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, messageBytes, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Logger.Error().Err(err).Str("clientId", c.ID).Msg("WebSocket read error")
			}
			break
		}

		var msg Message
		if err = decodeMessage(messageBytes, &msg); err != nil {
			c.Logger.Debug().Err(err).Str("clientId", c.ID).Msg("Failed to unmarshal message")
			c.sendError("Invalid message format", err)
			continue
		}

		if !c.validateMessage(&msg) {
			continue
		}

		msg.UserID = c.UserID
		msg.Username = c.Username
		msg.ProjectID = c.ProjectID
		msg.Timestamp = time.Now()

		switch {
		case msg.Type == MessageTypePing:
			c.reply(Message{Type: MessageTypePong, ProjectID: c.ProjectID, Timestamp: msg.Timestamp})

		case !c.requiresProcessing(msg.Type):
			msg.excludeClient = c.ID
			c.Hub.Broadcast <- msg

		default:
			select {
			case c.ProcessQueue <- msg:
			default:
				c.Logger.Warn().
					Str("type", string(msg.Type)).
					Msg("Process queue full, dropping message")
				c.sendError("Server is busy, please try again")
			}
		}
	}
}

// WritePump pumps messages from the hub to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteJSON(message); err != nil {
				c.Logger.Debug().Err(err).Str("clientId", c.ID).Msg("WebSocket write failed")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// validateMessage rejects messages addressed to another project and types
// clients may not send.
func (c *Client) validateMessage(msg *Message) bool {
	if msg.ProjectID != "" && msg.ProjectID != c.ProjectID {
		c.sendError("Message project ID does not match connection project ID")
		return false
	}

	switch msg.Type {
	case MessageTypeGraphUpdate, MessageTypeCompile, MessageTypeCursorMove, MessageTypeChat, MessageTypePing:
		return true
	default:
		c.sendError("Unsupported message type: " + string(msg.Type))
		return false
	}
}

// reply sends a message to this client only. Only ReadPump and the worker
// call it, both before the client is unregistered.
func (c *Client) reply(msg Message) {
	select {
	case c.Send <- msg:
	default:
		c.Logger.Warn().Str("clientId", c.ID).Msg("Client send buffer full, reply dropped")
	}
}

func (c *Client) sendError(errorMsg string, errs ...error) {
	c.reply(NewErrorMessage(c.ProjectID, c.UserID, c.Username, errorMsg, errs...))
}

// processWorker processes queued messages one at a time, keeping their order
func (c *Client) processWorker() {
	defer close(c.workerDone)
	c.Logger.Debug().Str("clientId", c.ID).Msg("Process worker started")

	for msg := range c.ProcessQueue {
		if c.Processor == nil {
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), processTimeout)
		processedMsg, err := c.Processor.ProcessMessage(ctx, &msg)
		cancel()
		if err != nil {
			c.Logger.Debug().
				Err(err).
				Str("type", string(msg.Type)).
				Uint("userId", msg.UserID).
				Msg("Failed to process message")

			c.sendError(err.Error())
			continue
		}

		c.Hub.Broadcast <- *processedMsg
	}

	c.Logger.Debug().Str("clientId", c.ID).Msg("Process worker stopped")
}

// decodeMessage keeps numbers as json.Number so graph literals survive the
// round trip through Message.Data untouched.
func decodeMessage(data []byte, msg *Message) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(msg)
}

// requiresProcessing reports whether a message type goes through the worker
func (c *Client) requiresProcessing(msgType MessageType) bool {
	return msgType == MessageTypeCompile
}

// generateUserColor generates a consistent color for a user based on their ID
func generateUserColor(userID uint) string {
	colors := []string{
		"#FF6B6B", "#4ECDC4", "#45B7D1", "#FFA07A",
		"#98D8C8", "#F7DC6F", "#BB8FCE", "#85C1E2",
		"#F8B739", "#52B788", "#E76F51", "#2A9D8F",
	}
	return colors[userID%uint(len(colors))]
}
