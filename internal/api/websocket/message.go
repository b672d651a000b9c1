package websocket

import (
	"encoding/json"
	"errors"
	"time"

	"modgraph/internal/gen"
)

// Message is the envelope exchanged with clients. Data holds a type specific
// payload.
type Message struct {
	Type      MessageType `json:"type"`
	ProjectID string      `json:"projectId,omitempty"`
	UserID    uint        `json:"userId"`
	Username  string      `json:"username"`
	Timestamp time.Time   `json:"timestamp"`
	Data      any         `json:"data"`

	// excludeClient is skipped when the message is broadcast
	excludeClient string
}

// CompileRequest is the payload of a compile message
type CompileRequest struct {
	Document json.RawMessage `json:"document"`
}

// CompileResult is the payload of a compile_result message
type CompileResult struct {
	Hash        string           `json:"hash"`
	Cached      bool             `json:"cached"`
	Source      string           `json:"source"`
	Roots       []gen.RootInfo   `json:"roots"`
	Diagnostics []gen.Diagnostic `json:"diagnostics"`
}

// UserInfo represents user information in the room
type UserInfo struct {
	UserID   uint   `json:"userId"`
	Username string `json:"username"`
	Color    string `json:"color"`
}

// ErrorMessage represents an error message
type ErrorMessage struct {
	Error         string `json:"error,omitempty"`
	CustomMessage string `json:"customMessage"`
}

// NewErrorMessage creates a new error message
func NewErrorMessage(projectID string, userID uint, username string, errorText string, errs ...error) Message {
	data := ErrorMessage{CustomMessage: errorText}
	if err := errors.Join(errs...); err != nil {
		data.Error = err.Error()
	}
	return Message{
		Type:      MessageTypeError,
		ProjectID: projectID,
		UserID:    userID,
		Username:  username,
		Timestamp: time.Now(),
		Data:      data,
	}
}

// NewCompileResultMessage wraps a compile result for broadcasting
func NewCompileResultMessage(projectID string, userID uint, username string, result CompileResult) Message {
	return Message{
		Type:      MessageTypeCompileResult,
		ProjectID: projectID,
		UserID:    userID,
		Username:  username,
		Timestamp: time.Now(),
		Data:      result,
	}
}

// NewUserJoinMessage creates a new user join message
func NewUserJoinMessage(projectID string, userID uint, username string, userInfo UserInfo) Message {
	return Message{
		Type:      MessageTypeUserJoin,
		ProjectID: projectID,
		UserID:    userID,
		Username:  username,
		Timestamp: time.Now(),
		Data:      userInfo,
	}
}

// NewUserLeaveMessage creates a new user leave message
func NewUserLeaveMessage(projectID string, userID uint, username string, userInfo UserInfo) Message {
	return Message{
		Type:      MessageTypeUserLeave,
		ProjectID: projectID,
		UserID:    userID,
		Username:  username,
		Timestamp: time.Now(),
		Data:      userInfo,
	}
}
