package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"modgraph/internal/api/service"
	"modgraph/internal/graph"

	"github.com/rs/zerolog"
)

// Compiler compiles a project graph on behalf of a user
type Compiler interface {
	CompileProject(ctx context.Context, projectID string, userID uint, doc *graph.Document) (*service.CompileOutput, error)
}

// MessageProcessor handles the messages that need server side work
type MessageProcessor struct {
	compiler Compiler
	logger   zerolog.Logger
}

func NewMessageProcessor(compiler Compiler, logger zerolog.Logger) *MessageProcessor {
	return &MessageProcessor{
		compiler: compiler,
		logger:   logger,
	}
}

// ProcessMessage performs the work for msg and returns the message to
// broadcast to the room.
func (p *MessageProcessor) ProcessMessage(ctx context.Context, msg *Message) (*Message, error) {
	switch msg.Type {
	case MessageTypeCompile:
		return p.processCompile(ctx, msg)
	default:
		return msg, nil
	}
}

func (p *MessageProcessor) validateData(msg *Message, out any) error {
	dataBytes, err := json.Marshal(msg.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal message data: %w", err)
	}

	if err := json.Unmarshal(dataBytes, out); err != nil {
		return fmt.Errorf("invalid message data: %w", err)
	}

	return nil
}

func (p *MessageProcessor) processCompile(ctx context.Context, msg *Message) (*Message, error) {
	var req CompileRequest
	if err := p.validateData(msg, &req); err != nil {
		return nil, err
	}
	if len(req.Document) == 0 {
		return nil, errors.New("compile message has no document")
	}

	doc, err := graph.DecodeDocument(req.Document)
	if err != nil {
		return nil, err
	}

	out, err := p.compiler.CompileProject(ctx, msg.ProjectID, msg.UserID, doc)
	if err != nil {
		return nil, fmt.Errorf("compile failed: %w", err)
	}

	p.logger.Debug().
		Str("projectId", msg.ProjectID).
		Uint("userId", msg.UserID).
		Str("hash", out.Hash).
		Bool("cached", out.Cached).
		Msg("Graph compiled via WebSocket")

	result := NewCompileResultMessage(msg.ProjectID, msg.UserID, msg.Username, CompileResult{
		Hash:        out.Hash,
		Cached:      out.Cached,
		Source:      out.Source,
		Roots:       out.Roots,
		Diagnostics: out.Diagnostics,
	})
	return &result, nil
}
