package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"modgraph/internal/api/service"
	"modgraph/internal/api/websocket"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// ProjectSubject is the subject compile events of one project are published on
func ProjectSubject(prefix, projectID string) string {
	return fmt.Sprintf("%s.project.%s.compiled", prefix, projectID)
}

// AnonymousSubject receives compile events that belong to no project
func AnonymousSubject(prefix string) string {
	return prefix + ".compiled"
}

// Publisher sends compile events to NATS
type Publisher struct {
	conn   *nats.Conn
	prefix string
}

func NewPublisher(conn *nats.Conn, prefix string) *Publisher {
	return &Publisher{conn: conn, prefix: prefix}
}

func (p *Publisher) Publish(ctx context.Context, event service.CompileEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal compile event: %w", err)
	}

	subject := AnonymousSubject(p.prefix)
	if event.ProjectID != "" {
		subject = ProjectSubject(p.prefix, event.ProjectID)
	}
	if err = p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("nats publish %q: %w", subject, err)
	}
	return nil
}

// Broadcaster delivers a message to a project room
type Broadcaster interface {
	Publish(message websocket.Message) bool
}

// Bridge relays compile events published by other instances into the local
// project rooms.
type Bridge struct {
	conn   *nats.Conn
	hub    Broadcaster
	prefix string
	origin string
	logger zerolog.Logger
	sub    *nats.Subscription
}

func NewBridge(conn *nats.Conn, hub Broadcaster, prefix string, origin string, logger zerolog.Logger) *Bridge {
	return &Bridge{conn: conn, hub: hub, prefix: prefix, origin: origin, logger: logger}
}

// Subscribe listens on <prefix>.project.*.compiled
func (b *Bridge) Subscribe() error {
	subject := ProjectSubject(b.prefix, "*")
	sub, err := b.conn.Subscribe(subject, func(msg *nats.Msg) {
		b.handle(msg.Subject, msg.Data)
	})
	if err != nil {
		return fmt.Errorf("nats subscribe %q: %w", subject, err)
	}
	b.sub = sub

	b.logger.Info().Str("subject", subject).Msg("NATS bridge subscribed")
	return nil
}

func (b *Bridge) handle(subject string, data []byte) {
	projectID, err := parseProjectIDFromSubject(b.prefix, subject)
	if err != nil {
		b.logger.Warn().Err(err).Str("subject", subject).Msg("Ignoring compile event")
		return
	}

	var event service.CompileEvent
	if err = json.Unmarshal(data, &event); err != nil {
		b.logger.Warn().Err(err).Str("subject", subject).Msg("Invalid compile event")
		return
	}
	if event.Origin != "" && event.Origin == b.origin {
		// already broadcast by this instance
		return
	}

	message := websocket.NewCompileResultMessage(projectID, event.UserID, "", websocket.CompileResult{
		Hash:        event.Hash,
		Cached:      event.Cached,
		Source:      event.Source,
		Roots:       event.Roots,
		Diagnostics: event.Diagnostics,
	})
	message.Timestamp = event.Timestamp
	b.hub.Publish(message)
}

// Close unsubscribes and drains the connection
func (b *Bridge) Close() {
	if b.sub != nil {
		if err := b.sub.Unsubscribe(); err != nil {
			b.logger.Warn().Err(err).Msg("NATS unsubscribe failed")
		}
	}
	if err := b.conn.Drain(); err != nil {
		b.logger.Warn().Err(err).Msg("NATS drain failed")
	}
}

// parseProjectIDFromSubject extracts the id from "<prefix>.project.<id>.compiled"
func parseProjectIDFromSubject(prefix, subject string) (string, error) {
	rest, ok := strings.CutPrefix(subject, prefix+".project.")
	if !ok {
		return "", fmt.Errorf("subject does not start with %q", prefix+".project.")
	}
	id, ok := strings.CutSuffix(rest, ".compiled")
	if !ok || id == "" || strings.Contains(id, ".") {
		return "", fmt.Errorf("no project id in subject")
	}
	return id, nil
}
