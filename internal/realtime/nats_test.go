package realtime

import (
	"encoding/json"
	"testing"
	"time"

	"modgraph/internal/api/service"
	"modgraph/internal/api/websocket"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHub struct {
	messages []websocket.Message
}

func (h *recordingHub) Publish(message websocket.Message) bool {
	h.messages = append(h.messages, message)
	return true
}

func TestSubjects(t *testing.T) {
	assert.Equal(t, "modgraph.project.abc.compiled", ProjectSubject("modgraph", "abc"))
	assert.Equal(t, "modgraph.compiled", AnonymousSubject("modgraph"))
}

func TestParseProjectIDFromSubject(t *testing.T) {
	tests := []struct {
		subject string
		want    string
		wantErr bool
	}{
		{"modgraph.project.abc.compiled", "abc", false},
		{"modgraph.project.3f1c-9a.compiled", "3f1c-9a", false},
		{"other.project.abc.compiled", "", true},
		{"modgraph.project..compiled", "", true},
		{"modgraph.project.a.b.compiled", "", true},
		{"modgraph.project.abc.progress", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.subject, func(t *testing.T) {
			got, err := parseProjectIDFromSubject("modgraph", tt.subject)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBridge_Handle(t *testing.T) {
	hub := &recordingHub{}
	b := NewBridge(nil, hub, "modgraph", "instance-a", zerolog.Nop())

	event := service.CompileEvent{
		ProjectID: "p1",
		UserID:    4,
		Origin:    "instance-b",
		Hash:      "h",
		Source:    "untyped\n",
		Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	data, err := json.Marshal(event)
	require.NoError(t, err)

	b.handle("modgraph.project.p1.compiled", data)
	require.Len(t, hub.messages, 1)
	msg := hub.messages[0]
	assert.Equal(t, websocket.MessageTypeCompileResult, msg.Type)
	assert.Equal(t, "p1", msg.ProjectID)
	assert.Equal(t, uint(4), msg.UserID)
	assert.True(t, event.Timestamp.Equal(msg.Timestamp))
	result, ok := msg.Data.(websocket.CompileResult)
	require.True(t, ok)
	assert.Equal(t, "untyped\n", result.Source)

	event.Origin = "instance-a"
	data, err = json.Marshal(event)
	require.NoError(t, err)
	b.handle("modgraph.project.p1.compiled", data)
	assert.Len(t, hub.messages, 1, "own events are not relayed twice")

	b.handle("modgraph.project.p1.compiled", []byte("{"))
	b.handle("garbage", data)
	assert.Len(t, hub.messages, 1)
}
