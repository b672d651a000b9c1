package websocket

// MessageType represents the type of WebSocket message
type MessageType string

const (
	// Graph operations
	MessageTypeGraphUpdate   MessageType = "graph_update"
	MessageTypeCompile       MessageType = "compile"
	MessageTypeCompileResult MessageType = "compile_result"

	// User interactions
	MessageTypeCursorMove MessageType = "cursor_move"
	MessageTypeChat       MessageType = "chat"
	MessageTypeUserJoin   MessageType = "user_join"
	MessageTypeUserLeave  MessageType = "user_leave"

	// System messages
	MessageTypeError MessageType = "error"
	MessageTypePing  MessageType = "ping"
	MessageTypePong  MessageType = "pong"
)
