package chat

import "time"

// Roles a stored turn can carry.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one persisted chat message.
type Turn struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Request is the body of /api/chat and /api/chat/stream.
type Request struct {
	Message  string `json:"message"`
	Category string `json:"category,omitempty"`
	ChatID   string `json:"chat_id,omitempty"`
}

// Response is a completed non-streaming chat exchange.
type Response struct {
	Response  string    `json:"response"`
	Category  string    `json:"category"`
	Timestamp time.Time `json:"timestamp"`
	ChatID    string    `json:"chat_id,omitempty"`
}

// StreamEvent is the unit of the streaming chat protocol. A Done or Error
// event terminates the stream. Content is a pointer so an empty token still
// serializes with its key rather than collapsing to an empty object.
type StreamEvent struct {
	Content *string `json:"content,omitempty"`
	Done    bool    `json:"done,omitempty"`
	Error   string  `json:"error,omitempty"`
}

// ContentEvent wraps a token in a StreamEvent.
func ContentEvent(token string) StreamEvent {
	return StreamEvent{Content: &token}
}
