package protocol

import "time"

// Session is one user conversation, keyed by an opaque ID. A chat surface
// (Telegram chat, Slack channel) maps to at most one open session.
type Session struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	ChatID    string           `json:"chat_id"`
	CreatedAt time.Time        `json:"created_at"`
	ClosedAt  *time.Time       `json:"closed_at,omitempty"`
	Messages  []SessionMessage `json:"messages,omitempty"`
}

// SessionMessage is one persisted turn of a session transcript.
type SessionMessage struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"` // user, assistant, system
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
