package session

import "github.com/daykeeper-io/daykeeper/pkg/protocol"

// Store is the persistence interface for conversation sessions and their
// transcripts.
type Store interface {
	// Save creates or updates a session.
	Save(s *protocol.Session) error
	// Get retrieves a session by ID, including its messages.
	Get(id string) (*protocol.Session, error)
	// Active returns the open session for a user and chat, or nil if none.
	Active(userID, chatID string) (*protocol.Session, error)
	// List returns sessions matching the filter.
	List(filter Filter) ([]*protocol.Session, error)
	// AppendMessage adds a transcript message to a session.
	AppendMessage(sessionID string, msg protocol.SessionMessage) error
	// History returns the most recent transcript messages in chronological
	// order. limit 0 means no limit.
	History(sessionID string, limit int) ([]protocol.SessionMessage, error)
	// Close marks a session as closed.
	Close(sessionID string) error
}

// Filter constrains session list queries.
type Filter struct {
	UserID string // exact match
	ChatID string // exact match
	Open   *bool  // true = open only, false = closed only
	Limit  int    // 0 = no limit
}
