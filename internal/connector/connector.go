package connector

import "context"

// Connector is the interface for chat surfaces (Telegram, Slack, etc.).
type Connector interface {
	// Name returns the connector type (e.g., "telegram", "slack").
	Name() string
	// Start begins listening for inbound messages. Blocks until context is cancelled.
	Start(ctx context.Context) error
	// Stop gracefully shuts down the connector.
	Stop() error
	// Send delivers an outbound message to the chat surface.
	Send(ctx context.Context, msg OutboundMessage) error
}

// OutboundMessage is an assistant reply pushed to a chat surface.
type OutboundMessage struct {
	ChatID  string // Platform-specific chat identifier
	Content string // Message text (Markdown)
}

// InboundMessage is a user message received from a chat surface.
type InboundMessage struct {
	Channel  string // Connector name (e.g., "telegram")
	SenderID string // Platform-specific sender identifier
	ChatID   string // Platform-specific chat identifier
	Content  string // Message text
}

// InboundHandler processes user messages. The reply, if non-empty, is sent
// back to the originating chat by the caller.
type InboundHandler func(ctx context.Context, msg InboundMessage) (string, error)
