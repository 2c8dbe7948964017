package orchestrator

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"time"

	"github.com/daykeeper-io/daykeeper/internal/agent"
	"github.com/daykeeper-io/daykeeper/internal/provider"
	"github.com/daykeeper-io/daykeeper/internal/session"
	"github.com/daykeeper-io/daykeeper/internal/tool"
	"github.com/daykeeper-io/daykeeper/pkg/protocol"
)

const defaultHistoryLimit = 40

// Orchestrator runs the primary agent for inbound chat messages. It owns
// the chat-to-session mapping and the transcript; delegation to subagents
// happens through the task tool wired into the primary agent's tool set.
type Orchestrator struct {
	Registry   *agent.Registry
	Dispatcher *agent.Dispatcher
	Tools      tool.Builder
	Provider   provider.Provider
	Prompts    agent.PromptResolver
	Sessions   session.Store
	Logger     *slog.Logger

	// PrimaryAgent names the primary-mode definition to run. Empty means
	// "orchestrator".
	PrimaryAgent string
	// HistoryLimit bounds how many transcript messages are replayed per
	// turn. 0 means the default.
	HistoryLimit int
	// Now and Location override the request clock, mainly for tests.
	Now      func() time.Time
	Location *time.Location
}

func (o *Orchestrator) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// HandleMessage processes one inbound user message: find or open the chat's
// session, persist the message, run the primary agent over the recent
// transcript, persist and return the reply.
func (o *Orchestrator) HandleMessage(ctx context.Context, userID, chatID, content string) (string, error) {
	def, ok := o.Registry.GetAgent(o.primaryName())
	if !ok || def.Mode != protocol.ModePrimary {
		return "", fmt.Errorf("orchestrator: no primary agent %q", o.primaryName())
	}

	sess, err := o.ensureSession(userID, chatID)
	if err != nil {
		return "", err
	}

	if err := o.Sessions.AppendMessage(sess.ID, protocol.SessionMessage{
		ID:        generateID(),
		Role:      "user",
		Content:   content,
		CreatedAt: o.now(),
	}); err != nil {
		return "", fmt.Errorf("orchestrator: persist inbound: %w", err)
	}

	limit := o.HistoryLimit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	history, err := o.Sessions.History(sess.ID, limit)
	if err != nil {
		return "", fmt.Errorf("orchestrator: load history: %w", err)
	}

	rc := tool.RequestContext{
		UserID:    userID,
		Now:       o.now(),
		Location:  o.Location,
		SessionID: sess.ID,
	}
	full, err := o.Tools.Build(rc)
	if err != nil {
		return "", fmt.Errorf("orchestrator: build tools: %w", err)
	}
	full.Register(&agent.TaskTool{Dispatcher: o.Dispatcher, Context: rc})
	reduced := agent.FilterTools(def, full)

	messages := make([]protocol.ChatMessage, 0, len(history)+1)
	messages = append(messages, protocol.ChatMessage{
		Role:    "system",
		Content: agent.SystemPrompt(o.Prompts, def),
	})
	for _, m := range history {
		messages = append(messages, protocol.ChatMessage{Role: m.Role, Content: m.Content})
	}

	loop := &agent.Loop{
		Provider:    o.Provider,
		Tools:       reduced,
		Logger:      o.logger().With("session", sess.ID),
		Temperature: def.Temperature,
	}
	reply, invocations, err := loop.Run(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("orchestrator: %w", err)
	}

	o.logger().Info("turn completed",
		"session", sess.ID,
		"user", userID,
		"tool_calls", len(invocations),
	)

	if err := o.Sessions.AppendMessage(sess.ID, protocol.SessionMessage{
		ID:        generateID(),
		Role:      "assistant",
		Content:   reply,
		CreatedAt: o.now(),
	}); err != nil {
		return "", fmt.Errorf("orchestrator: persist reply: %w", err)
	}
	return reply, nil
}

// ResetSession closes the open session for a chat so the next message
// starts fresh. A chat with no open session is a no-op.
func (o *Orchestrator) ResetSession(userID, chatID string) error {
	sess, err := o.Sessions.Active(userID, chatID)
	if err != nil {
		return fmt.Errorf("orchestrator: reset: %w", err)
	}
	if sess == nil {
		return nil
	}
	if err := o.Sessions.Close(sess.ID); err != nil {
		return fmt.Errorf("orchestrator: reset: %w", err)
	}
	o.logger().Info("session reset", "session", sess.ID, "chat", chatID)
	return nil
}

// NotifyReminder records a fired reminder in the user's most recent open
// session and returns the chat to push it to. An empty chat ID means the
// user has no open session to deliver into.
func (o *Orchestrator) NotifyReminder(userID, message string) (string, error) {
	open := true
	sessions, err := o.Sessions.List(session.Filter{UserID: userID, Open: &open, Limit: 1})
	if err != nil {
		return "", fmt.Errorf("orchestrator: reminder lookup: %w", err)
	}
	if len(sessions) == 0 {
		return "", nil
	}
	sess := sessions[0]

	if err := o.Sessions.AppendMessage(sess.ID, protocol.SessionMessage{
		ID:        generateID(),
		Role:      "system",
		Content:   "Reminder: " + message,
		CreatedAt: o.now(),
	}); err != nil {
		return "", fmt.Errorf("orchestrator: persist reminder: %w", err)
	}
	return sess.ChatID, nil
}

func (o *Orchestrator) primaryName() string {
	if o.PrimaryAgent != "" {
		return o.PrimaryAgent
	}
	return "orchestrator"
}

func (o *Orchestrator) ensureSession(userID, chatID string) (*protocol.Session, error) {
	sess, err := o.Sessions.Active(userID, chatID)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: session lookup: %w", err)
	}
	if sess != nil {
		return sess, nil
	}

	sess = &protocol.Session{
		ID:        generateID(),
		UserID:    userID,
		ChatID:    chatID,
		CreatedAt: o.now(),
	}
	if err := o.Sessions.Save(sess); err != nil {
		return nil, fmt.Errorf("orchestrator: create session: %w", err)
	}
	o.logger().Info("session created", "session", sess.ID, "user", userID, "chat", chatID)
	return sess, nil
}

// generateID creates a short random hex ID.
func generateID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return fmt.Sprintf("%x", b)
}
