package slackconn

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"github.com/daykeeper-io/daykeeper/internal/connector"
)

// Config holds Slack connector configuration.
type Config struct {
	BotToken string   // xoxb-... Bot User OAuth Token
	AppToken string   // xapp-... App-Level Token (for Socket Mode)
	Channels []string // Optional: only respond in these channels (empty = all)
}

// Connector implements connector.Connector for Slack via Socket Mode.
type Connector struct {
	api     *slack.Client
	socket  *socketmode.Client
	config  Config
	handler connector.InboundHandler
	logger  *slog.Logger
	cancel  context.CancelFunc
	botID   string
}

// New creates a new Slack connector.
func New(cfg Config, handler connector.InboundHandler, logger *slog.Logger) (*Connector, error) {
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("slack: bot_token is required")
	}
	if cfg.AppToken == "" {
		return nil, fmt.Errorf("slack: app_token is required (Socket Mode)")
	}

	if logger == nil {
		logger = slog.Default()
	}

	api := slack.New(cfg.BotToken, slack.OptionAppLevelToken(cfg.AppToken))

	// Test auth and get bot user ID
	authResp, err := api.AuthTest()
	if err != nil {
		return nil, fmt.Errorf("slack: auth test: %w", err)
	}

	logger.Info("slack bot authorized", "user", authResp.User, "team", authResp.Team)

	socket := socketmode.New(api)

	return &Connector{
		api:     api,
		socket:  socket,
		config:  cfg,
		handler: handler,
		logger:  logger,
		botID:   authResp.UserID,
	}, nil
}

func (c *Connector) Name() string { return "slack" }

// Start begins listening for events via Socket Mode. Blocks until context is cancelled.
func (c *Connector) Start(ctx context.Context) error {
	ctx, c.cancel = context.WithCancel(ctx)

	go c.handleEvents(ctx)

	c.logger.Info("slack connector started (socket mode)")
	return c.socket.RunContext(ctx)
}

// Stop gracefully shuts down the connector.
func (c *Connector) Stop() error {
	if c.cancel != nil {
		c.cancel()
	}
	return nil
}

// Send delivers a message to a Slack channel. A thread-scoped chat ID
// ("channel:ts") posts into that thread.
func (c *Connector) Send(_ context.Context, msg connector.OutboundMessage) error {
	channel, threadTS := splitChatID(msg.ChatID)

	opts := []slack.MsgOption{
		slack.MsgOptionText(MarkdownToMrkdwn(msg.Content), false),
	}
	if threadTS != "" {
		opts = append(opts, slack.MsgOptionTS(threadTS))
	}

	_, _, err := c.api.PostMessage(channel, opts...)
	if err != nil {
		return fmt.Errorf("slack: send message: %w", err)
	}
	return nil
}

func (c *Connector) handleEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-c.socket.Events:
			if event.Type != socketmode.EventTypeEventsAPI {
				continue
			}
			c.handleEventsAPI(ctx, event)
		}
	}
}

func (c *Connector) handleEventsAPI(ctx context.Context, event socketmode.Event) {
	eventsAPIEvent, ok := event.Data.(slackevents.EventsAPIEvent)
	if !ok {
		return
	}

	c.socket.Ack(*event.Request)

	switch ev := eventsAPIEvent.InnerEvent.Data.(type) {
	case *slackevents.MessageEvent:
		c.handleMessage(ctx, ev)
	case *slackevents.AppMentionEvent:
		c.handleMention(ctx, ev)
	}
}

func (c *Connector) handleMessage(ctx context.Context, ev *slackevents.MessageEvent) {
	// Ignore bot messages (including our own)
	if ev.BotID != "" || ev.User == "" || ev.User == c.botID {
		return
	}
	// Ignore message subtypes (edits, deletes, etc.)
	if ev.SubType != "" {
		return
	}
	if !c.isAllowedChannel(ev.Channel) {
		return
	}
	if ev.Text == "" {
		return
	}

	c.dispatch(ctx, ev.User, chatID(ev.Channel, ev.ThreadTimeStamp), ev.Text)
}

func (c *Connector) handleMention(ctx context.Context, ev *slackevents.AppMentionEvent) {
	if ev.User == c.botID {
		return
	}

	text := StripMention(ev.Text, c.botID)
	if text == "" {
		return
	}

	c.dispatch(ctx, ev.User, chatID(ev.Channel, ev.ThreadTimeStamp), text)
}

func (c *Connector) dispatch(ctx context.Context, userID, chat, text string) {
	inbound := connector.InboundMessage{
		Channel:  "slack",
		SenderID: userID,
		ChatID:   chat,
		Content:  text,
	}

	reply, err := c.handler(ctx, inbound)
	if err != nil {
		c.logger.Error("slack inbound handler error",
			"chat", chat,
			"user", userID,
			"error", err,
		)
		return
	}
	if reply == "" {
		return
	}

	if err := c.Send(ctx, connector.OutboundMessage{ChatID: chat, Content: reply}); err != nil {
		c.logger.Error("slack send reply failed", "chat", chat, "error", err)
	}
}

func (c *Connector) isAllowedChannel(channel string) bool {
	if len(c.config.Channels) == 0 {
		return true
	}
	for _, ch := range c.config.Channels {
		if ch == channel {
			return true
		}
	}
	return false
}

// chatID groups thread replies under one conversation: "channel" for
// top-level messages, "channel:ts" inside a thread.
func chatID(channel, threadTS string) string {
	if threadTS == "" {
		return channel
	}
	return channel + ":" + threadTS
}

func splitChatID(id string) (channel, threadTS string) {
	for i := 0; i < len(id); i++ {
		if id[i] == ':' {
			return id[:i], id[i+1:]
		}
	}
	return id, ""
}
