package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/daykeeper-io/daykeeper/internal/connector"
)

// Config holds Telegram connector configuration.
type Config struct {
	Token     string  // Bot token from @BotFather
	AllowFrom []int64 // Allowed Telegram user IDs (empty = allow all)
}

// ResetFunc closes the open conversation for a chat so the next message
// starts a fresh session.
type ResetFunc func(userID, chatID string) error

// Connector implements the connector.Connector interface for Telegram.
type Connector struct {
	bot     *tgbotapi.BotAPI
	config  Config
	handler connector.InboundHandler
	reset   ResetFunc
	logger  *slog.Logger
	cancel  context.CancelFunc
}

// New creates a new Telegram connector. reset may be nil, in which case
// /reset is forwarded like any other message.
func New(cfg Config, handler connector.InboundHandler, reset ResetFunc, logger *slog.Logger) (*Connector, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("telegram: init bot: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("telegram bot authorized", "username", bot.Self.UserName)

	return &Connector{
		bot:     bot,
		config:  cfg,
		handler: handler,
		reset:   reset,
		logger:  logger,
	}, nil
}

func (c *Connector) Name() string { return "telegram" }

// Start begins long-polling for updates. Blocks until context is cancelled.
func (c *Connector) Start(ctx context.Context) error {
	ctx, c.cancel = context.WithCancel(ctx)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := c.bot.GetUpdatesChan(u)

	c.logger.Info("telegram connector started", "bot", c.bot.Self.UserName)

	for {
		select {
		case update := <-updates:
			if update.Message == nil {
				continue
			}
			c.handleUpdate(ctx, update.Message)

		case <-ctx.Done():
			c.bot.StopReceivingUpdates()
			c.logger.Info("telegram connector stopped")
			return ctx.Err()
		}
	}
}

// Stop gracefully shuts down the connector.
func (c *Connector) Stop() error {
	if c.cancel != nil {
		c.cancel()
	}
	return nil
}

// Send delivers a message to a Telegram chat.
func (c *Connector) Send(_ context.Context, msg connector.OutboundMessage) error {
	chatID, err := strconv.ParseInt(msg.ChatID, 10, 64)
	if err != nil {
		return fmt.Errorf("telegram: invalid chat_id %q: %w", msg.ChatID, err)
	}

	if strings.TrimSpace(msg.Content) == "" {
		c.logger.Warn("skipping empty message", "chat_id", msg.ChatID)
		return nil
	}

	// Convert Markdown to Telegram HTML
	html := MarkdownToTelegramHTML(msg.Content)

	tgMsg := tgbotapi.NewMessage(chatID, html)
	tgMsg.ParseMode = "HTML"
	tgMsg.DisableWebPagePreview = true

	_, err = c.bot.Send(tgMsg)
	if err != nil {
		// Fallback to plain text if HTML fails
		c.logger.Warn("HTML send failed, falling back to plain text",
			"chat_id", msg.ChatID,
			"error", err,
		)
		tgMsg.Text = StripMarkdown(msg.Content)
		tgMsg.ParseMode = ""
		_, err = c.bot.Send(tgMsg)
	}

	return err
}

func (c *Connector) handleUpdate(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	chatID := msg.Chat.ID

	// Access control
	if len(c.config.AllowFrom) > 0 && !contains(c.config.AllowFrom, userID) {
		c.logger.Warn("unauthorized user", "user_id", userID, "username", msg.From.UserName)
		return
	}

	if msg.IsCommand() {
		c.handleCommand(ctx, msg)
		return
	}

	text := msg.Text
	if text == "" && msg.Caption != "" {
		text = msg.Caption
	}
	if text == "" {
		return
	}

	c.dispatch(ctx, userID, chatID, text)
}

func (c *Connector) dispatch(ctx context.Context, userID, chatID int64, text string) {
	// Typing indicator while the assistant works.
	typing := tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)
	c.bot.Send(typing)

	inbound := connector.InboundMessage{
		Channel:  "telegram",
		SenderID: strconv.FormatInt(userID, 10),
		ChatID:   strconv.FormatInt(chatID, 10),
		Content:  text,
	}

	reply, err := c.handler(ctx, inbound)
	if err != nil {
		c.logger.Error("inbound handler error",
			"chat_id", chatID,
			"error", err,
		)
		c.bot.Send(tgbotapi.NewMessage(chatID, "Sorry, something went wrong handling that."))
		return
	}
	if reply == "" {
		return
	}

	if err := c.Send(ctx, connector.OutboundMessage{
		ChatID:  strconv.FormatInt(chatID, 10),
		Content: reply,
	}); err != nil {
		c.logger.Error("send reply failed", "chat_id", chatID, "error", err)
	}
}

func (c *Connector) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "help", "start":
		help := strings.Join([]string{
			"I keep track of your tasks, calendar, and notes.",
			"",
			"/reset — Start a new conversation",
			"/help — Show this help message",
			"",
			"Just send me a message to get going!",
		}, "\n")
		c.bot.Send(tgbotapi.NewMessage(chatID, help))

	case "reset":
		if c.reset != nil {
			userID := strconv.FormatInt(msg.From.ID, 10)
			if err := c.reset(userID, strconv.FormatInt(chatID, 10)); err != nil {
				c.logger.Error("session reset failed", "chat_id", chatID, "error", err)
				c.bot.Send(tgbotapi.NewMessage(chatID, "Couldn't reset the conversation."))
				return
			}
			c.bot.Send(tgbotapi.NewMessage(chatID, "Started a new conversation."))
			return
		}
		fallthrough

	default:
		// Unknown commands go through as plain text so the assistant can
		// respond to them.
		text := "/" + msg.Command()
		if msg.CommandArguments() != "" {
			text += " " + msg.CommandArguments()
		}
		c.dispatch(ctx, msg.From.ID, chatID, text)
	}
}

func contains(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
