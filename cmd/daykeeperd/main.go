package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/daykeeper-io/daykeeper/internal/agent"
	"github.com/daykeeper-io/daykeeper/internal/config"
	"github.com/daykeeper-io/daykeeper/internal/connector"
	slackconn "github.com/daykeeper-io/daykeeper/internal/connector/slack"
	"github.com/daykeeper-io/daykeeper/internal/connector/telegram"
	"github.com/daykeeper-io/daykeeper/internal/logbuf"
	"github.com/daykeeper-io/daykeeper/internal/orchestrator"
	"github.com/daykeeper-io/daykeeper/internal/provider"
	"github.com/daykeeper-io/daykeeper/internal/scheduler"
	"github.com/daykeeper-io/daykeeper/internal/scratchpad"
	"github.com/daykeeper-io/daykeeper/internal/session"
	"github.com/daykeeper-io/daykeeper/internal/tool"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "Path to config JSON file")
	verbose := flag.Bool("v", false, "Verbose logging")
	flag.Parse()

	// Set up logging
	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logBuf := logbuf.New(2000)
	jsonHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger := slog.New(logbuf.NewHandler(jsonHandler, logBuf))

	// Load config (file or env)
	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("daykeeperd starting", "version", version, "data_dir", cfg.Assistant.DataDir)

	location := time.UTC
	if cfg.Assistant.Timezone != "" {
		loc, err := time.LoadLocation(cfg.Assistant.Timezone)
		if err != nil {
			logger.Error("invalid timezone", "timezone", cfg.Assistant.Timezone, "error", err)
			os.Exit(1)
		}
		location = loc
	}

	// 1. Initialize provider(s)
	providers := make(map[string]provider.Provider)
	for name, pcfg := range cfg.Providers {
		switch pcfg.Type {
		case "anthropic":
			var opts []provider.AnthropicOption
			if pcfg.BaseURL != "" {
				opts = append(opts, provider.WithAnthropicBaseURL(pcfg.BaseURL))
			}
			if pcfg.Model != "" {
				opts = append(opts, provider.WithAnthropicModel(pcfg.Model))
			}
			providers[name] = provider.NewAnthropic(pcfg.APIKey, opts...)
		default: // "openai" or empty
			var opts []provider.OpenAIOption
			if pcfg.BaseURL != "" {
				opts = append(opts, provider.WithBaseURL(pcfg.BaseURL))
			}
			if pcfg.Model != "" {
				opts = append(opts, provider.WithModel(pcfg.Model))
			}
			providers[name] = provider.NewOpenAI(pcfg.APIKey, opts...)
		}
		logger.Info("provider initialized", "name", name, "type", pcfg.Type, "model", pcfg.Model)
	}

	defaultProv, ok := providers["default"]
	if !ok {
		logger.Error("no 'default' provider configured")
		os.Exit(1)
	}

	// 2. Session store
	os.MkdirAll(cfg.Assistant.DataDir, 0o755)
	dbPath := filepath.Join(cfg.Assistant.DataDir, "sessions.db")
	store, err := session.NewSQLiteStore(dbPath)
	if err != nil {
		logger.Error("failed to open session store", "path", dbPath, "error", err)
		os.Exit(1)
	}
	defer store.Shutdown()

	// 3. Agent registry: built-ins plus custom agents from config
	registry := agent.NewDefaultRegistry(logger.With("component", "registry"))
	for _, ac := range cfg.Agents {
		if err := registry.Register(ac.Definition()); err != nil {
			logger.Error("failed to register agent", "agent", ac.Name, "error", err)
			os.Exit(1)
		}
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 4. Reminders. The notify callback is bound after the orchestrator and
	// connectors exist; the cron loop starts only once it is set, so fired
	// jobs never observe a half-initialized callback.
	var notify func(userID, message string)
	sched := scheduler.New(func(userID, message string) {
		notify(userID, message)
	}, logger.With("component", "scheduler"))

	// 5. Tool set shared by the orchestrator and the dispatcher
	toolset := &tool.SetBuilder{
		Creds:       config.NewCredentials(cfg.Users),
		Scratchpad:  scratchpad.NewStore(filepath.Join(cfg.Assistant.DataDir, "scratchpad")),
		Reminders:   sched,
		LogBuf:      logBuf,
		BraveAPIKey: cfg.Tools.BraveAPIKey,
		Version:     version,
		StartedAt:   time.Now(),
	}

	prompts := agent.DefaultPrompts()
	for _, ac := range cfg.Agents {
		if ac.Prompt != "" {
			prompts[ac.PromptRef()] = ac.Prompt
		}
	}
	dispatcher := agent.NewDispatcher(registry, toolset, defaultProv, prompts, logger.With("component", "dispatcher"))

	orch := &orchestrator.Orchestrator{
		Registry:     registry,
		Dispatcher:   dispatcher,
		Tools:        toolset,
		Provider:     defaultProv,
		Prompts:      prompts,
		Sessions:     store,
		Logger:       logger.With("component", "orchestrator"),
		PrimaryAgent: cfg.Assistant.PrimaryAgent,
		HistoryLimit: cfg.Assistant.HistoryLimit,
		Location:     location,
	}

	handler := func(ctx context.Context, msg connector.InboundMessage) (string, error) {
		return orch.HandleMessage(ctx, msg.SenderID, msg.ChatID, msg.Content)
	}

	// 6. Start connectors
	var connectors []connector.Connector

	if cfg.Connectors.Telegram != nil {
		tgConn, err := telegram.New(
			telegram.Config{
				Token:     cfg.Connectors.Telegram.Token,
				AllowFrom: cfg.Connectors.Telegram.AllowFrom,
			},
			handler,
			orch.ResetSession,
			logger.With("connector", "telegram"),
		)
		if err != nil {
			logger.Error("failed to init telegram connector", "error", err)
			os.Exit(1)
		}
		connectors = append(connectors, tgConn)
		go safeGo(logger, "telegram", func() { tgConn.Start(ctx) })
		logger.Info("telegram connector started")
	}

	if cfg.Connectors.Slack != nil {
		slConn, err := slackconn.New(
			slackconn.Config{
				BotToken: cfg.Connectors.Slack.BotToken,
				AppToken: cfg.Connectors.Slack.AppToken,
				Channels: cfg.Connectors.Slack.Channels,
			},
			handler,
			logger.With("connector", "slack"),
		)
		if err != nil {
			logger.Error("failed to init slack connector", "error", err)
			os.Exit(1)
		}
		connectors = append(connectors, slConn)
		go safeGo(logger, "slack", func() { slConn.Start(ctx) })
		logger.Info("slack connector started")
	}

	// Fired reminders go to the user's most recent open chat on every
	// connector; the connector that knows the chat delivers it.
	notify = func(userID, message string) {
		chatID, err := orch.NotifyReminder(userID, message)
		if err != nil {
			logger.Error("reminder delivery failed", "user", userID, "error", err)
			return
		}
		if chatID == "" {
			logger.Warn("reminder fired but user has no open session", "user", userID)
			return
		}
		out := connector.OutboundMessage{ChatID: chatID, Content: "Reminder: " + message}
		for _, c := range connectors {
			if err := c.Send(context.Background(), out); err != nil {
				logger.Debug("reminder send skipped", "connector", c.Name(), "error", err)
			}
		}
	}

	go safeGo(logger, "scheduler", func() { sched.Start(ctx) })

	if len(connectors) == 0 {
		logger.Warn("no connectors configured; daykeeperd is idle")
	}

	// 7. Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received signal, shutting down", "signal", sig)
	cancel()
	for _, c := range connectors {
		c.Stop()
	}
	logger.Info("daykeeperd stopped")
}

// safeGo runs fn with panic recovery.
func safeGo(logger *slog.Logger, name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("goroutine panicked", "name", name, "panic", fmt.Sprintf("%v", r))
		}
	}()
	fn()
}
