package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/daykeeper-io/daykeeper/pkg/protocol"
)

// Config is the top-level daykeeper configuration.
type Config struct {
	Assistant  AssistantConfig           `json:"assistant"`
	Agents     []AgentConfig             `json:"agents"`
	Providers  map[string]ProviderConfig `json:"providers"`
	Connectors ConnectorConfig           `json:"connectors"`
	Tools      ToolsConfig               `json:"tools"`
	Users      []UserConfig              `json:"users"`
}

// AssistantConfig holds assistant-level settings.
type AssistantConfig struct {
	DataDir      string `json:"data_dir"`
	PrimaryAgent string `json:"primary_agent,omitempty"` // default "orchestrator"
	HistoryLimit int    `json:"history_limit,omitempty"` // transcript messages per turn
	Timezone     string `json:"timezone,omitempty"`      // IANA name, default UTC
}

// AgentConfig declares a custom subagent. It is registered alongside the
// built-ins at startup; built-in names cannot be taken.
type AgentConfig struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Prompt      string          `json:"prompt,omitempty"`
	Tools       map[string]bool `json:"tools,omitempty"`
	Temperature float64         `json:"temperature,omitempty"`
}

// PromptRef is the prompt-table key for this agent's configured prompt.
// Startup registers the prompt text under this ref before any delegation.
func (a AgentConfig) PromptRef() string {
	return "prompts/" + a.Name
}

// Definition converts the config entry into an agent definition. Custom
// agents are always subagents and never built-in. When a prompt is
// configured the definition points at its table entry; otherwise the ref
// stays empty and resolution falls through to the synthesized prompt.
func (a AgentConfig) Definition() protocol.AgentDefinition {
	tools := a.Tools
	if tools == nil {
		tools = map[string]bool{}
	}
	def := protocol.AgentDefinition{
		Name:        a.Name,
		Mode:        protocol.ModeSubagent,
		BuiltIn:     false,
		Description: a.Description,
		Tools:       tools,
		Temperature: a.Temperature,
	}
	if a.Prompt != "" {
		def.SystemPromptRef = a.PromptRef()
	}
	return def
}

// ProviderConfig holds LLM provider settings.
type ProviderConfig struct {
	Type    string `json:"type,omitempty"` // "openai" (default) or "anthropic"
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url,omitempty"`
	Model   string `json:"model"`
}

// ConnectorConfig holds settings for chat-surface connectors.
type ConnectorConfig struct {
	Telegram *TelegramConfig `json:"telegram,omitempty"`
	Slack    *SlackConfig    `json:"slack,omitempty"`
}

// TelegramConfig holds Telegram bot settings.
type TelegramConfig struct {
	Token     string  `json:"token"`
	AllowFrom []int64 `json:"allow_from,omitempty"`
}

// SlackConfig holds Slack Socket Mode settings.
type SlackConfig struct {
	BotToken string   `json:"bot_token"`
	AppToken string   `json:"app_token"`
	Channels []string `json:"channels,omitempty"`
}

// ToolsConfig holds tool-level settings.
type ToolsConfig struct {
	BraveAPIKey string `json:"brave_api_key,omitempty"`
}

// UserConfig holds per-user service credentials.
type UserConfig struct {
	ID            string `json:"id"`
	TodoistToken  string `json:"todoist_token,omitempty"`
	CalendarToken string `json:"calendar_token,omitempty"`
}

// Load reads configuration from a JSON file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromEnv builds a minimal single-user config from environment
// variables with the DAYKEEPER_ prefix.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Assistant: AssistantConfig{
			DataDir:  getenv("DAYKEEPER_DATA_DIR", "/data"),
			Timezone: os.Getenv("DAYKEEPER_TIMEZONE"),
		},
		Providers: make(map[string]ProviderConfig),
	}

	// Default provider from env
	if apiKey := os.Getenv("DAYKEEPER_ANTHROPIC_API_KEY"); apiKey != "" {
		cfg.Providers["default"] = ProviderConfig{
			Type:   "anthropic",
			APIKey: apiKey,
			Model:  getenv("DAYKEEPER_MODEL", "claude-sonnet-4-20250514"),
		}
	} else if apiKey := os.Getenv("DAYKEEPER_OPENAI_API_KEY"); apiKey != "" {
		cfg.Providers["default"] = ProviderConfig{
			Type:    "openai",
			APIKey:  apiKey,
			BaseURL: os.Getenv("DAYKEEPER_OPENAI_BASE_URL"),
			Model:   getenv("DAYKEEPER_MODEL", "gpt-4o"),
		}
	}

	// Telegram connector from env
	if token := os.Getenv("DAYKEEPER_TELEGRAM_TOKEN"); token != "" {
		cfg.Connectors.Telegram = &TelegramConfig{Token: token}
		if ids := os.Getenv("DAYKEEPER_TELEGRAM_ALLOW_FROM"); ids != "" {
			parsed, err := parseInt64List(ids)
			if err != nil {
				return nil, fmt.Errorf("config: DAYKEEPER_TELEGRAM_ALLOW_FROM: %w", err)
			}
			cfg.Connectors.Telegram.AllowFrom = parsed
		}
	}

	// Slack connector from env
	if bot := os.Getenv("DAYKEEPER_SLACK_BOT_TOKEN"); bot != "" {
		cfg.Connectors.Slack = &SlackConfig{
			BotToken: bot,
			AppToken: os.Getenv("DAYKEEPER_SLACK_APP_TOKEN"),
		}
	}

	cfg.Tools.BraveAPIKey = os.Getenv("DAYKEEPER_BRAVE_API_KEY")

	// Single default user from env credentials.
	if todoist, calendar := os.Getenv("DAYKEEPER_TODOIST_TOKEN"), os.Getenv("DAYKEEPER_CALENDAR_TOKEN"); todoist != "" || calendar != "" {
		cfg.Users = []UserConfig{{
			ID:            getenv("DAYKEEPER_USER_ID", "default"),
			TodoistToken:  todoist,
			CalendarToken: calendar,
		}}
	}

	return cfg, nil
}

// Validate checks for required fields.
func (c *Config) Validate() error {
	var errs []string

	if c.Assistant.DataDir == "" {
		errs = append(errs, "assistant.data_dir is required")
	}

	if len(c.Providers) == 0 {
		errs = append(errs, "at least one provider is required")
	}
	for name, p := range c.Providers {
		if p.APIKey == "" {
			errs = append(errs, fmt.Sprintf("providers.%s.api_key is required", name))
		}
		if p.Model == "" {
			errs = append(errs, fmt.Sprintf("providers.%s.model is required", name))
		}
		switch p.Type {
		case "", "openai", "anthropic":
		default:
			errs = append(errs, fmt.Sprintf("providers.%s.type %q is not supported", name, p.Type))
		}
	}

	for i, a := range c.Agents {
		if a.Name == "" {
			errs = append(errs, fmt.Sprintf("agents[%d].name is required", i))
		}
		if a.Description == "" {
			errs = append(errs, fmt.Sprintf("agents[%d].description is required", i))
		}
	}

	for i, u := range c.Users {
		if u.ID == "" {
			errs = append(errs, fmt.Sprintf("users[%d].id is required", i))
		}
	}

	if c.Connectors.Telegram != nil && c.Connectors.Telegram.Token == "" {
		errs = append(errs, "connectors.telegram.token is required")
	}
	if c.Connectors.Slack != nil {
		if c.Connectors.Slack.BotToken == "" {
			errs = append(errs, "connectors.slack.bot_token is required")
		}
		if c.Connectors.Slack.AppToken == "" {
			errs = append(errs, "connectors.slack.app_token is required")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseInt64List(s string) ([]int64, error) {
	parts := strings.Split(s, ",")
	result := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q", p)
		}
		result = append(result, n)
	}
	return result, nil
}
