package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/daykeeper-io/daykeeper/internal/agent"
	"github.com/daykeeper-io/daykeeper/internal/tool"
	"github.com/daykeeper-io/daykeeper/pkg/protocol"
)

const validJSON = `{
  "assistant": {
    "data_dir": "/tmp/daykeeper-test",
    "timezone": "Europe/Berlin",
    "history_limit": 20
  },
  "agents": [
    {
      "name": "travel",
      "description": "Plans trips and books nothing.",
      "tools": {"get_events": true, "web_search": true},
      "temperature": 0.5
    }
  ],
  "providers": {
    "default": {
      "api_key": "sk-test-key",
      "model": "gpt-4o"
    }
  },
  "connectors": {
    "telegram": {
      "token": "123456:ABC",
      "allow_from": [100, 200]
    }
  },
  "tools": {
    "brave_api_key": "brave-key"
  },
  "users": [
    {"id": "u1", "todoist_token": "td-token", "calendar_token": "cal-token"}
  ]
}`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, validJSON))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Assistant.DataDir != "/tmp/daykeeper-test" {
		t.Errorf("data_dir = %q", cfg.Assistant.DataDir)
	}
	if cfg.Assistant.Timezone != "Europe/Berlin" {
		t.Errorf("timezone = %q", cfg.Assistant.Timezone)
	}
	if len(cfg.Agents) != 1 || cfg.Agents[0].Name != "travel" {
		t.Errorf("agents = %+v", cfg.Agents)
	}
	if cfg.Providers["default"].Model != "gpt-4o" {
		t.Errorf("provider model = %q", cfg.Providers["default"].Model)
	}
	if cfg.Connectors.Telegram == nil || cfg.Connectors.Telegram.Token != "123456:ABC" {
		t.Errorf("telegram = %+v", cfg.Connectors.Telegram)
	}
	if len(cfg.Connectors.Telegram.AllowFrom) != 2 {
		t.Errorf("allow_from = %v", cfg.Connectors.Telegram.AllowFrom)
	}
	if cfg.Tools.BraveAPIKey != "brave-key" {
		t.Errorf("brave key = %q", cfg.Tools.BraveAPIKey)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.json")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	_, err := Load(writeConfig(t, "{not json"))
	if err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidateMissingProvider(t *testing.T) {
	cfg := &Config{Assistant: AssistantConfig{DataDir: "/data"}}
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "provider") {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestValidateProviderFields(t *testing.T) {
	cfg := &Config{
		Assistant: AssistantConfig{DataDir: "/data"},
		Providers: map[string]ProviderConfig{
			"default": {Type: "mistral", APIKey: "", Model: ""},
		},
	}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"api_key", "model", "not supported"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in error, got %v", want, err)
		}
	}
}

func TestValidateAgentEntries(t *testing.T) {
	cfg := &Config{
		Assistant: AssistantConfig{DataDir: "/data"},
		Providers: map[string]ProviderConfig{"default": {APIKey: "k", Model: "m"}},
		Agents:    []AgentConfig{{Name: "", Description: ""}},
	}
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "agents[0].name") {
		t.Fatalf("expected agent name error, got %v", err)
	}
}

func TestValidateConnectorTokens(t *testing.T) {
	cfg := &Config{
		Assistant:  AssistantConfig{DataDir: "/data"},
		Providers:  map[string]ProviderConfig{"default": {APIKey: "k", Model: "m"}},
		Connectors: ConnectorConfig{Slack: &SlackConfig{}},
	}
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "slack.bot_token") {
		t.Fatalf("expected slack token error, got %v", err)
	}
}

func TestAgentConfigDefinition(t *testing.T) {
	a := AgentConfig{
		Name:        "travel",
		Description: "Plans trips.",
		Tools:       map[string]bool{"get_events": true},
		Temperature: 0.5,
	}
	def := a.Definition()
	if def.Mode != protocol.ModeSubagent {
		t.Errorf("custom agents must be subagents, got %v", def.Mode)
	}
	if def.BuiltIn {
		t.Error("custom agents must not be built-in")
	}
	if !def.ToolGranted("get_events") {
		t.Error("grant map lost")
	}

	// Nil tool maps become empty, never nil.
	empty := AgentConfig{Name: "x", Description: "y"}.Definition()
	if empty.Tools == nil {
		t.Error("expected empty tool map")
	}
}

func TestAgentConfigPromptWiring(t *testing.T) {
	a := AgentConfig{
		Name:        "travel",
		Description: "Plans trips.",
		Prompt:      "You are the travel agent. Prefer trains over flights under 600km.",
	}

	def := a.Definition()
	if def.SystemPromptRef != "prompts/travel" {
		t.Fatalf("SystemPromptRef = %q", def.SystemPromptRef)
	}

	// The configured text, registered under the ref, wins over the
	// synthesized fallback.
	prompts := agent.DefaultPrompts()
	prompts[a.PromptRef()] = a.Prompt
	if got := agent.SystemPrompt(prompts, def); got != a.Prompt {
		t.Errorf("resolved prompt = %q", got)
	}

	// No prompt configured: empty ref, synthesized fallback.
	bare := AgentConfig{Name: "travel", Description: "Plans trips."}.Definition()
	if bare.SystemPromptRef != "" {
		t.Errorf("expected empty ref without a prompt, got %q", bare.SystemPromptRef)
	}
	if got := agent.SystemPrompt(prompts, bare); !strings.Contains(got, "Plans trips.") {
		t.Errorf("fallback prompt = %q", got)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DAYKEEPER_OPENAI_API_KEY", "sk-env")
	t.Setenv("DAYKEEPER_MODEL", "gpt-4o-mini")
	t.Setenv("DAYKEEPER_TELEGRAM_TOKEN", "tok")
	t.Setenv("DAYKEEPER_TELEGRAM_ALLOW_FROM", "1, 2,3")
	t.Setenv("DAYKEEPER_TODOIST_TOKEN", "td")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}

	p := cfg.Providers["default"]
	if p.Type != "openai" || p.APIKey != "sk-env" || p.Model != "gpt-4o-mini" {
		t.Errorf("provider = %+v", p)
	}
	if cfg.Connectors.Telegram == nil || len(cfg.Connectors.Telegram.AllowFrom) != 3 {
		t.Errorf("telegram = %+v", cfg.Connectors.Telegram)
	}
	if len(cfg.Users) != 1 || cfg.Users[0].TodoistToken != "td" {
		t.Errorf("users = %+v", cfg.Users)
	}
}

func TestLoadFromEnvAnthropicWins(t *testing.T) {
	t.Setenv("DAYKEEPER_ANTHROPIC_API_KEY", "sk-ant")
	t.Setenv("DAYKEEPER_OPENAI_API_KEY", "sk-oai")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.Providers["default"].Type != "anthropic" {
		t.Errorf("expected anthropic provider, got %+v", cfg.Providers["default"])
	}
}

func TestLoadFromEnvBadAllowList(t *testing.T) {
	t.Setenv("DAYKEEPER_TELEGRAM_TOKEN", "tok")
	t.Setenv("DAYKEEPER_TELEGRAM_ALLOW_FROM", "1,abc")

	if _, err := LoadFromEnv(); err == nil {
		t.Fatal("expected error for bad allow list")
	}
}

func TestCredentials(t *testing.T) {
	creds := NewCredentials([]UserConfig{
		{ID: "u1", TodoistToken: "td", CalendarToken: "cal"},
		{ID: "u2"},
	})

	if tok, err := creds.TodoistToken("u1"); err != nil || tok != "td" {
		t.Errorf("TodoistToken(u1) = %q, %v", tok, err)
	}
	if tok, err := creds.CalendarToken("u1"); err != nil || tok != "cal" {
		t.Errorf("CalendarToken(u1) = %q, %v", tok, err)
	}
	if _, err := creds.TodoistToken("u2"); !errors.Is(err, tool.ErrNotConfigured) {
		t.Errorf("missing token must wrap ErrNotConfigured, got %v", err)
	}
	if _, err := creds.CalendarToken("missing"); !errors.Is(err, tool.ErrNotConfigured) {
		t.Errorf("unknown user must wrap ErrNotConfigured, got %v", err)
	}
}
