package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/daykeeper-io/daykeeper/pkg/protocol"
)

func TestAnthropicChat_TextResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "test-key" {
			t.Error("missing x-api-key header")
		}
		if r.Header.Get("anthropic-version") != anthropicAPIVersion {
			t.Error("missing anthropic-version header")
		}

		var req anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.MaxTokens != 4096 {
			t.Errorf("expected default max_tokens 4096, got %d", req.MaxTokens)
		}

		resp := anthropicResponse{
			Content: []contentBlock{{Type: "text", Text: "Hello!"}},
			Usage:   anthropicUsage{InputTokens: 10, OutputTokens: 5},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	p := NewAnthropic("test-key", WithAnthropicBaseURL(srv.URL))

	got, err := p.Chat(context.Background(), protocol.ChatRequest{
		Messages: []protocol.ChatMessage{{Role: "user", Content: "Hi"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Content != "Hello!" {
		t.Errorf("expected content 'Hello!', got %q", got.Content)
	}
	if got.Usage.PromptTokens != 10 || got.Usage.CompletionTokens != 5 {
		t.Errorf("unexpected usage: %+v", got.Usage)
	}
}

func TestAnthropicChat_SystemPromptExtraction(t *testing.T) {
	var captured anthropicRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&captured)
		resp := anthropicResponse{
			Content: []contentBlock{{Type: "text", Text: "OK"}},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	p := NewAnthropic("test-key", WithAnthropicBaseURL(srv.URL))

	_, err := p.Chat(context.Background(), protocol.ChatRequest{
		Messages: []protocol.ChatMessage{
			{Role: "system", Content: "You are the planning agent."},
			{Role: "user", Content: "organize my week"},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if captured.System != "You are the planning agent." {
		t.Errorf("expected system prompt extracted, got %q", captured.System)
	}
	if len(captured.Messages) != 1 {
		t.Fatalf("expected 1 non-system message, got %d", len(captured.Messages))
	}
	if captured.Messages[0].Role != "user" {
		t.Errorf("expected user role, got %q", captured.Messages[0].Role)
	}
}

func TestAnthropicChat_ToolUseRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := anthropicResponse{
			Content: []contentBlock{
				{Type: "text", Text: "Checking your calendar."},
				{Type: "tool_use", ID: "toolu_01", Name: "get_events", Input: map[string]any{"date": "2026-08-29"}},
			},
			Usage: anthropicUsage{InputTokens: 30, OutputTokens: 12},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	p := NewAnthropic("test-key", WithAnthropicBaseURL(srv.URL))

	got, err := p.Chat(context.Background(), protocol.ChatRequest{
		Messages: []protocol.ChatMessage{{Role: "user", Content: "What's on today?"}},
		Tools: []protocol.ToolDefinition{
			protocol.NewToolDefinition("get_events", "List calendar events", map[string]any{
				"type": "object",
				"properties": map[string]any{
					"date": map[string]any{"type": "string"},
				},
			}),
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Content != "Checking your calendar." {
		t.Errorf("unexpected content %q", got.Content)
	}
	if len(got.ToolCalls) != 1 {
		t.Fatalf("expected 1 tool call, got %d", len(got.ToolCalls))
	}
	if got.ToolCalls[0].Name != "get_events" || got.ToolCalls[0].ID != "toolu_01" {
		t.Errorf("unexpected tool call: %+v", got.ToolCalls[0])
	}

	// Feed the tool result back and verify the wire encoding.
	var captured anthropicRequest
	srv2 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&captured)
		json.NewEncoder(w).Encode(anthropicResponse{
			Content: []contentBlock{{Type: "text", Text: "You have one meeting."}},
		})
	}))
	defer srv2.Close()

	p2 := NewAnthropic("test-key", WithAnthropicBaseURL(srv2.URL))
	_, err = p2.Chat(context.Background(), protocol.ChatRequest{
		Messages: []protocol.ChatMessage{
			{Role: "user", Content: "What's on today?"},
			{Role: "assistant", Content: "Checking your calendar.", ToolCalls: got.ToolCalls},
			{Role: "tool", Content: `[{"summary":"standup"}]`, ToolCallID: "toolu_01", Name: "get_events"},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(captured.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(captured.Messages))
	}
	last := captured.Messages[2]
	if last.Role != "user" || len(last.Content) != 1 || last.Content[0].Type != "tool_result" {
		t.Errorf("expected tool_result block as user message, got %+v", last)
	}
	if last.Content[0].ToolUseID != "toolu_01" {
		t.Errorf("expected tool_use_id toolu_01, got %q", last.Content[0].ToolUseID)
	}
}
