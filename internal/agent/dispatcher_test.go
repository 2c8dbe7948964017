package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/daykeeper-io/daykeeper/internal/tool"
	"github.com/daykeeper-io/daykeeper/pkg/protocol"
)

// fakeProvider returns scripted responses (or errors) in order and records
// every request it receives.
type fakeProvider struct {
	mu        sync.Mutex
	responses []*protocol.ChatResponse
	errs      []error
	requests  []protocol.ChatRequest
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Chat(_ context.Context, req protocol.ChatRequest) (*protocol.ChatResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := len(f.requests)
	f.requests = append(f.requests, req)

	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return &protocol.ChatResponse{Content: "done"}, nil
}

func (f *fakeProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func builderOf(reg *tool.Registry) tool.Builder {
	return tool.BuilderFunc(func(tool.RequestContext) (*tool.Registry, error) {
		return reg, nil
	})
}

func failingBuilder(err error) tool.Builder {
	return tool.BuilderFunc(func(tool.RequestContext) (*tool.Registry, error) {
		return nil, err
	})
}

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	return NewDefaultRegistry(nil)
}

func testContext() tool.RequestContext {
	return tool.RequestContext{UserID: "u1", SessionID: "s1"}
}

func TestDelegateUnknownAgent(t *testing.T) {
	prov := &fakeProvider{}
	d := NewDispatcher(testRegistry(t), builderOf(tool.NewRegistry()), prov, nil, nil)

	_, err := d.Delegate(context.Background(), protocol.DelegationRequest{
		SubagentType: "nonexistent",
		Prompt:       "x",
	}, testContext())

	var invalid *InvalidAgentError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidAgentError, got %v", err)
	}
	if !strings.Contains(err.Error(), "nonexistent") {
		t.Errorf("error should name the requested type: %v", err)
	}
	// Validation must precede all work: no model call, ever.
	if prov.callCount() != 0 {
		t.Errorf("completion service was called %d times before validation failure", prov.callCount())
	}
}

func TestDelegatePrimaryAgentRejected(t *testing.T) {
	prov := &fakeProvider{}
	d := NewDispatcher(testRegistry(t), builderOf(tool.NewRegistry()), prov, nil, nil)

	_, err := d.Delegate(context.Background(), protocol.DelegationRequest{
		SubagentType: "orchestrator",
		Prompt:       "x",
	}, testContext())

	var invalid *InvalidAgentError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidAgentError for primary-mode target, got %v", err)
	}
	if prov.callCount() != 0 {
		t.Error("completion service must not be called for a primary-mode target")
	}
}

func TestDelegateToolRegistryFailure(t *testing.T) {
	prov := &fakeProvider{}
	boom := fmt.Errorf("credential backend down")
	d := NewDispatcher(testRegistry(t), failingBuilder(boom), prov, nil, nil)

	_, err := d.Delegate(context.Background(), protocol.DelegationRequest{
		SubagentType: "planning",
		Prompt:       "organize my week",
	}, testContext())

	var tre *ToolRegistryError
	if !errors.As(err, &tre) {
		t.Fatalf("expected ToolRegistryError, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Error("underlying cause should be wrapped")
	}
	if prov.callCount() != 0 {
		t.Error("a broken tool registry must not reach the completion service")
	}
}

func TestDelegateTextOnlyResult(t *testing.T) {
	prov := &fakeProvider{
		responses: []*protocol.ChatResponse{{Content: "Here is a plan"}},
	}
	d := NewDispatcher(testRegistry(t), builderOf(tool.NewRegistry()), prov, DefaultPrompts(), nil)

	result, err := d.Delegate(context.Background(), protocol.DelegationRequest{
		SubagentType: "planning",
		Prompt:       "organize my week",
	}, testContext())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(result.Output, "PLANNING AGENT RESULTS") {
		t.Errorf("output missing header: %q", result.Output)
	}
	if !strings.Contains(result.Output, "Here is a plan") {
		t.Errorf("output missing answer: %q", result.Output)
	}
	if strings.Contains(result.Output, "Tool execution results") {
		t.Errorf("no tools ran, output must not have a tool section: %q", result.Output)
	}
	if result.Metadata.SubagentType != "planning" {
		t.Errorf("unexpected metadata: %+v", result.Metadata)
	}
	if result.Metadata.TaskDescription != "planning task" {
		t.Errorf("expected default task description, got %q", result.Metadata.TaskDescription)
	}
}

func TestDelegateWithToolCalls(t *testing.T) {
	prov := &fakeProvider{
		responses: []*protocol.ChatResponse{
			{ToolCalls: []protocol.ToolCall{{ID: "c1", Name: "get_tasks", Arguments: map[string]any{}}}},
			{Content: "You have two tasks."},
		},
	}
	tools := registryOf(&stubTool{name: "get_tasks", result: `["task A", "task B"]`})
	d := NewDispatcher(testRegistry(t), builderOf(tools), prov, DefaultPrompts(), nil)

	result, err := d.Delegate(context.Background(), protocol.DelegationRequest{
		SubagentType: "information",
		Prompt:       "what's on my plate?",
		Description:  "task inventory",
	}, testContext())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(result.Output, "INFORMATION AGENT RESULTS") {
		t.Errorf("output missing header: %q", result.Output)
	}
	if !strings.Contains(result.Output, "Tool execution results") {
		t.Errorf("output missing tool section: %q", result.Output)
	}
	if !strings.Contains(result.Output, "get_tasks") {
		t.Errorf("output missing tool name: %q", result.Output)
	}
	if !strings.Contains(result.Output, `["task A", "task B"]`) {
		t.Errorf("output missing tool result: %q", result.Output)
	}
	if result.Metadata.TaskDescription != "task inventory" {
		t.Errorf("expected explicit description, got %q", result.Metadata.TaskDescription)
	}
}

func TestDelegateToolFailureIsolation(t *testing.T) {
	// One failing tool among several must not abort the delegation; it
	// shows up as a failed entry in the report instead.
	prov := &fakeProvider{
		responses: []*protocol.ChatResponse{
			{ToolCalls: []protocol.ToolCall{
				{ID: "c1", Name: "get_tasks", Arguments: map[string]any{}},
				{ID: "c2", Name: "get_events", Arguments: map[string]any{}},
			}},
			{Content: "Partial picture assembled."},
		},
	}
	tools := registryOf(
		&stubTool{name: "get_tasks", result: "- [1] buy milk"},
		&stubTool{name: "get_events", err: fmt.Errorf("calendar API returned 503")},
	)
	d := NewDispatcher(testRegistry(t), builderOf(tools), prov, DefaultPrompts(), nil)

	result, err := d.Delegate(context.Background(), protocol.DelegationRequest{
		SubagentType: "information",
		Prompt:       "summarize my day",
	}, testContext())
	if err != nil {
		t.Fatalf("tool failure must not fail the delegation: %v", err)
	}

	if !strings.Contains(result.Output, "get_events (failed)") {
		t.Errorf("output should mark the failed tool: %q", result.Output)
	}
	if !strings.Contains(result.Output, "get_tasks") || !strings.Contains(result.Output, "buy milk") {
		t.Errorf("output should include the successful tool: %q", result.Output)
	}
}

func TestDelegateFallbackPrompt(t *testing.T) {
	// With no resolver at all, the synthesized prompt must still reach the
	// completion service, non-empty and naming the agent.
	prov := &fakeProvider{
		responses: []*protocol.ChatResponse{{Content: "ok"}},
	}
	d := NewDispatcher(testRegistry(t), builderOf(tool.NewRegistry()), prov, nil, nil)

	_, err := d.Delegate(context.Background(), protocol.DelegationRequest{
		SubagentType: "research",
		Prompt:       "look this up",
	}, testContext())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if prov.callCount() != 1 {
		t.Fatalf("expected 1 completion call, got %d", prov.callCount())
	}
	msgs := prov.requests[0].Messages
	if len(msgs) < 2 || msgs[0].Role != "system" {
		t.Fatalf("expected leading system message, got %+v", msgs)
	}
	if msgs[0].Content == "" {
		t.Fatal("fallback system prompt must be non-empty")
	}
	if !strings.Contains(msgs[0].Content, "research") {
		t.Errorf("fallback prompt should name the agent: %q", msgs[0].Content)
	}
}

func TestDelegateConfiguredPromptReachesProvider(t *testing.T) {
	// A registered agent whose ref resolves in the prompt table gets that
	// exact text as its system message, not the synthesized fallback.
	const travelPrompt = "You are the travel agent. Prefer trains over flights under 600km."

	reg := testRegistry(t)
	if err := reg.Register(protocol.AgentDefinition{
		Name:            "travel",
		Mode:            protocol.ModeSubagent,
		Description:     "Plans trips.",
		Tools:           map[string]bool{},
		SystemPromptRef: "prompts/travel",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	prompts := DefaultPrompts()
	prompts["prompts/travel"] = travelPrompt

	prov := &fakeProvider{
		responses: []*protocol.ChatResponse{{Content: "ok"}},
	}
	d := NewDispatcher(reg, builderOf(tool.NewRegistry()), prov, prompts, nil)

	_, err := d.Delegate(context.Background(), protocol.DelegationRequest{
		SubagentType: "travel",
		Prompt:       "plan a weekend in Lyon",
	}, testContext())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msgs := prov.requests[0].Messages
	if len(msgs) < 2 || msgs[0].Role != "system" {
		t.Fatalf("expected leading system message, got %+v", msgs)
	}
	if msgs[0].Content != travelPrompt {
		t.Errorf("system prompt = %q, want the configured text", msgs[0].Content)
	}
}

func TestDelegateEmptyAnswerPlaceholder(t *testing.T) {
	prov := &fakeProvider{
		responses: []*protocol.ChatResponse{
			{ToolCalls: []protocol.ToolCall{{ID: "c1", Name: "get_tasks", Arguments: map[string]any{}}}},
			{Content: ""},
		},
	}
	tools := registryOf(&stubTool{name: "get_tasks", result: "nothing due"})
	d := NewDispatcher(testRegistry(t), builderOf(tools), prov, nil, nil)

	result, err := d.Delegate(context.Background(), protocol.DelegationRequest{
		SubagentType: "information",
		Prompt:       "check tasks",
	}, testContext())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result.Output, "Analysis completed successfully.") {
		t.Errorf("expected placeholder for empty answer: %q", result.Output)
	}
}

func TestDelegateCompletionServiceExhaustion(t *testing.T) {
	boom := fmt.Errorf("connection reset")
	prov := &fakeProvider{errs: []error{boom, boom, boom}}
	d := NewDispatcher(testRegistry(t), builderOf(tool.NewRegistry()), prov, nil, nil)

	_, err := d.Delegate(context.Background(), protocol.DelegationRequest{
		SubagentType: "planning",
		Prompt:       "plan",
	}, testContext())

	var cse *CompletionServiceError
	if !errors.As(err, &cse) {
		t.Fatalf("expected CompletionServiceError, got %v", err)
	}
	if cse.Attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", cse.Attempts)
	}
	if prov.callCount() != 3 {
		t.Errorf("expected 3 provider calls, got %d", prov.callCount())
	}
}

func TestDelegateTemperaturePassthrough(t *testing.T) {
	prov := &fakeProvider{
		responses: []*protocol.ChatResponse{{Content: "ok"}},
	}
	d := NewDispatcher(testRegistry(t), builderOf(tool.NewRegistry()), prov, nil, nil)

	_, err := d.Delegate(context.Background(), protocol.DelegationRequest{
		SubagentType: "execution",
		Prompt:       "complete task 7",
	}, testContext())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := prov.requests[0].Temperature; got != 0.2 {
		t.Errorf("expected execution agent temperature 0.2, got %v", got)
	}
}
