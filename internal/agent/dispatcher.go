package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/daykeeper-io/daykeeper/internal/provider"
	"github.com/daykeeper-io/daykeeper/internal/tool"
	"github.com/daykeeper-io/daykeeper/pkg/protocol"
)

// maxToolResultRender bounds the rendered size of one tool result inside a
// delegation report. The full result was already fed to the model; the
// report only needs enough for the orchestrator to relay.
const maxToolResultRender = 2000

// Dispatcher executes exactly one subagent invocation end-to-end and
// returns a packaged DelegationResult. It is stateless: nothing about a
// delegation is persisted here, and concurrent Delegate calls share nothing
// but the read-only registry.
type Dispatcher struct {
	registry *Registry
	tools    tool.Builder
	provider provider.Provider
	prompts  PromptResolver
	logger   *slog.Logger
}

// NewDispatcher creates a Dispatcher. prompts may be nil, in which case
// every agent gets the synthesized fallback prompt.
func NewDispatcher(reg *Registry, tools tool.Builder, prov provider.Provider, prompts PromptResolver, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		registry: reg,
		tools:    tools,
		provider: prov,
		prompts:  prompts,
		logger:   logger,
	}
}

// Registry exposes the agent catalogue backing this dispatcher.
func (d *Dispatcher) Registry() *Registry { return d.registry }

// Delegate runs one subagent to completion: validate the target, build and
// filter its tool set, resolve its prompt, run the completion loop, and
// package the report. Fatal errors (InvalidAgentError, ToolRegistryError,
// CompletionServiceError) propagate unchanged; they are never downgraded
// into an apologetic "successful" result.
func (d *Dispatcher) Delegate(ctx context.Context, req protocol.DelegationRequest, rc tool.RequestContext) (*protocol.DelegationResult, error) {
	// Validation happens before any tool construction or model call.
	def, ok := d.registry.GetAgent(req.SubagentType)
	if !ok || def.Mode != protocol.ModeSubagent {
		return nil, &InvalidAgentError{Name: req.SubagentType}
	}

	full, err := d.tools.Build(rc)
	if err != nil {
		return nil, &ToolRegistryError{Err: err}
	}
	reduced := FilterTools(def, full)

	system := systemPromptFor(d.prompts, def.Name, def.Description, def.SystemPromptRef)

	d.logger.Info("delegation started",
		"subagent", def.Name,
		"tools", reduced.Len(),
		"session", rc.SessionID,
	)

	loop := &Loop{
		Provider:    d.provider,
		Tools:       reduced,
		Logger:      d.logger.With("subagent", def.Name),
		Temperature: def.Temperature,
	}
	text, invocations, err := loop.Run(ctx, []protocol.ChatMessage{
		{Role: "system", Content: system},
		{Role: "user", Content: req.Prompt},
	})
	if err != nil {
		var cse *CompletionServiceError
		if errors.As(err, &cse) {
			return nil, err
		}
		return nil, &CompletionServiceError{Attempts: 1, Err: err}
	}

	d.logger.Info("delegation completed",
		"subagent", def.Name,
		"tool_calls", len(invocations),
		"answer_len", len(text),
	)

	return packageResult(def, req, text, invocations), nil
}

// packageResult renders the report the orchestrator consumes: a header
// naming the agent, the agent's answer, and a tool-results section when any
// tools ran. Raw tool-call objects and message arrays never leave here.
func packageResult(def protocol.AgentDefinition, req protocol.DelegationRequest, text string, invocations []protocol.ToolInvocation) *protocol.DelegationResult {
	desc := req.Description
	if desc == "" {
		desc = req.SubagentType + " task"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s AGENT RESULTS\n\n", strings.ToUpper(def.Name))

	if text == "" {
		text = "Analysis completed successfully."
	}
	b.WriteString(text)

	if len(invocations) > 0 {
		b.WriteString("\n\nTool execution results:\n")
		for _, inv := range invocations {
			status := ""
			if inv.Failed {
				status = " (failed)"
			}
			fmt.Fprintf(&b, "- %s%s: %s\n", inv.Name, status, truncateResult(inv.Result))
		}
	}

	return &protocol.DelegationResult{
		Title: desc,
		Metadata: protocol.DelegationMetadata{
			SubagentType:    req.SubagentType,
			TaskDescription: desc,
		},
		Output: b.String(),
	}
}

func truncateResult(s string) string {
	if len(s) <= maxToolResultRender {
		return s
	}
	return s[:maxToolResultRender] + "... [truncated]"
}
