package agent

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/daykeeper-io/daykeeper/internal/tool"
	"github.com/daykeeper-io/daykeeper/pkg/protocol"
)

// TaskTool is the delegation tool handed to primary agents. It wraps the
// dispatcher and carries the request context the delegation runs under.
// It declares itself primary-only so the filter strips it from subagents.
type TaskTool struct {
	Dispatcher *Dispatcher
	Context    tool.RequestContext
}

func (t *TaskTool) Name() string      { return DelegationToolName }
func (t *TaskTool) PrimaryOnly() bool { return true }

func (t *TaskTool) Description() string {
	names := t.subagentNames()
	return fmt.Sprintf(
		"Delegate a task to a specialized subagent and receive its report. Available subagents: %s",
		strings.Join(names, ", "),
	)
}

func (t *TaskTool) Parameters() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"subagent_type", "prompt"},
		"properties": map[string]any{
			"subagent_type": map[string]any{
				"type":        "string",
				"enum":        t.subagentNames(),
				"description": "Which subagent to run",
			},
			"prompt": map[string]any{
				"type":        "string",
				"description": "Complete, self-contained instructions for the subagent",
			},
			"description": map[string]any{
				"type":        "string",
				"description": "Short label for this task (3-5 words)",
			},
		},
	}
}

func (t *TaskTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	subagentType, _ := params["subagent_type"].(string)
	prompt, _ := params["prompt"].(string)
	description, _ := params["description"].(string)

	if subagentType == "" || prompt == "" {
		return "", fmt.Errorf("task: subagent_type and prompt are required")
	}

	result, err := t.Dispatcher.Delegate(ctx, protocol.DelegationRequest{
		SubagentType: subagentType,
		Prompt:       prompt,
		Description:  description,
	}, t.Context)
	if err != nil {
		return "", fmt.Errorf("task: %w", err)
	}
	return result.Output, nil
}

func (t *TaskTool) subagentNames() []string {
	defs := t.Dispatcher.Registry().AgentsByMode(protocol.ModeSubagent)
	names := make([]string, 0, len(defs))
	for _, def := range defs {
		names = append(names, def.Name)
	}
	sort.Strings(names)
	return names
}
