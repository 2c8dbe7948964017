package agent

import "github.com/daykeeper-io/daykeeper/pkg/protocol"

// DelegationToolName is the reserved name of the delegation tool. The
// permission filter strips it from every subagent regardless of grants.
const DelegationToolName = "task"

// Builtins returns the shipped agent definitions. A function rather than a
// package variable so each registry gets its own copies of the grant maps.
func Builtins() []protocol.AgentDefinition {
	return []protocol.AgentDefinition{
		{
			Name:        "orchestrator",
			Mode:        protocol.ModePrimary,
			BuiltIn:     true,
			Description: "Primary assistant that answers directly or delegates to specialized subagents.",
			Permissions: protocol.Permissions{
				Edit:     protocol.PermissionAllow,
				WebFetch: protocol.PermissionAsk,
			},
			Tools: map[string]bool{
				DelegationToolName:  true,
				"create_task":       true,
				"get_tasks":         true,
				"complete_task":     true,
				"delete_task":       true,
				"get_events":        true,
				"create_event":      true,
				"delete_event":      true,
				"read_scratchpad":   true,
				"write_scratchpad":  true,
				"list_scratchpad":   true,
				"current_time":      true,
				"assistant_status":  true,
				"schedule_reminder": true,
			},
			Temperature:     0.7,
			SystemPromptRef: "prompts/orchestrator",
		},
		{
			Name:        "planning",
			Mode:        protocol.ModeSubagent,
			BuiltIn:     true,
			Description: "Breaks goals into scheduled steps across the user's tasks and calendar.",
			Permissions: protocol.Permissions{
				Edit:     protocol.PermissionDeny,
				WebFetch: protocol.PermissionDeny,
			},
			Tools: map[string]bool{
				"get_tasks":        true,
				"get_events":       true,
				"current_time":     true,
				"read_scratchpad":  true,
				"write_scratchpad": true,
				"list_scratchpad":  true,
			},
			Temperature:     0.4,
			SystemPromptRef: "prompts/planning",
		},
		{
			Name:        "execution",
			Mode:        protocol.ModeSubagent,
			BuiltIn:     true,
			Description: "Applies task and calendar changes the user has asked for.",
			Permissions: protocol.Permissions{
				Edit:     protocol.PermissionAllow,
				WebFetch: protocol.PermissionDeny,
			},
			Tools: map[string]bool{
				"create_task":      true,
				"get_tasks":        true,
				"complete_task":    true,
				"delete_task":      true,
				"get_events":       true,
				"create_event":     true,
				"delete_event":     true,
				"current_time":     true,
				DelegationToolName: false, // explicit deny, and the filter guards regardless
			},
			Temperature:     0.2,
			SystemPromptRef: "prompts/execution",
		},
		{
			Name:        "information",
			Mode:        protocol.ModeSubagent,
			BuiltIn:     true,
			Description: "Answers questions about the user's current tasks, events, and assistant state.",
			Permissions: protocol.Permissions{
				Edit:     protocol.PermissionDeny,
				WebFetch: protocol.PermissionDeny,
			},
			Tools: map[string]bool{
				"get_tasks":        true,
				"get_events":       true,
				"current_time":     true,
				"read_scratchpad":  true,
				"list_scratchpad":  true,
				"assistant_status": true,
			},
			Temperature:     0.3,
			SystemPromptRef: "prompts/information",
		},
		{
			Name:        "research",
			Mode:        protocol.ModeSubagent,
			BuiltIn:     true,
			Description: "Looks things up on the web and summarizes findings.",
			Permissions: protocol.Permissions{
				Edit:     protocol.PermissionDeny,
				WebFetch: protocol.PermissionAllow,
			},
			Tools: map[string]bool{
				"web_search":       true,
				"web_fetch":        true,
				"read_scratchpad":  true,
				"write_scratchpad": true,
				"current_time":     true,
			},
			Temperature:     0.6,
			SystemPromptRef: "prompts/research",
		},
		{
			Name:        "code_analysis",
			Mode:        protocol.ModeSubagent,
			BuiltIn:     true,
			Description: "Reasons about code snippets the user pastes into the conversation.",
			Permissions: protocol.Permissions{
				Edit:     protocol.PermissionDeny,
				WebFetch: protocol.PermissionDeny,
			},
			// No tools: this agent only produces free text.
			Tools:           map[string]bool{},
			Temperature:     0.2,
			SystemPromptRef: "prompts/code_analysis",
		},
	}
}
