package agent

import (
	"fmt"

	"github.com/daykeeper-io/daykeeper/pkg/protocol"
)

// PromptResolver resolves a systemPromptRef to prompt text. A false second
// return means the reference is unknown; the dispatcher then falls back to
// a synthesized prompt, so resolution failures are never fatal.
type PromptResolver interface {
	Resolve(ref string) (string, bool)
}

// PromptTable is a static map from prompt ref to prompt text, resolved at
// startup. It replaces any dynamic loading: what ships is what exists.
type PromptTable map[string]string

func (t PromptTable) Resolve(ref string) (string, bool) {
	text, ok := t[ref]
	return text, ok
}

// DefaultPrompts returns the shipped prompt table, keyed by the refs used
// in the built-in agent definitions.
func DefaultPrompts() PromptTable {
	return PromptTable{
		"prompts/orchestrator": "You are Daykeeper, a personal task and calendar assistant. " +
			"Answer simple requests directly with your tools. For multi-step work, delegate " +
			"to a specialized subagent with the task tool and relay its report. " +
			"Always check current_time before interpreting relative dates.",
		"prompts/planning": "You are the planning agent. Given a goal, inspect the user's open " +
			"tasks and calendar, then produce a concrete step-by-step plan with suggested time " +
			"slots. You cannot modify anything; record working notes in the scratchpad.",
		"prompts/execution": "You are the execution agent. Apply exactly the task and calendar " +
			"changes described in your instructions, then report what you changed, including IDs. " +
			"Do not invent changes that were not requested.",
		"prompts/information": "You are the information agent. Answer questions about the user's " +
			"tasks, events, notes, and assistant status using your read-only tools. Be precise " +
			"and cite task or event IDs where useful.",
		"prompts/research": "You are the research agent. Search the web, fetch and read the most " +
			"relevant pages, and return a concise summary with source URLs.",
		"prompts/code_analysis": "You are the code analysis agent. Explain, review, or debug the " +
			"code included in your instructions. You have no tools; work only from the provided text.",
	}
}

// SystemPrompt resolves an agent's system prompt, falling back to the
// synthesized prompt when the ref is unknown.
func SystemPrompt(resolver PromptResolver, def protocol.AgentDefinition) string {
	return systemPromptFor(resolver, def.Name, def.Description, def.SystemPromptRef)
}

// systemPromptFor resolves a prompt ref through the resolver, falling back
// to a prompt synthesized from the agent's name and description. The
// fallback is a pure template and always succeeds.
func systemPromptFor(resolver PromptResolver, name, description, ref string) string {
	if resolver != nil && ref != "" {
		if text, ok := resolver.Resolve(ref); ok && text != "" {
			return text
		}
	}
	if description == "" {
		description = "a specialized assistant"
	}
	return fmt.Sprintf("You are the %s agent: %s Work strictly within this specialty and "+
		"return a clear, complete answer to the request you were given.", name, description)
}
