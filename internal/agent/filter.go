package agent

import (
	"github.com/daykeeper-io/daykeeper/internal/tool"
	"github.com/daykeeper-io/daykeeper/pkg/protocol"
)

// FilterTools reduces the full tool set to exactly what one agent
// invocation may see.
//
// The recursion guard runs before the grant map is consulted: a tool that
// declares itself primary-only, or that carries the reserved delegation
// name, is stripped from every non-primary agent even when the agent's
// grant map says true. A misconfigured definition can therefore never
// re-enable delegation from inside a delegation.
//
// Everything else is default-deny: a tool is included only when the grant
// map holds an explicit true. An empty result is legal; an agent with no
// tools can still produce free text.
func FilterTools(def protocol.AgentDefinition, full *tool.Registry) *tool.Registry {
	reduced := tool.NewRegistry()
	for _, name := range full.List() {
		t, ok := full.Get(name)
		if !ok {
			continue
		}
		if def.Mode != protocol.ModePrimary {
			if tool.IsPrimaryOnly(t) {
				continue
			}
			// Name-based backstop for descriptors that predate the flag.
			if name == DelegationToolName {
				continue
			}
		}
		if def.ToolGranted(name) {
			reduced.Register(t)
		}
	}
	return reduced
}
