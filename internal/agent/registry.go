package agent

import (
	"log/slog"
	"sync"

	"github.com/daykeeper-io/daykeeper/pkg/protocol"
)

// Registry is the catalogue of agent definitions: which agents exist and
// what they may do. It is populated at startup and read-mostly afterwards;
// an explicit instance is passed to the dispatcher rather than shared as
// global state so tests can construct their own.
type Registry struct {
	mu     sync.RWMutex
	agents map[string]protocol.AgentDefinition
	logger *slog.Logger
}

// NewRegistry creates an empty agent registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		agents: make(map[string]protocol.AgentDefinition),
		logger: logger,
	}
}

// NewDefaultRegistry creates a registry pre-populated with the built-in
// agents.
func NewDefaultRegistry(logger *slog.Logger) *Registry {
	r := NewRegistry(logger)
	for _, def := range Builtins() {
		// Built-ins registering into an empty registry cannot conflict.
		_ = r.Register(def)
	}
	return r
}

// Register inserts or overwrites a definition. Overwriting an existing
// built-in entry with another built-in definition fails with ConflictError;
// custom (non-built-in) definitions may shadow nothing but themselves.
func (r *Registry) Register(def protocol.AgentDefinition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.agents[def.Name]; ok && existing.BuiltIn && def.BuiltIn {
		return &ConflictError{Name: def.Name}
	}
	r.agents[def.Name] = def
	r.logger.Info("agent registered", "agent", def.Name, "mode", def.Mode)
	r.warnPermissionMismatch(def)
	return nil
}

// warnPermissionMismatch flags definitions whose grant map contradicts the
// coarse permissions object. The grant map alone decides tool access; the
// mismatch is surfaced so misconfigured custom agents are visible at
// startup.
func (r *Registry) warnPermissionMismatch(def protocol.AgentDefinition) {
	if def.Permissions.WebFetch == protocol.PermissionDeny &&
		(def.ToolGranted("web_fetch") || def.ToolGranted("web_search")) {
		r.logger.Warn("agent grants web tools but permissions deny web fetch", "agent", def.Name)
	}
	if def.Permissions.Edit == protocol.PermissionDeny {
		for _, mutating := range []string{"create_task", "complete_task", "delete_task", "create_event", "delete_event"} {
			if def.ToolGranted(mutating) {
				r.logger.Warn("agent grants mutating tools but permissions deny edits",
					"agent", def.Name, "tool", mutating)
				break
			}
		}
	}
}

// GetAgent returns a definition by exact name.
func (r *Registry) GetAgent(name string) (protocol.AgentDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.agents[name]
	return def, ok
}

// AllAgents returns a defensive copy of the whole catalogue.
func (r *Registry) AllAgents() map[string]protocol.AgentDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]protocol.AgentDefinition, len(r.agents))
	for name, def := range r.agents {
		out[name] = def
	}
	return out
}

// AgentsByMode returns every definition with the given mode.
func (r *Registry) AgentsByMode(mode protocol.AgentMode) []protocol.AgentDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []protocol.AgentDefinition
	for _, def := range r.agents {
		if def.Mode == mode {
			out = append(out, def)
		}
	}
	return out
}

// IsValidAgent reports whether an agent with the given name exists.
func (r *Registry) IsValidAgent(name string) bool {
	_, ok := r.GetAgent(name)
	return ok
}

// CanUseAsSubagent reports whether the agent exists and is a delegation
// target.
func (r *Registry) CanUseAsSubagent(name string) bool {
	def, ok := r.GetAgent(name)
	return ok && def.Mode == protocol.ModeSubagent
}

// CanUseAsPrimary reports whether the agent exists and may host a user
// conversation.
func (r *Registry) CanUseAsPrimary(name string) bool {
	def, ok := r.GetAgent(name)
	return ok && def.Mode == protocol.ModePrimary
}

// AgentTools returns the agent's grant map, or an empty map if the agent is
// unknown. Never returns nil and never fails.
func (r *Registry) AgentTools(name string) map[string]bool {
	def, ok := r.GetAgent(name)
	if !ok {
		return map[string]bool{}
	}
	return def.CloneTools()
}

// HasToolPermission reports whether the named agent explicitly grants the
// named tool.
func (r *Registry) HasToolPermission(name, toolName string) bool {
	return r.AgentTools(name)[toolName]
}
