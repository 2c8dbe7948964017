package protocol

// AgentMode distinguishes agents users converse with from delegation targets.
type AgentMode string

const (
	// ModePrimary agents are entry points a user conversation attaches to.
	// Only primary agents may delegate.
	ModePrimary AgentMode = "primary"
	// ModeSubagent agents are reachable only via delegation and never
	// delegate further.
	ModeSubagent AgentMode = "subagent"
)

// PermissionLevel is the coarse policy verdict for a capability class.
type PermissionLevel string

const (
	PermissionAllow PermissionLevel = "allow"
	PermissionDeny  PermissionLevel = "deny"
	PermissionAsk   PermissionLevel = "ask"
)

// Permissions is coarse policy metadata carried alongside the per-tool grant
// map. It is not consulted when filtering tools; enforcement points outside
// the tool call (connectors, audit) read it.
type Permissions struct {
	Edit     PermissionLevel            `json:"edit,omitempty"`
	WebFetch PermissionLevel            `json:"webfetch,omitempty"`
	Bash     map[string]PermissionLevel `json:"bash,omitempty"`
}

// AgentDefinition is the static configuration of one agent: its mode, the
// tools it may call, and how its prompt and sampling are set up. Immutable
// once registered.
type AgentDefinition struct {
	Name            string          `json:"name"`
	Mode            AgentMode       `json:"mode"`
	BuiltIn         bool            `json:"built_in,omitempty"`
	Permissions     Permissions     `json:"permissions,omitempty"`
	Tools           map[string]bool `json:"tools,omitempty"`
	Temperature     float64         `json:"temperature,omitempty"` // 0 = provider default
	Options         map[string]any  `json:"options,omitempty"`
	Description     string          `json:"description,omitempty"`
	SystemPromptRef string          `json:"system_prompt_ref,omitempty"`
}

// ToolGranted reports whether the named tool is explicitly allowed.
// Absent entries and false entries both mean denied.
func (d AgentDefinition) ToolGranted(name string) bool {
	return d.Tools[name]
}

// CloneTools returns a copy of the grant map, never nil.
func (d AgentDefinition) CloneTools() map[string]bool {
	out := make(map[string]bool, len(d.Tools))
	for k, v := range d.Tools {
		out[k] = v
	}
	return out
}
