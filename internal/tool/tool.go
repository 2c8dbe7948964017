package tool

import "context"

// Tool is the interface every agent tool must implement.
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]any // JSON Schema
	Execute(ctx context.Context, params map[string]any) (string, error)
}

// PrimaryOnly marks tools that may only be granted to primary-mode agents.
// The permission filter strips them from every subagent's tool set before
// it consults the grant map, so a misconfigured grant can never re-enable
// them. The delegation tool implements this to block recursive delegation.
type PrimaryOnly interface {
	PrimaryOnly() bool
}

// IsPrimaryOnly reports whether t is restricted to primary-mode agents.
func IsPrimaryOnly(t Tool) bool {
	p, ok := t.(PrimaryOnly)
	return ok && p.PrimaryOnly()
}
