package tool

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/daykeeper-io/daykeeper/internal/scratchpad"
)

// ReadScratchpadTool reads a named scratch note for the current user.
type ReadScratchpadTool struct {
	Store  *scratchpad.Store
	UserID string
}

func (t *ReadScratchpadTool) Name() string        { return "read_scratchpad" }
func (t *ReadScratchpadTool) Description() string { return "Read a named scratch note." }
func (t *ReadScratchpadTool) Parameters() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"scope"},
		"properties": map[string]any{
			"scope": map[string]any{
				"type":        "string",
				"description": "Name of the note (e.g. weekly_plan, preferences).",
			},
		},
	}
}

func (t *ReadScratchpadTool) Execute(_ context.Context, params map[string]any) (string, error) {
	scope := getString(params, "scope")
	if scope == "" {
		return "", fmt.Errorf("read_scratchpad: scope is required")
	}
	content, err := t.Store.Get(t.UserID, scope)
	if err != nil {
		return "", fmt.Errorf("read_scratchpad: %w", err)
	}
	if content == "" {
		return fmt.Sprintf("Note %q is empty or does not exist.", scope), nil
	}
	return content, nil
}

// WriteScratchpadTool writes a named scratch note for the current user.
type WriteScratchpadTool struct {
	Store  *scratchpad.Store
	UserID string
}

func (t *WriteScratchpadTool) Name() string { return "write_scratchpad" }
func (t *WriteScratchpadTool) Description() string {
	return "Write a scratch note, replacing any existing content."
}
func (t *WriteScratchpadTool) Parameters() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"scope", "content"},
		"properties": map[string]any{
			"scope": map[string]any{
				"type":        "string",
				"description": "Name of the note.",
			},
			"content": map[string]any{
				"type":        "string",
				"description": "The content to store.",
			},
		},
	}
}

func (t *WriteScratchpadTool) Execute(_ context.Context, params map[string]any) (string, error) {
	scope := getString(params, "scope")
	content := getString(params, "content")
	if scope == "" {
		return "", fmt.Errorf("write_scratchpad: scope is required")
	}
	if content == "" {
		return "", fmt.Errorf("write_scratchpad: content is required")
	}
	if err := t.Store.Set(t.UserID, scope, content); err != nil {
		return "", fmt.Errorf("write_scratchpad: %w", err)
	}
	return fmt.Sprintf("Note %q updated (%d bytes).", scope, len(content)), nil
}

// ListScratchpadTool lists the current user's scratch notes.
type ListScratchpadTool struct {
	Store  *scratchpad.Store
	UserID string
}

func (t *ListScratchpadTool) Name() string        { return "list_scratchpad" }
func (t *ListScratchpadTool) Description() string { return "List scratch notes with their sizes." }
func (t *ListScratchpadTool) Parameters() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
}

func (t *ListScratchpadTool) Execute(_ context.Context, _ map[string]any) (string, error) {
	scopes, err := t.Store.List(t.UserID)
	if err != nil {
		return "", fmt.Errorf("list_scratchpad: %w", err)
	}
	if len(scopes) == 0 {
		return "No notes found.", nil
	}

	names := make([]string, 0, len(scopes))
	for name := range scopes {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "- %s (%d bytes)\n", name, scopes[name])
	}
	return b.String(), nil
}
