package tool

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/daykeeper-io/daykeeper/internal/logbuf"
)

// CurrentTimeTool reports the current time in the user's timezone.
// Agents are told to call it instead of guessing dates.
type CurrentTimeTool struct {
	Now      time.Time
	Location *time.Location
}

func (t *CurrentTimeTool) Name() string        { return "current_time" }
func (t *CurrentTimeTool) Description() string { return "Get the current date and time in the user's timezone" }
func (t *CurrentTimeTool) Parameters() map[string]any {
	return map[string]any{"type": "object", "properties": map[string]any{}}
}

func (t *CurrentTimeTool) Execute(_ context.Context, _ map[string]any) (string, error) {
	loc := t.Location
	if loc == nil {
		loc = time.UTC
	}
	now := t.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.In(loc)
	return fmt.Sprintf("%s (%s)", now.Format("Monday, January 2, 2006 at 15:04"), loc.String()), nil
}

// StatusTool reports recent assistant activity from the log ring buffer.
type StatusTool struct {
	Buf       *logbuf.Buffer
	StartedAt time.Time
	Version   string
}

func (t *StatusTool) Name() string        { return "assistant_status" }
func (t *StatusTool) Description() string { return "Report assistant uptime and recent activity" }
func (t *StatusTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"errors_only": map[string]any{"type": "boolean", "description": "Only show warnings and errors"},
		},
	}
}

func (t *StatusTool) Execute(_ context.Context, params map[string]any) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Version: %s\n", t.Version)
	fmt.Fprintf(&b, "Uptime: %s\n", time.Since(t.StartedAt).Round(time.Second))

	if t.Buf == nil {
		return b.String(), nil
	}

	minLevel := logbuf.LevelInfo
	if getBool(params, "errors_only") {
		minLevel = logbuf.LevelWarn
	}
	entries := t.Buf.Query(time.Time{}, minLevel, 20)
	if len(entries) == 0 {
		b.WriteString("No recent activity.\n")
		return b.String(), nil
	}

	b.WriteString("\nRecent activity:\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "%s [%s] %s\n", e.Time.Format("15:04:05"), e.Level, e.Message)
	}
	return b.String(), nil
}
