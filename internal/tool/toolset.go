package tool

import (
	"errors"
	"fmt"
	"time"

	"github.com/daykeeper-io/daykeeper/internal/logbuf"
	"github.com/daykeeper-io/daykeeper/internal/scratchpad"
)

// ErrNotConfigured reports that a user simply does not have an integration
// set up. Credential stores wrap it so the builder can leave that
// provider's tools out of the superset instead of failing the request.
var ErrNotConfigured = errors.New("integration not configured")

// CredentialStore resolves per-user provider credentials. OAuth refresh is
// the store's concern; tools only see a usable token. A missing
// integration is reported by wrapping ErrNotConfigured; any other error is
// an infrastructure failure.
type CredentialStore interface {
	TodoistToken(userID string) (string, error)
	CalendarToken(userID string) (string, error)
}

// SetBuilder assembles the full tool set for a request context: every
// capability any agent could be granted. The permission filter reduces it
// per agent; this builder never does policy.
type SetBuilder struct {
	Creds       CredentialStore
	Scratchpad  *scratchpad.Store
	Reminders   ReminderScheduler
	LogBuf      *logbuf.Buffer
	BraveAPIKey string
	Version     string
	StartedAt   time.Time

	// Endpoint overrides for tests.
	TodoistBaseURL  string
	CalendarBaseURL string
}

// Build constructs a fresh registry for the given context. An integration
// the user never set up is left out of the superset; grant maps referring
// to its tools resolve to nothing, which the filter treats as denied. A
// credential lookup that fails for any other reason is an infrastructure
// error and must surface so callers can tell a broken registry from a
// zero-tool agent.
func (b *SetBuilder) Build(rc RequestContext) (*Registry, error) {
	reg := NewRegistry()

	todoistToken, err := b.Creds.TodoistToken(rc.UserID)
	switch {
	case err == nil:
		todoist := &TodoistClient{Token: todoistToken, BaseURL: b.TodoistBaseURL}
		reg.Register(&CreateTaskTool{Client: todoist})
		reg.Register(&GetTasksTool{Client: todoist})
		reg.Register(&CompleteTaskTool{Client: todoist})
		reg.Register(&DeleteTaskTool{Client: todoist})
	case errors.Is(err, ErrNotConfigured):
		// No task tools for this user.
	default:
		return nil, fmt.Errorf("toolset: todoist credentials for %s: %w", rc.UserID, err)
	}

	calendarToken, err := b.Creds.CalendarToken(rc.UserID)
	switch {
	case err == nil:
		calendar := &CalendarClient{
			AccessToken: calendarToken,
			BaseURL:     b.CalendarBaseURL,
			Location:    rc.Location,
		}
		reg.Register(&GetEventsTool{Client: calendar})
		reg.Register(&CreateEventTool{Client: calendar})
		reg.Register(&DeleteEventTool{Client: calendar})
	case errors.Is(err, ErrNotConfigured):
		// No calendar tools for this user.
	default:
		return nil, fmt.Errorf("toolset: calendar credentials for %s: %w", rc.UserID, err)
	}

	reg.Register(&ReadScratchpadTool{Store: b.Scratchpad, UserID: rc.UserID})
	reg.Register(&WriteScratchpadTool{Store: b.Scratchpad, UserID: rc.UserID})
	reg.Register(&ListScratchpadTool{Store: b.Scratchpad, UserID: rc.UserID})
	reg.Register(&CurrentTimeTool{Now: rc.Now, Location: rc.Location})
	reg.Register(&StatusTool{Buf: b.LogBuf, StartedAt: b.StartedAt, Version: b.Version})
	reg.Register(&WebSearchTool{APIKey: b.BraveAPIKey})
	reg.Register(&WebFetchTool{})
	if b.Reminders != nil {
		reg.Register(&ScheduleReminderTool{Scheduler: b.Reminders, UserID: rc.UserID})
	}
	return reg, nil
}
