package config

import (
	"fmt"

	"github.com/daykeeper-io/daykeeper/internal/tool"
)

// Credentials resolves per-user service tokens from the static Users block.
// It satisfies the tool layer's credential store interface. A token the
// user never configured wraps tool.ErrNotConfigured so the tool builder
// can skip that integration instead of failing the request.
type Credentials struct {
	users map[string]UserConfig
}

// NewCredentials indexes the configured users for lookup.
func NewCredentials(users []UserConfig) *Credentials {
	m := make(map[string]UserConfig, len(users))
	for _, u := range users {
		m[u.ID] = u
	}
	return &Credentials{users: m}
}

func (c *Credentials) TodoistToken(userID string) (string, error) {
	u, ok := c.users[userID]
	if !ok || u.TodoistToken == "" {
		return "", fmt.Errorf("credentials: no todoist token for user %q: %w", userID, tool.ErrNotConfigured)
	}
	return u.TodoistToken, nil
}

func (c *Credentials) CalendarToken(userID string) (string, error) {
	u, ok := c.users[userID]
	if !ok || u.CalendarToken == "" {
		return "", fmt.Errorf("credentials: no calendar token for user %q: %w", userID, tool.ErrNotConfigured)
	}
	return u.CalendarToken, nil
}
