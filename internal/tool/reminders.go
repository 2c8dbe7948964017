package tool

import (
	"context"
	"fmt"
)

// ReminderScheduler registers cron-style reminders for a user.
// Implemented by the scheduler package.
type ReminderScheduler interface {
	Schedule(userID, spec, message string) error
}

// ScheduleReminderTool registers a recurring or one-off reminder that wakes
// the user's conversation with a message when it fires.
type ScheduleReminderTool struct {
	Scheduler ReminderScheduler
	UserID    string
}

func (t *ScheduleReminderTool) Name() string { return "schedule_reminder" }
func (t *ScheduleReminderTool) Description() string {
	return "Schedule a reminder using a cron expression (e.g. '0 9 * * 1' for Mondays at 9am) or '@every 2h'"
}
func (t *ScheduleReminderTool) Parameters() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"schedule", "message"},
		"properties": map[string]any{
			"schedule": map[string]any{"type": "string", "description": "Cron expression or @every duration"},
			"message":  map[string]any{"type": "string", "description": "Reminder text to deliver"},
		},
	}
}

func (t *ScheduleReminderTool) Execute(_ context.Context, params map[string]any) (string, error) {
	schedule := getString(params, "schedule")
	message := getString(params, "message")
	if schedule == "" || message == "" {
		return "", fmt.Errorf("schedule_reminder: schedule and message are required")
	}
	if err := t.Scheduler.Schedule(t.UserID, schedule, message); err != nil {
		return "", fmt.Errorf("schedule_reminder: %w", err)
	}
	return fmt.Sprintf("Reminder scheduled (%s): %s", schedule, message), nil
}
