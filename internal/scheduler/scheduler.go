package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// NotifyFunc is called when a reminder fires.
type NotifyFunc func(userID, message string)

// Scheduler manages cron-based user reminders. Each user can hold any
// number of reminders; a fired reminder is pushed to the user's chat
// through the notify callback.
type Scheduler struct {
	mu     sync.Mutex
	cron   *cron.Cron
	jobs   map[string][]cron.EntryID // user_id → entry IDs
	notify NotifyFunc
	logger *slog.Logger
}

// New creates a new scheduler.
func New(notify NotifyFunc, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:   cron.New(),
		jobs:   make(map[string][]cron.EntryID),
		notify: notify,
		logger: logger,
	}
}

// Start begins the cron scheduler. Blocks until context is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.cron.Start()
	s.logger.Info("scheduler started")

	<-ctx.Done()
	s.cron.Stop()
	s.logger.Info("scheduler stopped")
	return ctx.Err()
}

// Schedule adds a reminder for a user. The spec is a standard cron
// expression (5 fields) or a predefined schedule like @every 1h.
func (s *Scheduler) Schedule(userID, spec, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.cron.AddFunc(spec, func() {
		s.logger.Info("reminder fired", "user", userID, "message", message)
		s.notify(userID, message)
	})
	if err != nil {
		return fmt.Errorf("scheduler: invalid schedule %q: %w", spec, err)
	}

	s.jobs[userID] = append(s.jobs[userID], id)
	s.logger.Info("reminder registered", "user", userID, "schedule", spec)
	return nil
}

// RemoveUser removes all reminders for a user.
func (s *Scheduler) RemoveUser(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.jobs[userID] {
		s.cron.Remove(id)
	}
	delete(s.jobs, userID)
}

// ListReminders returns all entry IDs for a user.
func (s *Scheduler) ListReminders(userID string) []cron.EntryID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[userID]
}

// ReminderCount returns the total number of scheduled reminders.
func (s *Scheduler) ReminderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, ids := range s.jobs {
		total += len(ids)
	}
	return total
}
