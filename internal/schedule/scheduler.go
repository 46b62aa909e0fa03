// Package schedule provides the task scheduling collaborator used by
// reminder recurrence: register a firing time, get a task id back, cancel by
// id. The ticker implementation polls in-process; nothing survives a restart
// on its own, which is why the reminder service re-registers active
// reminders at startup.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Scheduler registers one-shot firings for reminders.
type Scheduler interface {
	// ScheduleAt registers a firing at the given time and returns a task id.
	ScheduleAt(at time.Time, reminderID int64) (int64, error)
	// Cancel removes a registered task. Canceling an unknown id is not an
	// error; the task may have already fired.
	Cancel(taskID int64) error
}

// FireFunc is invoked when a task comes due.
type FireFunc func(ctx context.Context, reminderID int64)

type task struct {
	id         int64
	at         time.Time
	reminderID int64
}

// TickerScheduler fires due tasks on a fixed polling interval.
type TickerScheduler struct {
	mu       sync.Mutex
	tasks    map[int64]task
	nextID   int64
	interval time.Duration
	fire     FireFunc
}

func NewTickerScheduler(interval time.Duration, fire FireFunc) *TickerScheduler {
	return &TickerScheduler{
		tasks:    make(map[int64]task),
		interval: interval,
		fire:     fire,
	}
}

func (s *TickerScheduler) ScheduleAt(at time.Time, reminderID int64) (int64, error) {
	if s.fire == nil {
		return 0, fmt.Errorf("scheduler has no fire callback")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	s.tasks[s.nextID] = task{id: s.nextID, at: at, reminderID: reminderID}
	return s.nextID, nil
}

func (s *TickerScheduler) Cancel(taskID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.tasks, taskID)
	return nil
}

// Run polls until ctx is done, firing tasks whose time has passed. Tasks are
// removed before their callback runs; a recurring reminder registers its
// next task itself when it fires.
func (s *TickerScheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			for _, t := range s.takeDue(now) {
				slog.InfoContext(ctx, "Scheduled task due",
					"task_id", t.id, "reminder_id", t.reminderID, "at", t.at)
				s.fire(ctx, t.reminderID)
			}
		}
	}
}

func (s *TickerScheduler) takeDue(now time.Time) []task {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []task
	for id, t := range s.tasks {
		if !t.at.After(now) {
			due = append(due, t)
			delete(s.tasks, id)
		}
	}
	return due
}
