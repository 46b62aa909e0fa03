package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"moneta/internal/core"
	"moneta/internal/notify"
	"moneta/internal/schedule"
	"moneta/internal/storage"
)

// ReminderService manages recurring reminders: CRUD, activation, and the
// firing cycle. The scheduler and notifier are optional collaborators; a nil
// scheduler means due reminders are picked up by polling ProcessDue, a nil
// notifier means firings are logged but not delivered.
type ReminderService struct {
	repo      *storage.Repository
	scheduler schedule.Scheduler
	notifier  notify.Notifier
}

func NewReminderService(repo *storage.Repository, scheduler schedule.Scheduler, notifier notify.Notifier) *ReminderService {
	return &ReminderService{repo: repo, scheduler: scheduler, notifier: notifier}
}

func (s *ReminderService) scheduleTask(ctx context.Context, at time.Time, reminderID int64) *int64 {
	if s.scheduler == nil {
		return nil
	}
	taskID, err := s.scheduler.ScheduleAt(at, reminderID)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to schedule reminder task",
			"error", err, "reminder_id", reminderID, "at", at)
		return nil
	}
	return &taskID
}

func (s *ReminderService) cancelTask(ctx context.Context, taskID *int64) {
	if s.scheduler == nil || taskID == nil {
		return
	}
	if err := s.scheduler.Cancel(*taskID); err != nil {
		slog.ErrorContext(ctx, "Failed to cancel reminder task",
			"error", err, "task_id", *taskID)
	}
}

// Create stores a reminder and, when it is active, registers its first
// firing with the scheduler. An active reminder may not start in the past.
func (s *ReminderService) Create(ctx context.Context, r core.Reminder) (core.Reminder, error) {
	if err := r.Validate(); err != nil {
		return core.Reminder{}, fmt.Errorf("validate reminder: %w", err)
	}
	if r.Active && r.NextDate.Before(time.Now()) {
		return core.Reminder{}, fmt.Errorf("next date %s: %w", r.NextDate.Format(time.RFC3339), core.ErrDateInPast)
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return core.Reminder{}, err
	}
	defer tx.Rollback()

	taken, err := tx.ReminderNameExists(ctx, r.Name, 0)
	if err != nil {
		return core.Reminder{}, err
	}
	if taken {
		return core.Reminder{}, fmt.Errorf("reminder %q: %w", r.Name, core.ErrNameTaken)
	}

	r.TaskID = nil
	created, err := tx.CreateReminder(ctx, r)
	if err != nil {
		return core.Reminder{}, err
	}
	if err := tx.Commit(); err != nil {
		return core.Reminder{}, err
	}

	if created.Active {
		created.TaskID = s.scheduleTask(ctx, created.NextDate, created.ID)
		if created.TaskID != nil {
			if err := s.repo.UpdateReminder(ctx, created); err != nil {
				return core.Reminder{}, err
			}
		}
	}

	slog.InfoContext(ctx, "Reminder created",
		"id", created.ID, "name", created.Name,
		"periodicity", string(created.Periodicity), "active", created.Active)
	return created, nil
}

func (s *ReminderService) Get(ctx context.Context, id int64) (core.Reminder, error) {
	return s.repo.GetReminder(ctx, id)
}

func (s *ReminderService) List(ctx context.Context) ([]core.Reminder, error) {
	return s.repo.ListReminders(ctx)
}

// Update edits a reminder's fields. If the reminder is active and its next
// date changed, the pending task is replaced.
func (s *ReminderService) Update(ctx context.Context, r core.Reminder) (core.Reminder, error) {
	if err := r.Validate(); err != nil {
		return core.Reminder{}, fmt.Errorf("validate reminder: %w", err)
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return core.Reminder{}, err
	}
	defer tx.Rollback()

	old, err := tx.GetReminder(ctx, r.ID)
	if err != nil {
		return core.Reminder{}, err
	}
	taken, err := tx.ReminderNameExists(ctx, r.Name, r.ID)
	if err != nil {
		return core.Reminder{}, err
	}
	if taken {
		return core.Reminder{}, fmt.Errorf("reminder %q: %w", r.Name, core.ErrNameTaken)
	}
	if old.Active && !old.NextDate.Equal(r.NextDate) && r.NextDate.Before(time.Now()) {
		return core.Reminder{}, fmt.Errorf("next date %s: %w", r.NextDate.Format(time.RFC3339), core.ErrDateInPast)
	}

	r.Active = old.Active
	r.TaskID = old.TaskID
	if err := tx.UpdateReminder(ctx, r); err != nil {
		return core.Reminder{}, err
	}
	if err := tx.Commit(); err != nil {
		return core.Reminder{}, err
	}

	if old.Active && !old.NextDate.Equal(r.NextDate) {
		s.cancelTask(ctx, old.TaskID)
		r.TaskID = s.scheduleTask(ctx, r.NextDate, r.ID)
		if err := s.repo.UpdateReminder(ctx, r); err != nil {
			return core.Reminder{}, err
		}
	}
	return r, nil
}

// Activate turns a reminder on and schedules it. The next date must not be
// in the past; stale dates would fire immediately on activation.
func (s *ReminderService) Activate(ctx context.Context, id int64) error {
	r, err := s.repo.GetReminder(ctx, id)
	if err != nil {
		return err
	}
	if r.Active {
		return nil
	}
	if r.NextDate.Before(time.Now()) {
		return fmt.Errorf("next date %s: %w", r.NextDate.Format(time.RFC3339), core.ErrDateInPast)
	}

	r.Active = true
	r.TaskID = s.scheduleTask(ctx, r.NextDate, r.ID)
	if err := s.repo.UpdateReminder(ctx, r); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Reminder activated", "id", id, "next_date", r.NextDate)
	return nil
}

// Deactivate turns a reminder off and cancels any pending task.
func (s *ReminderService) Deactivate(ctx context.Context, id int64) error {
	r, err := s.repo.GetReminder(ctx, id)
	if err != nil {
		return err
	}
	if !r.Active {
		return nil
	}

	s.cancelTask(ctx, r.TaskID)
	r.Active = false
	r.TaskID = nil
	if err := s.repo.UpdateReminder(ctx, r); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Reminder deactivated", "id", id)
	return nil
}

// Delete removes a reminder, canceling its pending task first.
func (s *ReminderService) Delete(ctx context.Context, id int64) error {
	r, err := s.repo.GetReminder(ctx, id)
	if err != nil {
		return err
	}
	s.cancelTask(ctx, r.TaskID)
	if err := s.repo.DeleteReminder(ctx, id); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Reminder deleted", "id", id, "name", r.Name)
	return nil
}

// Fire delivers one reminder's notification and advances its recurrence.
// One-shot reminders deactivate; recurring ones move to the next date and
// register a fresh task. Inactive reminders are skipped, covering the race
// where a firing lands after a deactivation.
func (s *ReminderService) Fire(ctx context.Context, id int64) error {
	r, err := s.repo.GetReminder(ctx, id)
	if err != nil {
		return err
	}
	if !r.Active {
		slog.InfoContext(ctx, "Skipping fire of inactive reminder", "id", id)
		return nil
	}

	if s.notifier != nil {
		msg := notify.NewReminderDueMessage(r.ID, r.Name, r.Comment, r.NextDate)
		if err := s.notifier.ReminderDue(ctx, msg); err != nil {
			// The scheduler already consumed this firing's task. Re-register
			// at the unchanged next date so delivery is retried on a later
			// tick instead of stalling until the next restart.
			r.TaskID = s.scheduleTask(ctx, r.NextDate, r.ID)
			if uerr := s.repo.UpdateReminder(ctx, r); uerr != nil {
				slog.ErrorContext(ctx, "Failed to persist retry task",
					"error", uerr, "id", r.ID)
			}
			return fmt.Errorf("notify reminder %d: %w", r.ID, err)
		}
	} else {
		slog.InfoContext(ctx, "Reminder due (no notifier configured)",
			"id", r.ID, "name", r.Name, "due_at", r.NextDate)
	}

	if r.Periodicity == core.Once {
		r.Active = false
		r.TaskID = nil
	} else {
		r.NextDate = r.Periodicity.NextAfter(r.NextDate)
		r.TaskID = s.scheduleTask(ctx, r.NextDate, r.ID)
	}
	if err := s.repo.UpdateReminder(ctx, r); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Reminder fired",
		"id", r.ID, "name", r.Name, "active", r.Active, "next_date", r.NextDate)
	return nil
}

// ProcessDue fires every active reminder whose next date has passed. It is
// the polling fallback for deployments without a live scheduler, and also
// catches firings missed while the process was down.
func (s *ReminderService) ProcessDue(ctx context.Context, now time.Time) (int, error) {
	due, err := s.repo.ListDueReminders(ctx, now)
	if err != nil {
		return 0, err
	}

	fired := 0
	for _, r := range due {
		// Drop any task still registered for this due date (restored at
		// startup, or not yet consumed by the ticker) so the firing below is
		// the only one.
		s.cancelTask(ctx, r.TaskID)
		if err := s.Fire(ctx, r.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to fire due reminder",
				"error", err, "id", r.ID, "name", r.Name)
			continue
		}
		fired++
	}
	return fired, nil
}

// RestoreSchedules re-registers every active reminder with the scheduler.
// Called at startup since the ticker scheduler keeps its tasks in memory.
func (s *ReminderService) RestoreSchedules(ctx context.Context) error {
	if s.scheduler == nil {
		return nil
	}
	reminders, err := s.repo.ListReminders(ctx)
	if err != nil {
		return err
	}

	restored := 0
	for _, r := range reminders {
		if !r.Active {
			continue
		}
		r.TaskID = s.scheduleTask(ctx, r.NextDate, r.ID)
		if err := s.repo.UpdateReminder(ctx, r); err != nil {
			return err
		}
		restored++
	}

	slog.InfoContext(ctx, "Reminder schedules restored", "count", restored)
	return nil
}
