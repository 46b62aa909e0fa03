package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"moneta/internal/core"
)

func (q *queries) CreateReminder(ctx context.Context, r core.Reminder) (core.Reminder, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO reminders (name, comment, periodicity, next_date, active, task_id)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		r.Name, r.Comment, string(r.Periodicity), toUnix(r.NextDate), r.Active, r.TaskID)
	if err != nil {
		return core.Reminder{}, fmt.Errorf("insert reminder: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Reminder{}, fmt.Errorf("reminder insert id: %w", err)
	}

	r.ID = id
	q.record(Change{Entity: EntityReminder, Op: OpCreated, ID: id})
	return r, nil
}

func scanReminder(scan func(...any) error) (core.Reminder, error) {
	var r core.Reminder
	var periodicity string
	var nextDate int64
	err := scan(&r.ID, &r.Name, &r.Comment, &periodicity, &nextDate, &r.Active, &r.TaskID)
	if err != nil {
		return core.Reminder{}, err
	}
	r.Periodicity = core.Periodicity(periodicity)
	r.NextDate = fromUnix(nextDate)
	return r, nil
}

func (q *queries) GetReminder(ctx context.Context, id int64) (core.Reminder, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT id, name, comment, periodicity, next_date, active, task_id
		 FROM reminders WHERE id = ?`, id)
	r, err := scanReminder(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Reminder{}, fmt.Errorf("reminder %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Reminder{}, fmt.Errorf("get reminder: %w", err)
	}
	return r, nil
}

func (q *queries) ListReminders(ctx context.Context) ([]core.Reminder, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, name, comment, periodicity, next_date, active, task_id
		 FROM reminders ORDER BY next_date`)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	defer rows.Close()

	var reminders []core.Reminder
	for rows.Next() {
		r, err := scanReminder(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan reminder: %w", err)
		}
		reminders = append(reminders, r)
	}
	return reminders, rows.Err()
}

// ListDueReminders returns active reminders whose next date is not after now.
func (q *queries) ListDueReminders(ctx context.Context, now time.Time) ([]core.Reminder, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, name, comment, periodicity, next_date, active, task_id
		 FROM reminders WHERE active = 1 AND next_date <= ? ORDER BY next_date`,
		toUnix(now))
	if err != nil {
		return nil, fmt.Errorf("list due reminders: %w", err)
	}
	defer rows.Close()

	var reminders []core.Reminder
	for rows.Next() {
		r, err := scanReminder(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan reminder: %w", err)
		}
		reminders = append(reminders, r)
	}
	return reminders, rows.Err()
}

func (q *queries) UpdateReminder(ctx context.Context, r core.Reminder) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE reminders
		 SET name = ?, comment = ?, periodicity = ?, next_date = ?, active = ?, task_id = ?
		 WHERE id = ?`,
		r.Name, r.Comment, string(r.Periodicity), toUnix(r.NextDate), r.Active, r.TaskID, r.ID)
	if err != nil {
		return fmt.Errorf("update reminder: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("reminder %d: %w", r.ID, core.ErrNotFound)
	}
	q.record(Change{Entity: EntityReminder, Op: OpUpdated, ID: r.ID})
	return nil
}

func (q *queries) DeleteReminder(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM reminders WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("reminder %d: %w", id, core.ErrNotFound)
	}
	q.record(Change{Entity: EntityReminder, Op: OpDeleted, ID: id})
	return nil
}

func (q *queries) ReminderNameExists(ctx context.Context, name string, excludeID int64) (bool, error) {
	var count int
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reminders WHERE name = ? AND id != ?`,
		name, excludeID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check reminder name: %w", err)
	}
	return count > 0, nil
}
