package core

import "time"

const (
	Once    Periodicity = "ONCE"
	Daily   Periodicity = "DAY"
	Weekly  Periodicity = "WEEK"
	Monthly Periodicity = "MONTH"
	Yearly  Periodicity = "YEAR"
)

type Periodicity string

// Reminder is a recurring prompt to record an expected payment. TaskID holds
// the scheduler registration while the reminder is active.
type Reminder struct {
	ID          int64
	Name        string
	Comment     string
	Periodicity Periodicity
	NextDate    time.Time
	Active      bool
	TaskID      *int64
}

func (p Periodicity) Validate() error {
	switch p {
	case Once, Daily, Weekly, Monthly, Yearly:
		return nil
	default:
		return ErrInvalidPeriodicity
	}
}

// Interval returns the fixed advancement step. Months and years use fixed
// day counts (31 and 365) rather than calendar arithmetic, so next dates
// drift across months of differing length and leap years.
func (p Periodicity) Interval() time.Duration {
	switch p {
	case Daily:
		return 24 * time.Hour
	case Weekly:
		return 7 * 24 * time.Hour
	case Monthly:
		return 31 * 24 * time.Hour
	case Yearly:
		return 365 * 24 * time.Hour
	default:
		return 0
	}
}

// NextAfter returns the next due date following a firing at the current
// NextDate. For ONCE reminders there is no next date; the caller deactivates
// the reminder instead.
func (p Periodicity) NextAfter(current time.Time) time.Time {
	return current.Add(p.Interval())
}

func (r Reminder) Validate() error {
	if err := validateName(r.Name); err != nil {
		return err
	}
	if err := validateComment(r.Comment); err != nil {
		return err
	}
	if err := r.Periodicity.Validate(); err != nil {
		return err
	}
	if r.NextDate.IsZero() {
		return ErrMissingDate
	}
	return nil
}
