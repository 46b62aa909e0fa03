package notify

import "context"

// Notifier delivers reminder-due announcements. The AMQP Client is the
// production implementation; tests substitute an in-memory one.
type Notifier interface {
	ReminderDue(ctx context.Context, msg *ReminderDueMessage) error
}
