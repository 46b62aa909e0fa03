package notify

import (
	"encoding/json"
	"time"
)

// ReminderDueMessage announces that a reminder has come due. It carries the
// name and comment so the delivery worker can render the notification
// without a database round trip.
type ReminderDueMessage struct {
	ReminderID int64     `json:"reminder_id"`
	Name       string    `json:"name"`
	Comment    string    `json:"comment,omitempty"`
	DueAt      time.Time `json:"due_at"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewReminderDueMessage(reminderID int64, name, comment string, dueAt time.Time) *ReminderDueMessage {
	return &ReminderDueMessage{
		ReminderID: reminderID,
		Name:       name,
		Comment:    comment,
		DueAt:      dueAt,
		Timestamp:  time.Now(),
	}
}

func (m *ReminderDueMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ReminderDueMessageFromJSON(data []byte) (*ReminderDueMessage, error) {
	var msg ReminderDueMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
