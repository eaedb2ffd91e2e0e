package domain

import (
	"time"

	"github.com/google/uuid"
)

// ReminderKind identifies a reminder's slot relative to its court date.
type ReminderKind string

const (
	KindInitial   ReminderKind = "initial"    // 7 days before
	KindFollowup1 ReminderKind = "followup_1" // 3 days before
	KindFollowup2 ReminderKind = "followup_2" // 1 day before
	KindFinal     ReminderKind = "final"      // day of
)

// AllKinds lists the kinds from earliest to latest.
var AllKinds = []ReminderKind{KindInitial, KindFollowup1, KindFollowup2, KindFinal}

// Valid reports whether k is a known kind.
func (k ReminderKind) Valid() bool {
	switch k {
	case KindInitial, KindFollowup1, KindFollowup2, KindFinal:
		return true
	}
	return false
}

// OffsetDays is how many calendar days before the court date the kind fires.
func (k ReminderKind) OffsetDays() int {
	switch k {
	case KindInitial:
		return 7
	case KindFollowup1:
		return 3
	case KindFollowup2:
		return 1
	default:
		return 0
	}
}

// Priority is derived from the kind and never stored.
func (k ReminderKind) Priority() Priority {
	switch k {
	case KindFollowup2:
		return PriorityHigh
	case KindFinal:
		return PriorityUrgent
	default:
		return PriorityMedium
	}
}

// Priority changes message framing only.
type Priority string

const (
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Rank orders priorities; higher is more urgent.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 3
	case PriorityHigh:
		return 2
	case PriorityMedium:
		return 1
	}
	return 0
}

// Reminder is one scheduled notification for one court date and kind.
type Reminder struct {
	ID             uuid.UUID    `json:"id"`
	CourtDateID    uuid.UUID    `json:"court_date_id"`
	Kind           ReminderKind `json:"kind"`
	ScheduledFor   time.Time    `json:"scheduled_for"`
	Sent           bool         `json:"sent"`
	SentAt         *time.Time   `json:"sent_at,omitempty"`
	Confirmed      bool         `json:"confirmed"`
	ConfirmedBy    *string      `json:"confirmed_by,omitempty"`
	ConfirmedAt    *time.Time   `json:"confirmed_at,omitempty"`
	NotificationID *uuid.UUID   `json:"notification_id,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`

	// Suppressed reminders are retired without being sent: the court date
	// was completed, removed, passed, or moved so the slot no longer applies.
	Suppressed   bool       `json:"suppressed"`
	SuppressedAt *time.Time `json:"suppressed_at,omitempty"`

	// Failed dispatch bookkeeping. A reminder is not retried before NextAttemptAt.
	Attempts      int        `json:"attempts"`
	LastAttemptAt *time.Time `json:"last_attempt_at,omitempty"`
	NextAttemptAt *time.Time `json:"next_attempt_at,omitempty"`
	LastError     *string    `json:"last_error,omitempty"`
}

// Pending reports whether the reminder still waits for dispatch.
func (r *Reminder) Pending() bool {
	return !r.Sent && !r.Suppressed
}

// Status is a one-word summary of where the reminder stands.
func (r *Reminder) Status() string {
	switch {
	case r.Sent:
		return "sent"
	case r.Suppressed:
		return "suppressed"
	case r.Attempts > 0:
		return "retrying"
	default:
		return "pending"
	}
}

// Priority is computed from Kind on read.
func (r *Reminder) Priority() Priority {
	return r.Kind.Priority()
}

// NewReminder builds an unsent, unconfirmed reminder.
func NewReminder(id, courtDateID uuid.UUID, kind ReminderKind, scheduledFor, createdAt time.Time) *Reminder {
	return &Reminder{
		ID:           id,
		CourtDateID:  courtDateID,
		Kind:         kind,
		ScheduledFor: scheduledFor,
		CreatedAt:    createdAt,
	}
}

// Notification records one delivery attempt for a reminder.
type Notification struct {
	ID           uuid.UUID `json:"id"`
	ReminderID   uuid.UUID `json:"reminder_id"`
	ClientID     uuid.UUID `json:"client_id"`
	Priority     Priority  `json:"priority"`
	Subject      string    `json:"subject"`
	Body         string    `json:"body"`
	Channels     []string  `json:"channels"`
	Status       string    `json:"status"`
	ErrorMessage *string   `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

const (
	NotificationStatusSent   = "sent"
	NotificationStatusFailed = "failed"
)
