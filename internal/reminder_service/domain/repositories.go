package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ReminderRepository persists reminders.
type ReminderRepository interface {
	// Create inserts a reminder. It returns ErrDuplicateReminder when the
	// (court date, kind) pair already exists.
	Create(ctx context.Context, r *Reminder) error
	GetByID(ctx context.Context, id uuid.UUID) (*Reminder, error)
	ListByCourtDate(ctx context.Context, courtDateID uuid.UUID) ([]*Reminder, error)
	ListAll(ctx context.Context) ([]*Reminder, error)
	// ListDue returns pending reminders scheduled at or before dueTime whose
	// retry backoff has elapsed. Reminders with fewer failed attempts come
	// first, so rows that keep failing cannot fill every batch.
	ListDue(ctx context.Context, dueTime time.Time, limit int) ([]*Reminder, error)
	// MarkSent flips sent false->true once.
	MarkSent(ctx context.Context, id uuid.UUID, notificationID *uuid.UUID, sentAt time.Time) error
	// Reschedule moves an unsent reminder to scheduledFor, clearing any
	// suppression and retry state. ErrAlreadySent for sent reminders.
	Reschedule(ctx context.Context, id uuid.UUID, scheduledFor time.Time) error
	// Suppress retires an unsent reminder without sending it.
	// ErrAlreadySent for sent reminders.
	Suppress(ctx context.Context, id uuid.UUID, suppressedAt time.Time) error
	// RecordAttempt counts a failed dispatch and defers the next try until
	// nextAttemptAt. It is a no-op for sent or unknown reminders.
	RecordAttempt(ctx context.Context, id uuid.UUID, attemptedAt, nextAttemptAt time.Time, lastErr string) error
	// MarkConfirmed flips confirmed false->true, only for sent reminders.
	MarkConfirmed(ctx context.Context, id uuid.UUID, actor string, confirmedAt time.Time) error
}

// CourtDateRepository is the read-only court date source.
type CourtDateRepository interface {
	ListAll(ctx context.Context) ([]*CourtDate, error)
	GetByID(ctx context.Context, id uuid.UUID) (*CourtDate, error)
}

// ClientRepository resolves clients for enrichment and delivery.
type ClientRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Client, error)
}

// NotificationRepository records delivery attempts.
type NotificationRepository interface {
	Create(ctx context.Context, n *Notification) error
}

// Dispatcher sends one reminder to a client and returns the recorded
// notification id. Failures wrap ErrDispatchFailed.
type Dispatcher interface {
	Send(ctx context.Context, reminder *Reminder, courtDate *CourtDate, client *Client) (uuid.UUID, error)
}
