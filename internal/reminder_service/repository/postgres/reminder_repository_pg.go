package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/bondtrack/golang_services/internal/reminder_service/domain"
)

const reminderColumns = `id, court_date_id, kind, scheduled_for, sent, sent_at, confirmed, confirmed_by, confirmed_at, notification_id, created_at,
	suppressed, suppressed_at, attempts, last_attempt_at, next_attempt_at, last_error`

type PgReminderRepository struct {
	db     DBTX
	logger *slog.Logger
}

func NewPgReminderRepository(db DBTX, logger *slog.Logger) *PgReminderRepository {
	return &PgReminderRepository{db: db, logger: logger}
}

// Create inserts r. A second reminder of the same kind for the same court
// date is rejected with domain.ErrDuplicateReminder.
func (r *PgReminderRepository) Create(ctx context.Context, rem *domain.Reminder) error {
	query := `
		INSERT INTO court_date_reminders (id, court_date_id, kind, scheduled_for, sent, confirmed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (court_date_id, kind) DO NOTHING
	`
	tag, err := r.db.Exec(ctx, query,
		rem.ID, rem.CourtDateID, string(rem.Kind), rem.ScheduledFor, rem.Sent, rem.Confirmed, rem.CreatedAt,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error creating reminder", "error", err, "reminder_id", rem.ID)
		return fmt.Errorf("insert reminder: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDuplicateReminder
	}
	return nil
}

func (r *PgReminderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Reminder, error) {
	query := `SELECT ` + reminderColumns + ` FROM court_date_reminders WHERE id = $1`
	rem, err := scanReminder(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Error getting reminder by ID", "error", err, "reminder_id", id)
		return nil, fmt.Errorf("get reminder: %w", err)
	}
	return rem, nil
}

func (r *PgReminderRepository) ListByCourtDate(ctx context.Context, courtDateID uuid.UUID) ([]*domain.Reminder, error) {
	query := `SELECT ` + reminderColumns + ` FROM court_date_reminders WHERE court_date_id = $1 ORDER BY scheduled_for ASC`
	return r.list(ctx, query, courtDateID)
}

func (r *PgReminderRepository) ListAll(ctx context.Context) ([]*domain.Reminder, error) {
	query := `SELECT ` + reminderColumns + ` FROM court_date_reminders ORDER BY scheduled_for ASC`
	return r.list(ctx, query)
}

// ListDue returns pending reminders scheduled at or before dueTime that are
// not backing off, fewest failed attempts first and then oldest first.
func (r *PgReminderRepository) ListDue(ctx context.Context, dueTime time.Time, limit int) ([]*domain.Reminder, error) {
	query := `SELECT ` + reminderColumns + ` FROM court_date_reminders
		WHERE sent = false AND suppressed = false AND scheduled_for <= $1
			AND (next_attempt_at IS NULL OR next_attempt_at <= $1)
		ORDER BY attempts ASC, scheduled_for ASC, id ASC
		LIMIT $2`
	return r.list(ctx, query, dueTime, limit)
}

// MarkSent flips sent exactly once. The guarded update keeps two workers
// from both recording a send.
func (r *PgReminderRepository) MarkSent(ctx context.Context, id uuid.UUID, notificationID *uuid.UUID, sentAt time.Time) error {
	query := `
		UPDATE court_date_reminders
		SET sent = true, sent_at = $2, notification_id = $3, suppressed = false, suppressed_at = NULL
		WHERE id = $1 AND sent = false
	`
	tag, err := r.db.Exec(ctx, query, id, sentAt, notificationID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error marking reminder sent", "error", err, "reminder_id", id)
		return fmt.Errorf("mark reminder sent: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	return r.unsentMiss(ctx, id)
}

// Reschedule moves an unsent reminder and resets its suppression and retry
// state, so a moved court date gets fresh attempts at the new slot.
func (r *PgReminderRepository) Reschedule(ctx context.Context, id uuid.UUID, scheduledFor time.Time) error {
	query := `
		UPDATE court_date_reminders
		SET scheduled_for = $2, suppressed = false, suppressed_at = NULL,
			attempts = 0, last_attempt_at = NULL, next_attempt_at = NULL, last_error = NULL
		WHERE id = $1 AND sent = false
	`
	tag, err := r.db.Exec(ctx, query, id, scheduledFor)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error rescheduling reminder", "error", err, "reminder_id", id)
		return fmt.Errorf("reschedule reminder: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	return r.unsentMiss(ctx, id)
}

// Suppress retires an unsent reminder. Suppressing twice keeps the first
// suppressed_at.
func (r *PgReminderRepository) Suppress(ctx context.Context, id uuid.UUID, suppressedAt time.Time) error {
	query := `
		UPDATE court_date_reminders
		SET suppressed = true, suppressed_at = COALESCE(suppressed_at, $2)
		WHERE id = $1 AND sent = false
	`
	tag, err := r.db.Exec(ctx, query, id, suppressedAt)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error suppressing reminder", "error", err, "reminder_id", id)
		return fmt.Errorf("suppress reminder: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	return r.unsentMiss(ctx, id)
}

func (r *PgReminderRepository) RecordAttempt(ctx context.Context, id uuid.UUID, attemptedAt, nextAttemptAt time.Time, lastErr string) error {
	query := `
		UPDATE court_date_reminders
		SET attempts = attempts + 1, last_attempt_at = $2, next_attempt_at = $3, last_error = $4
		WHERE id = $1 AND sent = false
	`
	if _, err := r.db.Exec(ctx, query, id, attemptedAt, nextAttemptAt, lastErr); err != nil {
		r.logger.ErrorContext(ctx, "Error recording dispatch attempt", "error", err, "reminder_id", id)
		return fmt.Errorf("record dispatch attempt: %w", err)
	}
	return nil
}

// unsentMiss explains why a `WHERE sent = false` update touched no row:
// sent never flips back, so an existing row means it was already sent.
func (r *PgReminderRepository) unsentMiss(ctx context.Context, id uuid.UUID) error {
	var sent bool
	err := r.db.QueryRow(ctx, `SELECT sent FROM court_date_reminders WHERE id = $1`, id).Scan(&sent)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load reminder state: %w", err)
	}
	return domain.ErrAlreadySent
}

func (r *PgReminderRepository) MarkConfirmed(ctx context.Context, id uuid.UUID, actor string, confirmedAt time.Time) error {
	query := `
		UPDATE court_date_reminders
		SET confirmed = true, confirmed_by = $2, confirmed_at = $3
		WHERE id = $1 AND sent = true AND confirmed = false
	`
	tag, err := r.db.Exec(ctx, query, id, actor, confirmedAt)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error confirming reminder", "error", err, "reminder_id", id)
		return fmt.Errorf("confirm reminder: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var sent, confirmed bool
	err = r.db.QueryRow(ctx, `SELECT sent, confirmed FROM court_date_reminders WHERE id = $1`, id).Scan(&sent, &confirmed)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return domain.ErrNotFound
	case err != nil:
		return fmt.Errorf("load reminder state: %w", err)
	case !sent:
		return domain.ErrReminderNotSent
	default:
		return domain.ErrAlreadyConfirmed
	}
}

func (r *PgReminderRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Reminder, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error listing reminders", "error", err)
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	defer rows.Close()

	var out []*domain.Reminder
	for rows.Next() {
		rem, err := scanReminder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reminder: %w", err)
		}
		out = append(out, rem)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reminders: %w", err)
	}
	return out, nil
}

func scanReminder(row pgx.Row) (*domain.Reminder, error) {
	rem := &domain.Reminder{}
	var kind string
	err := row.Scan(
		&rem.ID, &rem.CourtDateID, &kind, &rem.ScheduledFor, &rem.Sent, &rem.SentAt,
		&rem.Confirmed, &rem.ConfirmedBy, &rem.ConfirmedAt, &rem.NotificationID, &rem.CreatedAt,
		&rem.Suppressed, &rem.SuppressedAt, &rem.Attempts, &rem.LastAttemptAt, &rem.NextAttemptAt, &rem.LastError,
	)
	if err != nil {
		return nil, err
	}
	rem.Kind = domain.ReminderKind(kind)
	return rem, nil
}
