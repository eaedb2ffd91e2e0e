package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bondtrack/golang_services/internal/reminder_service/domain"
)

type PgNotificationRepository struct {
	db     DBTX
	logger *slog.Logger
}

func NewPgNotificationRepository(db DBTX, logger *slog.Logger) *PgNotificationRepository {
	return &PgNotificationRepository{db: db, logger: logger}
}

func (r *PgNotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	query := `
		INSERT INTO notifications (id, reminder_id, client_id, priority, subject, body, channels, status, error_message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	channels := n.Channels
	if channels == nil {
		channels = []string{}
	}
	_, err := r.db.Exec(ctx, query,
		n.ID, n.ReminderID, n.ClientID, string(n.Priority), n.Subject, n.Body,
		channels, n.Status, n.ErrorMessage, n.CreatedAt,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error creating notification", "error", err, "notification_id", n.ID)
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}
