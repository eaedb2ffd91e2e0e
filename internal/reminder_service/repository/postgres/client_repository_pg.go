package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/bondtrack/golang_services/internal/reminder_service/domain"
)

type PgClientRepository struct {
	db     DBTX
	logger *slog.Logger
}

func NewPgClientRepository(db DBTX, logger *slog.Logger) *PgClientRepository {
	return &PgClientRepository{db: db, logger: logger}
}

// GetByID returns domain.ErrClientNotFound when no client row exists.
func (r *PgClientRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	query := `
		SELECT id, first_name, last_name, external_id, COALESCE(phone, ''), COALESCE(email, '')
		FROM clients
		WHERE id = $1
	`
	c := &domain.Client{}
	err := r.db.QueryRow(ctx, query, id).Scan(&c.ID, &c.FirstName, &c.LastName, &c.ExternalID, &c.Phone, &c.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrClientNotFound
		}
		r.logger.ErrorContext(ctx, "Error getting client by ID", "error", err, "client_id", id)
		return nil, fmt.Errorf("get client: %w", err)
	}
	return c, nil
}
