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

const courtDateColumns = `id, client_id, scheduled_at, location, case_number, completed, approved, acknowledged, created_at, updated_at`

// PgCourtDateRepository reads court dates owned by the case management side.
// Nothing here writes to court_dates.
type PgCourtDateRepository struct {
	db     DBTX
	logger *slog.Logger
}

func NewPgCourtDateRepository(db DBTX, logger *slog.Logger) *PgCourtDateRepository {
	return &PgCourtDateRepository{db: db, logger: logger}
}

func (r *PgCourtDateRepository) ListAll(ctx context.Context) ([]*domain.CourtDate, error) {
	query := `SELECT ` + courtDateColumns + ` FROM court_dates ORDER BY scheduled_at ASC NULLS LAST`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error listing court dates", "error", err)
		return nil, fmt.Errorf("list court dates: %w", err)
	}
	defer rows.Close()

	var out []*domain.CourtDate
	for rows.Next() {
		cd, err := scanCourtDate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan court date: %w", err)
		}
		out = append(out, cd)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate court dates: %w", err)
	}
	return out, nil
}

func (r *PgCourtDateRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.CourtDate, error) {
	query := `SELECT ` + courtDateColumns + ` FROM court_dates WHERE id = $1`
	cd, err := scanCourtDate(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Error getting court date by ID", "error", err, "court_date_id", id)
		return nil, fmt.Errorf("get court date: %w", err)
	}
	return cd, nil
}

func scanCourtDate(row pgx.Row) (*domain.CourtDate, error) {
	cd := &domain.CourtDate{}
	err := row.Scan(
		&cd.ID, &cd.ClientID, &cd.ScheduledAt, &cd.Location, &cd.CaseNumber,
		&cd.Completed, &cd.Approved, &cd.Acknowledged, &cd.CreatedAt, &cd.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return cd, nil
}
