package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bondtrack/golang_services/internal/reminder_service/domain"
)

var courtDateCols = []string{
	"id", "client_id", "scheduled_at", "location", "case_number",
	"completed", "approved", "acknowledged", "created_at", "updated_at",
}

func TestPgCourtDateRepository_ListAll(t *testing.T) {
	ctx := context.Background()
	mockPool := newMockPool(t)
	repo := NewPgCourtDateRepository(mockPool, discardLogger())

	scheduled := time.Date(2026, time.April, 1, 14, 30, 0, 0, time.UTC)
	created := scheduled.Add(-60 * 24 * time.Hour)
	rows := mockPool.NewRows(courtDateCols).
		AddRow(uuid.New(), uuid.New(), &scheduled, "Room 4B", "CR-1", false, true, false, created, created).
		AddRow(uuid.New(), uuid.New(), (*time.Time)(nil), "", "CR-2", false, false, false, created, created)
	mockPool.ExpectQuery(`SELECT .+ FROM court_dates ORDER BY scheduled_at ASC NULLS LAST`).WillReturnRows(rows)

	got, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].IsScheduled())
	assert.True(t, scheduled.Equal(*got[0].ScheduledAt))
	assert.True(t, got[0].Approved)
	assert.False(t, got[1].IsScheduled())
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPgCourtDateRepository_GetByID_NotFound(t *testing.T) {
	mockPool := newMockPool(t)
	repo := NewPgCourtDateRepository(mockPool, discardLogger())
	id := uuid.New()

	mockPool.ExpectQuery(`FROM court_dates WHERE id = \$1`).WithArgs(id).WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), id)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPgClientRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	t.Run("Found", func(t *testing.T) {
		mockPool := newMockPool(t)
		repo := NewPgClientRepository(mockPool, discardLogger())

		rows := mockPool.NewRows([]string{"id", "first_name", "last_name", "external_id", "phone", "email"}).
			AddRow(id, "Dana", "Reyes", "BB-1042", "+15125550100", "")
		mockPool.ExpectQuery(`FROM clients\s+WHERE id = \$1`).WithArgs(id).WillReturnRows(rows)

		c, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Dana Reyes", c.DisplayName())
		assert.Equal(t, "+15125550100", c.Phone)
		assert.Empty(t, c.Email)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("Missing", func(t *testing.T) {
		mockPool := newMockPool(t)
		repo := NewPgClientRepository(mockPool, discardLogger())
		mockPool.ExpectQuery(`FROM clients`).WithArgs(id).WillReturnError(pgx.ErrNoRows)

		_, err := repo.GetByID(ctx, id)
		assert.ErrorIs(t, err, domain.ErrClientNotFound)
	})
}

func TestPgNotificationRepository_Create(t *testing.T) {
	mockPool := newMockPool(t)
	repo := NewPgNotificationRepository(mockPool, discardLogger())

	n := &domain.Notification{
		ID:         uuid.New(),
		ReminderID: uuid.New(),
		ClientID:   uuid.New(),
		Priority:   domain.PriorityUrgent,
		Subject:    "Court date tomorrow",
		Body:       "URGENT: ...",
		Status:     domain.NotificationStatusSent,
		CreatedAt:  time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC),
	}
	mockPool.ExpectExec(`INSERT INTO notifications`).
		WithArgs(n.ID, n.ReminderID, n.ClientID, "urgent", n.Subject, n.Body,
			[]string{}, domain.NotificationStatusSent, pgxmock.AnyArg(), n.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), n))
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestMigrate(t *testing.T) {
	mockPool := newMockPool(t)
	mockPool.ExpectExec(`CREATE TABLE IF NOT EXISTS court_date_reminders`).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))

	require.NoError(t, Migrate(context.Background(), mockPool))
	assert.NoError(t, mockPool.ExpectationsWereMet())
}
