package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/bondtrack/golang_services/internal/reminder_service/domain"
)

// integrationPool connects to REMINDER_TEST_PG_DSN when set, otherwise boots a
// throwaway Postgres container. Docker being unavailable skips the test.
func integrationPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping Postgres integration test in -short mode")
	}
	ctx := context.Background()

	dsn := os.Getenv("REMINDER_TEST_PG_DSN")
	if dsn == "" {
		container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
			tcpostgres.WithDatabase("reminders"),
			tcpostgres.WithUsername("reminders"),
			tcpostgres.WithPassword("reminders"),
			tcpostgres.BasicWaitStrategies(),
		)
		if err != nil {
			t.Skipf("postgres container unavailable: %v", err)
		}
		t.Cleanup(func() { _ = container.Terminate(context.Background()) })

		dsn, err = container.ConnectionString(ctx, "sslmode=disable")
		require.NoError(t, err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, Migrate(ctx, pool))
	return pool
}

func TestIntegration_ReminderLifecycle(t *testing.T) {
	pool := integrationPool(t)
	ctx := context.Background()
	logger := discardLogger()

	clientID := uuid.New()
	courtDateID := uuid.New()
	courtAt := time.Now().UTC().Add(10 * 24 * time.Hour).Truncate(time.Second)

	_, err := pool.Exec(ctx, `INSERT INTO clients (id, first_name, last_name, external_id, phone) VALUES ($1, 'Dana', 'Reyes', 'BB-1042', '+15125550100')`, clientID)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `INSERT INTO court_dates (id, client_id, scheduled_at, location, case_number) VALUES ($1, $2, $3, 'Room 4B', 'CR-2026-0142')`, courtDateID, clientID, courtAt)
	require.NoError(t, err)

	reminders := NewPgReminderRepository(pool, logger)
	courtDates := NewPgCourtDateRepository(pool, logger)
	clients := NewPgClientRepository(pool, logger)
	notifications := NewPgNotificationRepository(pool, logger)

	cd, err := courtDates.GetByID(ctx, courtDateID)
	require.NoError(t, err)
	require.True(t, cd.IsScheduled())
	assert.True(t, courtAt.Equal(*cd.ScheduledAt))

	c, err := clients.GetByID(ctx, clientID)
	require.NoError(t, err)
	assert.Empty(t, c.Email)

	now := time.Now().UTC().Truncate(time.Microsecond)
	rem := domain.NewReminder(uuid.New(), courtDateID, domain.KindFinal, now.Add(-time.Minute), now)
	require.NoError(t, reminders.Create(ctx, rem))

	dup := domain.NewReminder(uuid.New(), courtDateID, domain.KindFinal, now, now)
	assert.ErrorIs(t, reminders.Create(ctx, dup), domain.ErrDuplicateReminder)

	due, err := reminders.ListDue(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, rem.ID, due[0].ID)

	assert.ErrorIs(t, reminders.MarkConfirmed(ctx, rem.ID, "agent", now), domain.ErrReminderNotSent)

	notifID := uuid.New()
	require.NoError(t, notifications.Create(ctx, &domain.Notification{
		ID: notifID, ReminderID: rem.ID, ClientID: clientID, Priority: domain.PriorityUrgent,
		Subject: "s", Body: "b", Channels: []string{"sms"}, Status: domain.NotificationStatusSent, CreatedAt: now,
	}))
	require.NoError(t, reminders.MarkSent(ctx, rem.ID, &notifID, now))
	assert.ErrorIs(t, reminders.MarkSent(ctx, rem.ID, &notifID, now), domain.ErrAlreadySent)

	due, err = reminders.ListDue(ctx, now, 10)
	require.NoError(t, err)
	assert.Empty(t, due)

	require.NoError(t, reminders.MarkConfirmed(ctx, rem.ID, "agent", now))
	assert.ErrorIs(t, reminders.MarkConfirmed(ctx, rem.ID, "agent", now), domain.ErrAlreadyConfirmed)

	got, err := reminders.GetByID(ctx, rem.ID)
	require.NoError(t, err)
	assert.True(t, got.Sent)
	assert.True(t, got.Confirmed)
	require.NotNil(t, got.ConfirmedBy)
	assert.Equal(t, "agent", *got.ConfirmedBy)
	require.NotNil(t, got.NotificationID)
	assert.Equal(t, notifID, *got.NotificationID)

	assert.ErrorIs(t, reminders.MarkSent(ctx, uuid.New(), nil, now), domain.ErrNotFound)
}

func TestIntegration_RetryAndReschedule(t *testing.T) {
	pool := integrationPool(t)
	ctx := context.Background()
	reminders := NewPgReminderRepository(pool, discardLogger())

	clientID := uuid.New()
	courtDateID := uuid.New()
	_, err := pool.Exec(ctx, `INSERT INTO clients (id, first_name, last_name, external_id) VALUES ($1, 'Sam', 'Ortiz', 'BB-2210')`, clientID)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `INSERT INTO court_dates (id, client_id, scheduled_at) VALUES ($1, $2, $3)`, courtDateID, clientID, time.Now().UTC().Add(5*24*time.Hour))
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Microsecond)
	failing := domain.NewReminder(uuid.New(), courtDateID, domain.KindFollowup1, now.Add(-2*time.Hour), now)
	fresh := domain.NewReminder(uuid.New(), courtDateID, domain.KindFollowup2, now.Add(-time.Minute), now)
	stale := domain.NewReminder(uuid.New(), courtDateID, domain.KindInitial, now.Add(-3*time.Hour), now)
	for _, r := range []*domain.Reminder{failing, fresh, stale} {
		require.NoError(t, reminders.Create(ctx, r))
	}

	require.NoError(t, reminders.RecordAttempt(ctx, failing.ID, now, now.Add(time.Minute), "no channel"))
	require.NoError(t, reminders.Suppress(ctx, stale.ID, now))

	// Backing off and suppressed rows are not due.
	due, err := reminders.ListDue(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, fresh.ID, due[0].ID)

	// Once the backoff lapses, never-attempted rows still come first.
	due, err = reminders.ListDue(ctx, now.Add(2*time.Minute), 1)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, fresh.ID, due[0].ID)

	got, err := reminders.GetByID(ctx, failing.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Attempts)
	require.NotNil(t, got.LastError)
	assert.Equal(t, "no channel", *got.LastError)
	assert.Equal(t, "retrying", got.Status())

	got, err = reminders.GetByID(ctx, stale.ID)
	require.NoError(t, err)
	assert.True(t, got.Suppressed)
	assert.False(t, got.Sent)

	moveTo := now.Add(48 * time.Hour)
	require.NoError(t, reminders.Reschedule(ctx, failing.ID, moveTo))
	got, err = reminders.GetByID(ctx, failing.ID)
	require.NoError(t, err)
	assert.True(t, moveTo.Equal(got.ScheduledFor))
	assert.Zero(t, got.Attempts)
	assert.Nil(t, got.NextAttemptAt)
	assert.Nil(t, got.LastError)

	require.NoError(t, reminders.Reschedule(ctx, stale.ID, moveTo.Add(-24*time.Hour)))
	got, err = reminders.GetByID(ctx, stale.ID)
	require.NoError(t, err)
	assert.False(t, got.Suppressed)

	require.NoError(t, reminders.MarkSent(ctx, fresh.ID, nil, now))
	assert.ErrorIs(t, reminders.Reschedule(ctx, fresh.ID, moveTo), domain.ErrAlreadySent)
	assert.ErrorIs(t, reminders.Suppress(ctx, fresh.ID, now), domain.ErrAlreadySent)
	assert.ErrorIs(t, reminders.Reschedule(ctx, uuid.New(), moveTo), domain.ErrNotFound)
}
