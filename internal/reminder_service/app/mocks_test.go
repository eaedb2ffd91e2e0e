package app

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/bondtrack/golang_services/internal/platform/messagebroker"
	"github.com/bondtrack/golang_services/internal/reminder_service/domain"
)

// --- Mocks ---

type MockReminderRepository struct {
	mock.Mock
}

func (m *MockReminderRepository) Create(ctx context.Context, r *domain.Reminder) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockReminderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Reminder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reminder), args.Error(1)
}

func (m *MockReminderRepository) ListByCourtDate(ctx context.Context, courtDateID uuid.UUID) ([]*domain.Reminder, error) {
	args := m.Called(ctx, courtDateID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Reminder), args.Error(1)
}

func (m *MockReminderRepository) ListAll(ctx context.Context) ([]*domain.Reminder, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Reminder), args.Error(1)
}

func (m *MockReminderRepository) ListDue(ctx context.Context, dueTime time.Time, limit int) ([]*domain.Reminder, error) {
	args := m.Called(ctx, dueTime, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Reminder), args.Error(1)
}

func (m *MockReminderRepository) MarkSent(ctx context.Context, id uuid.UUID, notificationID *uuid.UUID, sentAt time.Time) error {
	args := m.Called(ctx, id, notificationID, sentAt)
	return args.Error(0)
}

func (m *MockReminderRepository) MarkConfirmed(ctx context.Context, id uuid.UUID, actor string, confirmedAt time.Time) error {
	args := m.Called(ctx, id, actor, confirmedAt)
	return args.Error(0)
}

func (m *MockReminderRepository) Reschedule(ctx context.Context, id uuid.UUID, scheduledFor time.Time) error {
	args := m.Called(ctx, id, scheduledFor)
	return args.Error(0)
}

func (m *MockReminderRepository) Suppress(ctx context.Context, id uuid.UUID, suppressedAt time.Time) error {
	args := m.Called(ctx, id, suppressedAt)
	return args.Error(0)
}

func (m *MockReminderRepository) RecordAttempt(ctx context.Context, id uuid.UUID, attemptedAt, nextAttemptAt time.Time, lastErr string) error {
	args := m.Called(ctx, id, attemptedAt, nextAttemptAt, lastErr)
	return args.Error(0)
}

type MockCourtDateRepository struct {
	mock.Mock
}

func (m *MockCourtDateRepository) ListAll(ctx context.Context) ([]*domain.CourtDate, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.CourtDate), args.Error(1)
}

func (m *MockCourtDateRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.CourtDate, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CourtDate), args.Error(1)
}

type MockClientRepository struct {
	mock.Mock
}

func (m *MockClientRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Client), args.Error(1)
}

type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Send(ctx context.Context, r *domain.Reminder, cd *domain.CourtDate, c *domain.Client) (uuid.UUID, error) {
	args := m.Called(ctx, r, cd, c)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	args := m.Called(ctx, subject, data)
	return args.Error(0)
}

type MockSubscriber struct {
	mock.Mock
}

func (m *MockSubscriber) Subscribe(ctx context.Context, subject, queueGroup string, handler func(msg messagebroker.Message)) (messagebroker.Subscription, error) {
	args := m.Called(ctx, subject, queueGroup, handler)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(messagebroker.Subscription), args.Error(1)
}

type noopSubscription struct{}

func (noopSubscription) Unsubscribe() error { return nil }

// --- Helpers ---

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fixedNow is Monday 2 March 2026, 10:00 UTC.
var fixedNow = time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)

func clockAt(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func timePtr(t time.Time) *time.Time { return &t }

func courtDateAt(at *time.Time) *domain.CourtDate {
	return &domain.CourtDate{
		ID:          uuid.New(),
		ClientID:    uuid.New(),
		ScheduledAt: at,
		Location:    "Harris County Courthouse, Room 4B",
		CaseNumber:  "CR-2026-0142",
	}
}
