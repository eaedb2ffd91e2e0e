package http

import (
	"time"

	"github.com/google/uuid"

	"github.com/bondtrack/golang_services/internal/reminder_service/app"
	"github.com/bondtrack/golang_services/internal/reminder_service/domain"
)

// --- Request DTOs ---

// UpcomingQueryDTO carries the parsed ?days= parameter.
type UpcomingQueryDTO struct {
	Days int `validate:"min=0,max=365"`
}

// --- Response DTOs ---

// ReminderDTO is a reminder with its priority computed from kind.
type ReminderDTO struct {
	ID             uuid.UUID  `json:"id"`
	CourtDateID    uuid.UUID  `json:"court_date_id"`
	Kind           string     `json:"kind"`
	Priority       string     `json:"priority"`
	ScheduledFor   time.Time  `json:"scheduled_for"`
	Status         string     `json:"status"`
	Sent           bool       `json:"sent"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
	Suppressed     bool       `json:"suppressed"`
	SuppressedAt   *time.Time `json:"suppressed_at,omitempty"`
	Attempts       int        `json:"attempts"`
	NextAttemptAt  *time.Time `json:"next_attempt_at,omitempty"`
	LastError      *string    `json:"last_error,omitempty"`
	Confirmed      bool       `json:"confirmed"`
	ConfirmedBy    *string    `json:"confirmed_by,omitempty"`
	ConfirmedAt    *time.Time `json:"confirmed_at,omitempty"`
	NotificationID *uuid.UUID `json:"notification_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

type ListRemindersResponseDTO struct {
	Reminders []ReminderDTO `json:"reminders"`
}

type UpcomingCourtDatesResponseDTO struct {
	WindowDays int                        `json:"window_days"`
	CourtDates []domain.UpcomingCourtDate `json:"court_dates"`
}

type OverdueCourtDatesResponseDTO struct {
	CourtDates []domain.OverdueCourtDate `json:"court_dates"`
}

type DispatchResponseDTO struct {
	app.DispatchSummary
}

func toReminderDTO(r *domain.Reminder) ReminderDTO {
	return ReminderDTO{
		ID:             r.ID,
		CourtDateID:    r.CourtDateID,
		Kind:           string(r.Kind),
		Priority:       string(r.Priority()),
		ScheduledFor:   r.ScheduledFor,
		Status:         r.Status(),
		Sent:           r.Sent,
		SentAt:         r.SentAt,
		Suppressed:     r.Suppressed,
		SuppressedAt:   r.SuppressedAt,
		Attempts:       r.Attempts,
		NextAttemptAt:  r.NextAttemptAt,
		LastError:      r.LastError,
		Confirmed:      r.Confirmed,
		ConfirmedBy:    r.ConfirmedBy,
		ConfirmedAt:    r.ConfirmedAt,
		NotificationID: r.NotificationID,
		CreatedAt:      r.CreatedAt,
	}
}

func toReminderDTOs(rs []*domain.Reminder) []ReminderDTO {
	out := make([]ReminderDTO, 0, len(rs))
	for _, r := range rs {
		out = append(out, toReminderDTO(r))
	}
	return out
}
