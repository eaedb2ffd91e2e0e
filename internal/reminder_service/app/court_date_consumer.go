package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/bondtrack/golang_services/internal/platform/messagebroker"
	"github.com/bondtrack/golang_services/internal/reminder_service/domain"
)

const (
	// SubjectCourtDateEvents is published by the case-management flows.
	SubjectCourtDateEvents = "court_dates.events"
	// ConsumerQueueGroup load-balances events across service replicas.
	ConsumerQueueGroup = "reminder-service"

	eventHandleTimeout = 30 * time.Second
)

// Court date event types that trigger (re)scheduling.
const (
	EventCourtDateScheduled   = "scheduled"
	EventCourtDateRescheduled = "rescheduled"
	EventCourtDateUpdated     = "updated"
)

// CourtDateEvent is the payload on SubjectCourtDateEvents.
type CourtDateEvent struct {
	CourtDateID uuid.UUID `json:"court_date_id"`
	Type        string    `json:"type"`
}

// CourtDateEventConsumer schedules reminders when court dates are created or changed.
type CourtDateEventConsumer struct {
	subscriber messagebroker.Subscriber
	courtDates domain.CourtDateRepository
	scheduler  *Scheduler
	logger     *slog.Logger
}

// NewCourtDateEventConsumer creates a consumer.
func NewCourtDateEventConsumer(sub messagebroker.Subscriber, courtDates domain.CourtDateRepository, scheduler *Scheduler, logger *slog.Logger) *CourtDateEventConsumer {
	return &CourtDateEventConsumer{
		subscriber: sub,
		courtDates: courtDates,
		scheduler:  scheduler,
		logger:     logger.With("component", "court_date_consumer"),
	}
}

// Start subscribes and blocks until ctx is done.
func (c *CourtDateEventConsumer) Start(ctx context.Context) error {
	_, err := c.subscriber.Subscribe(ctx, SubjectCourtDateEvents, ConsumerQueueGroup, func(msg messagebroker.Message) {
		hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), eventHandleTimeout)
		defer cancel()
		if err := c.HandleMessage(hctx, msg); err != nil {
			c.logger.ErrorContext(hctx, "Failed to handle court date event", "subject", msg.Subject, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", SubjectCourtDateEvents, err)
	}
	<-ctx.Done()
	c.logger.InfoContext(ctx, "Court date consumer stopping")
	return nil
}

// HandleMessage decodes one event and brings its court date's reminders in
// line with the stored date, moving them when the date was rescheduled.
// Malformed events and unknown court dates are dropped without error.
func (c *CourtDateEventConsumer) HandleMessage(ctx context.Context, msg messagebroker.Message) error {
	var ev CourtDateEvent
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		courtDateEventsCounter.WithLabelValues("unknown", "malformed").Inc()
		c.logger.WarnContext(ctx, "Dropping malformed court date event", "error", err, "data", string(msg.Data))
		return nil
	}

	switch ev.Type {
	case EventCourtDateScheduled, EventCourtDateRescheduled, EventCourtDateUpdated:
	default:
		courtDateEventsCounter.WithLabelValues("unknown", "ignored").Inc()
		c.logger.WarnContext(ctx, "Ignoring court date event with unknown type", "type", ev.Type, "court_date_id", ev.CourtDateID)
		return nil
	}

	cd, err := c.courtDates.GetByID(ctx, ev.CourtDateID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			courtDateEventsCounter.WithLabelValues(ev.Type, "not_found").Inc()
			c.logger.WarnContext(ctx, "Court date from event not found", "court_date_id", ev.CourtDateID)
			return nil
		}
		courtDateEventsCounter.WithLabelValues(ev.Type, "error").Inc()
		return fmt.Errorf("load court date %s: %w", ev.CourtDateID, err)
	}
	if cd.Completed {
		courtDateEventsCounter.WithLabelValues(ev.Type, "completed").Inc()
		return nil
	}

	written, err := c.scheduler.ScheduleReminders(ctx, cd)
	if err != nil {
		courtDateEventsCounter.WithLabelValues(ev.Type, "error").Inc()
		return err
	}
	courtDateEventsCounter.WithLabelValues(ev.Type, "ok").Inc()
	c.logger.InfoContext(ctx, "Handled court date event", "type", ev.Type, "court_date_id", cd.ID, "reminders_written", len(written))
	return nil
}
