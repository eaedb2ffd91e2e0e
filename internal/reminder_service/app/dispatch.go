package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bondtrack/golang_services/internal/platform/messagebroker"
	"github.com/bondtrack/golang_services/internal/reminder_service/domain"
)

// SubjectReminderSent carries a ReminderSentEvent after each successful dispatch.
const SubjectReminderSent = "reminders.sent"

const (
	defaultDispatchBatchSize = 100
	defaultRetryBackoff      = time.Minute
	defaultMaxRetryBackoff   = time.Hour
)

// ReminderSentEvent is published on SubjectReminderSent.
type ReminderSentEvent struct {
	ReminderID     uuid.UUID           `json:"reminder_id"`
	CourtDateID    uuid.UUID           `json:"court_date_id"`
	Kind           domain.ReminderKind `json:"kind"`
	Priority       domain.Priority     `json:"priority"`
	NotificationID uuid.UUID           `json:"notification_id"`
	SentAt         time.Time           `json:"sent_at"`
}

// DispatchConfig holds configuration for the dispatch pass.
type DispatchConfig struct {
	BatchSize int `mapstructure:"REMINDER_DISPATCH_BATCH_SIZE"`
	// RetryBackoff is the wait after the first failed attempt; it doubles per
	// further failure up to MaxRetryBackoff.
	RetryBackoff    time.Duration `mapstructure:"REMINDER_RETRY_BACKOFF"`
	MaxRetryBackoff time.Duration `mapstructure:"REMINDER_RETRY_MAX_BACKOFF"`
}

// backoff is the wait before retrying a reminder that has already failed
// attempts times.
func (c DispatchConfig) backoff(attempts int) time.Duration {
	d := c.RetryBackoff
	for i := 0; i < attempts && d < c.MaxRetryBackoff; i++ {
		d *= 2
	}
	if d > c.MaxRetryBackoff {
		d = c.MaxRetryBackoff
	}
	return d
}

// DispatchSummary counts the outcome of one pass.
type DispatchSummary struct {
	Due        int `json:"due"`
	Sent       int `json:"sent"`
	Failed     int `json:"failed"`
	Suppressed int `json:"suppressed"`
}

// DispatchPass sends every due, unsent reminder through the dispatcher.
type DispatchPass struct {
	reminders  domain.ReminderRepository
	courtDates domain.CourtDateRepository
	clients    domain.ClientRepository
	dispatcher domain.Dispatcher
	events     messagebroker.Publisher // optional
	logger     *slog.Logger
	config     DispatchConfig
	now        func() time.Time
}

// NewDispatchPass creates a DispatchPass. events may be nil.
func NewDispatchPass(
	reminders domain.ReminderRepository,
	courtDates domain.CourtDateRepository,
	clients domain.ClientRepository,
	dispatcher domain.Dispatcher,
	events messagebroker.Publisher,
	logger *slog.Logger,
	cfg DispatchConfig,
) *DispatchPass {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultDispatchBatchSize
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = defaultRetryBackoff
	}
	if cfg.MaxRetryBackoff < cfg.RetryBackoff {
		cfg.MaxRetryBackoff = max(defaultMaxRetryBackoff, cfg.RetryBackoff)
	}
	return &DispatchPass{
		reminders:  reminders,
		courtDates: courtDates,
		clients:    clients,
		dispatcher: dispatcher,
		events:     events,
		logger:     logger.With("component", "dispatch_pass"),
		config:     cfg,
		now:        time.Now,
	}
}

// WithClock overrides the time source.
func (p *DispatchPass) WithClock(now func() time.Time) *DispatchPass {
	p.now = now
	return p
}

type dispatchOutcome string

const (
	outcomeSent          dispatchOutcome = "sent"
	outcomeFailed        dispatchOutcome = "failed"
	outcomeSuppressed    dispatchOutcome = "suppressed"
	outcomeErrorMarkSent dispatchOutcome = "error_mark_sent"
	outcomeErrorSuppress dispatchOutcome = "error_suppress"
)

// ProcessPendingReminders dispatches due reminders, most urgent first. A
// failure on one reminder is logged, counted and recorded as an attempt, and
// the pass moves on; the reminder stays unsent and is retried after its
// backoff. Reminders that have never failed are fetched ahead of failing ones,
// so a backlog of undeliverable reminders cannot starve fresh ones. Only
// failing to list due reminders, or ctx ending mid-pass, returns an error.
func (p *DispatchPass) ProcessPendingReminders(ctx context.Context) (DispatchSummary, error) {
	var sum DispatchSummary
	timer := prometheus.NewTimer(dispatchPassDurationHist)
	defer timer.ObserveDuration()

	now := p.now()
	due, err := p.reminders.ListDue(ctx, now, p.config.BatchSize)
	if err != nil {
		p.logger.ErrorContext(ctx, "Failed to list due reminders", "error", err)
		return sum, fmt.Errorf("list due reminders: %w", err)
	}
	sum.Due = len(due)
	if len(due) == 0 {
		p.logger.DebugContext(ctx, "No due reminders")
		return sum, nil
	}

	sort.SliceStable(due, func(i, j int) bool {
		pi, pj := due[i].Priority().Rank(), due[j].Priority().Rank()
		if pi != pj {
			return pi > pj
		}
		return due[i].ScheduledFor.Before(due[j].ScheduledFor)
	})

	p.logger.InfoContext(ctx, "Dispatching due reminders", "count", len(due))
	for _, r := range due {
		if err := ctx.Err(); err != nil {
			p.logger.WarnContext(ctx, "Dispatch pass interrupted", "error", err, "remaining", sum.Due-sum.Sent-sum.Failed-sum.Suppressed)
			return sum, err
		}

		t := prometheus.NewTimer(dispatchDurationHist.WithLabelValues(string(r.Kind)))
		outcome := p.dispatchOne(ctx, r, now)
		t.ObserveDuration()
		dispatchCounter.WithLabelValues(string(r.Kind), string(outcome)).Inc()

		switch outcome {
		case outcomeSent:
			sum.Sent++
		case outcomeSuppressed:
			sum.Suppressed++
		default:
			sum.Failed++
		}
	}

	p.logger.InfoContext(ctx, "Dispatch pass finished", "due", sum.Due, "sent", sum.Sent, "failed", sum.Failed, "suppressed", sum.Suppressed)
	return sum, nil
}

func (p *DispatchPass) dispatchOne(ctx context.Context, r *domain.Reminder, now time.Time) dispatchOutcome {
	log := p.logger.With("reminder_id", r.ID, "court_date_id", r.CourtDateID, "kind", r.Kind)

	cd, err := p.courtDates.GetByID(ctx, r.CourtDateID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		log.WarnContext(ctx, "Court date no longer exists, suppressing reminder")
		return p.suppress(ctx, log, r)
	case err != nil:
		log.ErrorContext(ctx, "Failed to load court date", "error", err)
		return p.fail(ctx, log, r, now, outcomeFailed, err)
	case cd.Completed:
		log.InfoContext(ctx, "Court date completed, suppressing reminder")
		return p.suppress(ctx, log, r)
	case !cd.IsScheduled() || !cd.ScheduledAt.After(now):
		log.WarnContext(ctx, "Court date is unscheduled or already past, suppressing reminder", "scheduled_at", cd.ScheduledAt)
		return p.suppress(ctx, log, r)
	}

	client, err := p.clients.GetByID(ctx, cd.ClientID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to resolve client for reminder", "client_id", cd.ClientID, "error", err)
		return p.fail(ctx, log, r, now, outcomeFailed, err)
	}

	notificationID, err := p.dispatcher.Send(ctx, r, cd, client)
	if err != nil {
		log.ErrorContext(ctx, "Reminder dispatch failed, will retry after backoff", "attempts", r.Attempts+1, "error", err)
		return p.fail(ctx, log, r, now, outcomeFailed, err)
	}

	sentAt := p.now()
	if err := p.reminders.MarkSent(ctx, r.ID, &notificationID, sentAt); err != nil {
		// The notification went out; the backoff delays a possible resend.
		log.ErrorContext(ctx, "Failed to mark reminder sent", "notification_id", notificationID, "error", err)
		return p.fail(ctx, log, r, now, outcomeErrorMarkSent, err)
	}
	r.Sent = true
	r.SentAt = &sentAt
	r.NotificationID = &notificationID

	p.publishSent(ctx, log, r, notificationID, sentAt)
	log.InfoContext(ctx, "Reminder sent", "notification_id", notificationID, "priority", r.Priority())
	return outcomeSent
}

// suppress retires r without sending it. sent stays false.
func (p *DispatchPass) suppress(ctx context.Context, log *slog.Logger, r *domain.Reminder) dispatchOutcome {
	at := p.now()
	if err := p.reminders.Suppress(ctx, r.ID, at); err != nil {
		log.ErrorContext(ctx, "Failed to suppress reminder", "error", err)
		return outcomeErrorSuppress
	}
	r.Suppressed = true
	r.SuppressedAt = &at
	return outcomeSuppressed
}

// fail records a failed attempt on r and schedules its next try.
func (p *DispatchPass) fail(ctx context.Context, log *slog.Logger, r *domain.Reminder, now time.Time, outcome dispatchOutcome, cause error) dispatchOutcome {
	next := now.Add(p.config.backoff(r.Attempts))
	if err := p.reminders.RecordAttempt(ctx, r.ID, now, next, cause.Error()); err != nil {
		log.ErrorContext(ctx, "Failed to record dispatch attempt", "error", err)
		return outcome
	}
	r.Attempts++
	r.LastAttemptAt = &now
	r.NextAttemptAt = &next
	msg := cause.Error()
	r.LastError = &msg
	return outcome
}

func (p *DispatchPass) publishSent(ctx context.Context, log *slog.Logger, r *domain.Reminder, notificationID uuid.UUID, sentAt time.Time) {
	if p.events == nil {
		return
	}
	data, err := json.Marshal(ReminderSentEvent{
		ReminderID:     r.ID,
		CourtDateID:    r.CourtDateID,
		Kind:           r.Kind,
		Priority:       r.Priority(),
		NotificationID: notificationID,
		SentAt:         sentAt,
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to marshal reminder sent event", "error", err)
		return
	}
	if err := p.events.Publish(ctx, SubjectReminderSent, data); err != nil {
		log.WarnContext(ctx, "Failed to publish reminder sent event", "error", err)
	}
}

// DispatchWorker runs the dispatch pass on a fixed interval.
type DispatchWorker struct {
	pass     *DispatchPass
	interval time.Duration
	logger   *slog.Logger
}

// NewDispatchWorker creates a worker; a non-positive interval means one minute.
func NewDispatchWorker(pass *DispatchPass, interval time.Duration, logger *slog.Logger) *DispatchWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	return &DispatchWorker{pass: pass, interval: interval, logger: logger.With("component", "dispatch_worker")}
}

// Run executes one pass immediately and then one per tick until ctx is done.
// Pass errors are logged; the loop keeps going so a transient store outage
// does not stop delivery.
func (w *DispatchWorker) Run(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Starting dispatch worker", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if _, err := w.pass.ProcessPendingReminders(ctx); err != nil && ctx.Err() == nil {
			w.logger.ErrorContext(ctx, "Dispatch pass failed", "error", err)
		}
		select {
		case <-ctx.Done():
			w.logger.InfoContext(ctx, "Dispatch worker stopping", "reason", ctx.Err())
			return nil
		case <-ticker.C:
		}
	}
}
