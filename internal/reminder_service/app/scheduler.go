package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/bondtrack/golang_services/internal/reminder_service/domain"
)

const day = 24 * time.Hour

// Scheduler turns policy candidates into persisted reminders and answers the
// upcoming/overdue court date queries.
type Scheduler struct {
	policy     *Policy
	reminders  domain.ReminderRepository
	courtDates domain.CourtDateRepository
	clients    domain.ClientRepository
	logger     *slog.Logger
	now        func() time.Time
	newID      func() uuid.UUID
}

// NewScheduler creates a Scheduler using the wall clock.
func NewScheduler(
	policy *Policy,
	reminders domain.ReminderRepository,
	courtDates domain.CourtDateRepository,
	clients domain.ClientRepository,
	logger *slog.Logger,
) *Scheduler {
	return &Scheduler{
		policy:     policy,
		reminders:  reminders,
		courtDates: courtDates,
		clients:    clients,
		logger:     logger.With("component", "reminder_scheduler"),
		now:        time.Now,
		newID:      uuid.New,
	}
}

// WithClock overrides the time source.
func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	s.now = now
	return s
}

// ScheduleReminders brings a court date's reminders in line with the policy.
// Missing kinds are created. Unsent reminders whose slot moved because the
// court date was rescheduled are moved to the new slot, or retired
// (suppressed) when the new slot is already past. Sent reminders are never
// touched, and an unsent reminder whose slot did not change is left for the
// dispatch pass even when it is due. A court date without a scheduled instant
// is a no-op with no store calls.
//
// A store failure on one reminder does not stop its siblings; all failures are
// joined into the returned error. The created and moved reminders are
// returned either way.
func (s *Scheduler) ScheduleReminders(ctx context.Context, cd *domain.CourtDate) ([]*domain.Reminder, error) {
	if !cd.IsScheduled() {
		if cd != nil {
			s.logger.DebugContext(ctx, "Court date has no scheduled instant, skipping reminders", "court_date_id", cd.ID)
		}
		return nil, nil
	}

	now := s.now()
	courtAt := *cd.ScheduledAt
	candidates := s.policy.Candidates(courtAt, now)

	existing, err := s.reminders.ListByCourtDate(ctx, cd.ID)
	if err != nil {
		return nil, fmt.Errorf("list reminders for court date %s: %w", cd.ID, err)
	}
	have := make(map[domain.ReminderKind]*domain.Reminder, len(existing))
	for _, r := range existing {
		have[r.Kind] = r
	}

	var (
		written []*domain.Reminder
		errs    []error
		created int
		moved   int
		retired int
	)
	wanted := make(map[domain.ReminderKind]bool, len(candidates))
	for _, c := range candidates {
		wanted[c.Kind] = true
		if r, ok := have[c.Kind]; ok {
			if r.Sent || (!r.Suppressed && r.ScheduledFor.Equal(c.ScheduledFor)) {
				continue
			}
			if err := s.reminders.Reschedule(ctx, r.ID, c.ScheduledFor); err != nil {
				if errors.Is(err, domain.ErrAlreadySent) {
					continue
				}
				scheduleErrorsCounter.Inc()
				s.logger.ErrorContext(ctx, "Failed to reschedule reminder", "court_date_id", cd.ID, "reminder_id", r.ID, "kind", c.Kind, "error", err)
				errs = append(errs, fmt.Errorf("reschedule %s reminder: %w", c.Kind, err))
				continue
			}
			s.logger.InfoContext(ctx, "Reminder moved", "court_date_id", cd.ID, "reminder_id", r.ID, "kind", c.Kind,
				"from", r.ScheduledFor, "to", c.ScheduledFor)
			r.ScheduledFor = c.ScheduledFor
			r.Suppressed, r.SuppressedAt = false, nil
			r.Attempts, r.LastAttemptAt, r.NextAttemptAt, r.LastError = 0, nil, nil, nil
			remindersRescheduledCounter.WithLabelValues(string(c.Kind)).Inc()
			moved++
			written = append(written, r)
			continue
		}

		r := domain.NewReminder(s.newID(), cd.ID, c.Kind, c.ScheduledFor, now)
		if err := s.reminders.Create(ctx, r); err != nil {
			if errors.Is(err, domain.ErrDuplicateReminder) {
				s.logger.DebugContext(ctx, "Reminder already exists", "court_date_id", cd.ID, "kind", c.Kind)
				continue
			}
			scheduleErrorsCounter.Inc()
			s.logger.ErrorContext(ctx, "Failed to create reminder", "court_date_id", cd.ID, "kind", c.Kind, "error", err)
			errs = append(errs, fmt.Errorf("create %s reminder: %w", c.Kind, err))
			continue
		}
		remindersScheduledCounter.WithLabelValues(string(c.Kind)).Inc()
		created++
		written = append(written, r)
	}

	for _, r := range existing {
		if wanted[r.Kind] || !r.Pending() {
			continue
		}
		if r.ScheduledFor.Equal(s.policy.ScheduledFor(courtAt, r.Kind)) {
			// Due but not yet dispatched; the dispatch pass owns it.
			continue
		}
		if err := s.reminders.Suppress(ctx, r.ID, now); err != nil {
			if errors.Is(err, domain.ErrAlreadySent) {
				continue
			}
			scheduleErrorsCounter.Inc()
			s.logger.ErrorContext(ctx, "Failed to retire stale reminder", "court_date_id", cd.ID, "reminder_id", r.ID, "kind", r.Kind, "error", err)
			errs = append(errs, fmt.Errorf("retire %s reminder: %w", r.Kind, err))
			continue
		}
		s.logger.InfoContext(ctx, "Stale reminder retired", "court_date_id", cd.ID, "reminder_id", r.ID, "kind", r.Kind,
			"scheduled_for", r.ScheduledFor)
		r.Suppressed = true
		r.SuppressedAt = &now
		remindersRetiredCounter.WithLabelValues(string(r.Kind)).Inc()
		retired++
	}

	if created+moved+retired > 0 {
		s.logger.InfoContext(ctx, "Reminders scheduled", "court_date_id", cd.ID, "created", created, "moved", moved, "retired", retired)
	} else if len(candidates) == 0 {
		s.logger.DebugContext(ctx, "No future reminder slots for court date", "court_date_id", cd.ID, "scheduled_at", courtAt)
	}
	return written, errors.Join(errs...)
}

// ScheduleAllSummary reports a ScheduleAll run.
type ScheduleAllSummary struct {
	CourtDates int `json:"court_dates"`
	Created    int `json:"created"`
	Failed     int `json:"failed"`
}

// ScheduleAll re-evaluates every future, not-completed court date. Failures
// are isolated per court date.
func (s *Scheduler) ScheduleAll(ctx context.Context) (ScheduleAllSummary, error) {
	var sum ScheduleAllSummary
	all, err := s.courtDates.ListAll(ctx)
	if err != nil {
		return sum, fmt.Errorf("list court dates: %w", err)
	}
	now := s.now()
	for _, cd := range all {
		if !cd.IsScheduled() || cd.Completed || !cd.ScheduledAt.After(now) {
			continue
		}
		sum.CourtDates++
		created, err := s.ScheduleReminders(ctx, cd)
		sum.Created += len(created)
		if err != nil {
			sum.Failed++
		}
	}
	s.logger.InfoContext(ctx, "Schedule-all pass finished", "court_dates", sum.CourtDates, "created", sum.Created, "failed", sum.Failed)
	return sum, nil
}

// ListReminders returns the reminders stored for a court date.
func (s *Scheduler) ListReminders(ctx context.Context, courtDateID uuid.UUID) ([]*domain.Reminder, error) {
	return s.reminders.ListByCourtDate(ctx, courtDateID)
}

// ConfirmReminder records that actor confirmed receipt of a sent reminder.
func (s *Scheduler) ConfirmReminder(ctx context.Context, reminderID uuid.UUID, actor string) (*domain.Reminder, error) {
	r, err := s.reminders.GetByID(ctx, reminderID)
	if err != nil {
		return nil, err
	}
	if !r.Sent {
		return nil, domain.ErrReminderNotSent
	}
	if r.Confirmed {
		return nil, domain.ErrAlreadyConfirmed
	}

	at := s.now()
	if err := s.reminders.MarkConfirmed(ctx, reminderID, actor, at); err != nil {
		return nil, err
	}
	r.Confirmed = true
	r.ConfirmedBy = &actor
	r.ConfirmedAt = &at
	s.logger.InfoContext(ctx, "Reminder confirmed", "reminder_id", reminderID, "actor", actor)
	return r, nil
}

// GetUpcomingCourtDates returns not-completed court dates in
// [now, now+windowDays], enriched with the client, sorted ascending.
func (s *Scheduler) GetUpcomingCourtDates(ctx context.Context, windowDays int) ([]domain.UpcomingCourtDate, error) {
	if windowDays < 0 {
		return nil, domain.ErrInvalidWindow
	}
	all, err := s.courtDates.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list court dates: %w", err)
	}

	now := s.now()
	end := now.Add(time.Duration(windowDays) * day)
	lookup := s.clientLookup()

	out := make([]domain.UpcomingCourtDate, 0)
	for _, cd := range all {
		if !cd.IsScheduled() || cd.Completed {
			continue
		}
		at := *cd.ScheduledAt
		if at.Before(now) || at.After(end) {
			continue
		}
		client, ok := lookup(ctx, cd)
		if !ok {
			continue
		}
		out = append(out, domain.UpcomingCourtDate{
			CourtDate:        *cd,
			ClientName:       client.DisplayName(),
			ClientExternalID: client.ExternalID,
			DaysUntil:        int(math.Ceil(float64(at.Sub(now)) / float64(day))),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ScheduledAt.Before(*out[j].ScheduledAt)
	})
	return out, nil
}

// GetOverdueCourtDates returns every past court date that is not completed,
// however old, sorted oldest first.
func (s *Scheduler) GetOverdueCourtDates(ctx context.Context) ([]domain.OverdueCourtDate, error) {
	all, err := s.courtDates.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list court dates: %w", err)
	}

	now := s.now()
	lookup := s.clientLookup()

	out := make([]domain.OverdueCourtDate, 0)
	for _, cd := range all {
		if !cd.IsScheduled() || cd.Completed || !cd.ScheduledAt.Before(now) {
			continue
		}
		client, ok := lookup(ctx, cd)
		if !ok {
			continue
		}
		overdue := int(math.Floor(float64(now.Sub(*cd.ScheduledAt)) / float64(day)))
		if overdue < 0 {
			overdue = 0
		}
		out = append(out, domain.OverdueCourtDate{
			CourtDate:        *cd,
			ClientName:       client.DisplayName(),
			ClientExternalID: client.ExternalID,
			DaysOverdue:      overdue,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ScheduledAt.Before(*out[j].ScheduledAt)
	})
	return out, nil
}

// clientLookup returns a per-call memoized client resolver. A miss or a
// lookup error omits the court date from the result.
func (s *Scheduler) clientLookup() func(context.Context, *domain.CourtDate) (*domain.Client, bool) {
	cache := make(map[uuid.UUID]*domain.Client)
	return func(ctx context.Context, cd *domain.CourtDate) (*domain.Client, bool) {
		if c, ok := cache[cd.ClientID]; ok {
			return c, c != nil
		}
		c, err := s.clients.GetByID(ctx, cd.ClientID)
		if err != nil || c == nil {
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				s.logger.WarnContext(ctx, "Client lookup failed, omitting court date", "court_date_id", cd.ID, "client_id", cd.ClientID, "error", err)
			} else {
				s.logger.WarnContext(ctx, "Client not found, omitting court date", "court_date_id", cd.ID, "client_id", cd.ClientID)
			}
			cache[cd.ClientID] = nil
			return nil, false
		}
		cache[cd.ClientID] = c
		return c, true
	}
}
