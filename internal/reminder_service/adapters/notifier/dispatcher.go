package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bondtrack/golang_services/internal/reminder_service/domain"
)

// ChannelDispatcher fans a reminder out to every channel the client can be
// reached on and records the attempt as a notification.
type ChannelDispatcher struct {
	channels      []Channel
	notifications domain.NotificationRepository
	loc           *time.Location
	subjectPrefix string
	logger        *slog.Logger
	now           func() time.Time
	newID         func() uuid.UUID
}

var _ domain.Dispatcher = (*ChannelDispatcher)(nil)

func NewChannelDispatcher(notifications domain.NotificationRepository, loc *time.Location, subjectPrefix string, logger *slog.Logger, channels ...Channel) *ChannelDispatcher {
	if loc == nil {
		loc = time.UTC
	}
	return &ChannelDispatcher{
		channels:      channels,
		notifications: notifications,
		loc:           loc,
		subjectPrefix: subjectPrefix,
		logger:        logger.With("component", "channel_dispatcher"),
		now:           time.Now,
		newID:         uuid.New,
	}
}

// WithClock overrides the time source used for notification timestamps.
func (d *ChannelDispatcher) WithClock(now func() time.Time) *ChannelDispatcher {
	d.now = now
	return d
}

func (d *ChannelDispatcher) Send(ctx context.Context, reminder *domain.Reminder, courtDate *domain.CourtDate, client *domain.Client) (uuid.UUID, error) {
	notifID := d.newID()
	subject, body := d.Render(reminder, courtDate, client)

	var (
		delivered []string
		errs      []error
		attempted int
	)
	for _, ch := range d.channels {
		addr := ch.Address(client)
		if addr == "" {
			continue
		}
		attempted++
		err := ch.Deliver(ctx, OutboundMessage{
			NotificationID: notifID,
			To:             addr,
			Subject:        subject,
			Body:           body,
			Priority:       reminder.Priority(),
		})
		if err != nil {
			d.logger.WarnContext(ctx, "Channel delivery failed", "channel", ch.Name(), "reminder_id", reminder.ID, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", ch.Name(), err))
			continue
		}
		delivered = append(delivered, ch.Name())
	}

	if attempted == 0 {
		errs = append(errs, domain.ErrNoChannel)
	}

	n := &domain.Notification{
		ID:         notifID,
		ReminderID: reminder.ID,
		ClientID:   client.ID,
		Priority:   reminder.Priority(),
		Subject:    subject,
		Body:       body,
		Channels:   delivered,
		Status:     domain.NotificationStatusSent,
		CreatedAt:  d.now().UTC(),
	}
	if len(delivered) == 0 {
		msg := errors.Join(errs...).Error()
		n.Status = domain.NotificationStatusFailed
		n.ErrorMessage = &msg
	}

	// A record failure after delivery must not cause a resend, so it is only logged.
	if err := d.notifications.Create(ctx, n); err != nil {
		d.logger.ErrorContext(ctx, "Failed to record notification", "notification_id", notifID, "reminder_id", reminder.ID, "error", err)
	}

	if len(delivered) == 0 {
		return uuid.Nil, fmt.Errorf("%w: %w", domain.ErrDispatchFailed, errors.Join(errs...))
	}
	return notifID, nil
}

// Render builds the subject and body for a reminder. Priority only changes
// the framing, never the facts.
func (d *ChannelDispatcher) Render(reminder *domain.Reminder, courtDate *domain.CourtDate, client *domain.Client) (string, string) {
	when := "soon"
	if courtDate.IsScheduled() {
		when = courtDate.ScheduledAt.In(d.loc).Format("Monday, January 2, 2006 at 3:04 PM MST")
	}

	subject := "Upcoming court date"
	switch reminder.Kind {
	case domain.KindFinal:
		subject = "Court date today"
	case domain.KindFollowup2:
		subject = "Court date tomorrow"
	}
	if d.subjectPrefix != "" {
		subject = d.subjectPrefix + " " + subject
	}

	var b strings.Builder
	b.WriteString(framing(reminder.Priority()))
	b.WriteString(" ")
	if name := client.DisplayName(); name != "" {
		b.WriteString(name)
		b.WriteString(", you")
	} else {
		b.WriteString("You")
	}
	fmt.Fprintf(&b, " have a court date %s on %s", leadTime(reminder.Kind), when)
	if courtDate.Location != "" {
		fmt.Fprintf(&b, " at %s", courtDate.Location)
	}
	if courtDate.CaseNumber != "" {
		fmt.Fprintf(&b, " (case %s)", courtDate.CaseNumber)
	}
	b.WriteString(". Missing court can forfeit your bond. Contact your bail agent with any questions.")
	return subject, b.String()
}

func framing(p domain.Priority) string {
	switch p {
	case domain.PriorityUrgent:
		return "URGENT:"
	case domain.PriorityHigh:
		return "Important:"
	default:
		return "Reminder:"
	}
}

func leadTime(kind domain.ReminderKind) string {
	switch kind {
	case domain.KindFinal:
		return "today"
	case domain.KindFollowup2:
		return "tomorrow"
	default:
		return fmt.Sprintf("in %d days", kind.OffsetDays())
	}
}
