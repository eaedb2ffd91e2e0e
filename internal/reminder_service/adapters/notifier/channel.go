package notifier

import (
	"context"

	"github.com/google/uuid"

	"github.com/bondtrack/golang_services/internal/reminder_service/domain"
)

// OutboundMessage is a rendered reminder addressed to one recipient.
type OutboundMessage struct {
	NotificationID uuid.UUID
	To             string
	Subject        string
	Body           string
	Priority       domain.Priority
}

// Channel delivers rendered reminders over one medium.
type Channel interface {
	Name() string
	// Address returns the client's address on this channel, or "" when the
	// client cannot be reached through it.
	Address(c *domain.Client) string
	Deliver(ctx context.Context, msg OutboundMessage) error
}
