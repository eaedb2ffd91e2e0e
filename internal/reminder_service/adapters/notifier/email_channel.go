package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/bondtrack/golang_services/internal/platform/messagebroker"
	"github.com/bondtrack/golang_services/internal/reminder_service/domain"
)

const (
	ChannelEmail = "email"

	// SubjectEmailSend is consumed by the mail sender.
	SubjectEmailSend = "notifications.email.send"
)

// EmailSendRequest is the payload published on SubjectEmailSend.
type EmailSendRequest struct {
	NotificationID uuid.UUID       `json:"notification_id"`
	To             string          `json:"to"`
	Subject        string          `json:"subject"`
	Body           string          `json:"body"`
	Priority       domain.Priority `json:"priority"`
}

// NATSEmailChannel hands email off to the mail sender over the broker.
// Delivery counts as done once the publish succeeds.
type NATSEmailChannel struct {
	publisher messagebroker.Publisher
}

func NewNATSEmailChannel(publisher messagebroker.Publisher) *NATSEmailChannel {
	return &NATSEmailChannel{publisher: publisher}
}

func (c *NATSEmailChannel) Name() string { return ChannelEmail }

func (c *NATSEmailChannel) Address(client *domain.Client) string { return client.Email }

func (c *NATSEmailChannel) Deliver(ctx context.Context, msg OutboundMessage) error {
	data, err := json.Marshal(EmailSendRequest{
		NotificationID: msg.NotificationID,
		To:             msg.To,
		Subject:        msg.Subject,
		Body:           msg.Body,
		Priority:       msg.Priority,
	})
	if err != nil {
		return fmt.Errorf("marshal email request: %w", err)
	}
	if err := c.publisher.Publish(ctx, SubjectEmailSend, data); err != nil {
		return fmt.Errorf("publish email request: %w", err)
	}
	return nil
}
