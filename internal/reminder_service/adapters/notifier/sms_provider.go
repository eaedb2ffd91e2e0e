package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/bondtrack/golang_services/internal/reminder_service/domain"
)

const ChannelSMS = "sms"

// HTTPSMSProvider posts reminders to an HTTP SMS gateway that accepts the
// messages/sender/recipients JSON shape with a bearer API key.
type HTTPSMSProvider struct {
	logger     *slog.Logger
	httpClient *http.Client
	apiURL     string
	apiKey     string
	senderID   string
}

func NewHTTPSMSProvider(logger *slog.Logger, apiURL, apiKey, senderID string, httpClient *http.Client) *HTTPSMSProvider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPSMSProvider{
		logger:     logger.With("channel", ChannelSMS),
		httpClient: httpClient,
		apiURL:     apiURL,
		apiKey:     apiKey,
		senderID:   senderID,
	}
}

type smsSendRequest struct {
	Messages []smsMessage `json:"messages"`
}

type smsMessage struct {
	Sender     string   `json:"sender"`
	Body       string   `json:"body"`
	Recipients []string `json:"recipients"`
}

type smsSendResponse struct {
	Messages []struct {
		ID        int64  `json:"id"`
		Recipient string `json:"recipient"`
		Status    int    `json:"status"`
	} `json:"messages"`
	Status  int    `json:"status"`
	Message string `json:"message"`
}

type smsErrorResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

func (p *HTTPSMSProvider) Name() string { return ChannelSMS }

func (p *HTTPSMSProvider) Address(c *domain.Client) string { return c.Phone }

// Deliver sends msg as a single SMS. Any non-2xx response is an error.
func (p *HTTPSMSProvider) Deliver(ctx context.Context, msg OutboundMessage) error {
	reqBytes, err := json.Marshal(smsSendRequest{
		Messages: []smsMessage{{Sender: p.senderID, Body: msg.Body, Recipients: []string{msg.To}}},
	})
	if err != nil {
		return fmt.Errorf("marshal sms request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, bytes.NewReader(reqBytes))
	if err != nil {
		return fmt.Errorf("build sms request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		p.logger.ErrorContext(ctx, "SMS provider request failed", "error", err, "notification_id", msg.NotificationID)
		return fmt.Errorf("send sms: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, 64<<10))
	if err != nil {
		return fmt.Errorf("read sms response (status %d): %w", httpResp.StatusCode, err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		errMsg := fmt.Sprintf("sms provider error: status %d", httpResp.StatusCode)
		var errResp smsErrorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Message != "" {
			errMsg += ", message: " + errResp.Message
		}
		p.logger.WarnContext(ctx, "SMS provider rejected message", "status_code", httpResp.StatusCode, "notification_id", msg.NotificationID)
		return fmt.Errorf("%s", errMsg)
	}

	providerMsgID := ""
	var okResp smsSendResponse
	if err := json.Unmarshal(respBody, &okResp); err != nil {
		p.logger.WarnContext(ctx, "SMS accepted but response body unparsed", "error", err, "notification_id", msg.NotificationID)
	} else if len(okResp.Messages) > 0 {
		providerMsgID = strconv.FormatInt(okResp.Messages[0].ID, 10)
	}
	p.logger.InfoContext(ctx, "SMS sent", "notification_id", msg.NotificationID, "provider_message_id", providerMsgID)
	return nil
}
