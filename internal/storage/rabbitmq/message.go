package rabbitmq

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ilindan-dev/notification-engine/internal/domain/model"
)

// NotificationMessage is the wire form of a notification on the dispatch queue.
type NotificationMessage struct {
	ID           string            `json:"id"`
	UserID       string            `json:"user_id"`
	Channel      string            `json:"channel"`
	Recipient    string            `json:"recipient"`
	Subject      string            `json:"subject,omitempty"`
	Message      string            `json:"message,omitempty"`
	TemplateID   string            `json:"template_id,omitempty"`
	TemplateData map[string]string `json:"template_data,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

// TokenResult is the wire form of a per-token push result.
type TokenResult struct {
	Token     string `json:"token"`
	MessageID string `json:"message_id,omitempty"`
	Error     string `json:"error,omitempty"`
	Permanent bool   `json:"permanent,omitempty"`
}

// OutcomeMessage is the wire form of a dispatch outcome on the outcomes exchange.
type OutcomeMessage struct {
	NotificationID    string        `json:"notification_id"`
	UserID            string        `json:"user_id"`
	Channel           string        `json:"channel"`
	Status            string        `json:"status"`
	Result            string        `json:"result"`
	ProviderMessageID string        `json:"provider_message_id,omitempty"`
	Tokens            []TokenResult `json:"tokens,omitempty"`
	SentAt            *time.Time    `json:"sent_at,omitempty"`
	ErrorKind         string        `json:"error_kind,omitempty"`
	Error             string        `json:"error,omitempty"`
	Retryable         bool          `json:"retryable"`
}

// EncodeNotification marshals n for the dispatch queue.
func EncodeNotification(n *model.Notification) ([]byte, error) {
	return json.Marshal(NotificationMessage{
		ID:           n.ID,
		UserID:       n.UserID,
		Channel:      string(n.Channel),
		Recipient:    n.Recipient,
		Subject:      n.Subject,
		Message:      n.Message,
		TemplateID:   n.TemplateID,
		TemplateData: n.TemplateData,
		CreatedAt:    n.CreatedAt,
	})
}

// DecodeNotification parses a dispatch queue body into a pending notification.
// Shape is checked here; channel and recipient semantics are left to the dispatcher.
func DecodeNotification(body []byte) (*model.Notification, error) {
	var msg NotificationMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, fmt.Errorf("malformed notification message: %w", err)
	}
	if msg.ID == "" {
		return nil, fmt.Errorf("malformed notification message: id is required")
	}
	return &model.Notification{
		ID:           msg.ID,
		UserID:       msg.UserID,
		Channel:      model.Channel(msg.Channel),
		Recipient:    msg.Recipient,
		Subject:      msg.Subject,
		Message:      msg.Message,
		Status:       model.StatusPending,
		TemplateID:   msg.TemplateID,
		TemplateData: msg.TemplateData,
		CreatedAt:    msg.CreatedAt,
	}, nil
}

// EncodeOutcome marshals o for the outcomes exchange.
func EncodeOutcome(o *model.Outcome) ([]byte, error) {
	msg := OutcomeMessage{
		NotificationID:    o.NotificationID,
		UserID:            o.UserID,
		Channel:           string(o.Channel),
		Status:            string(o.Status),
		Result:            string(o.Result),
		ProviderMessageID: o.ProviderMessageID,
		SentAt:            o.SentAt,
		ErrorKind:         o.ErrorKind,
		Error:             o.Error,
		Retryable:         o.ErrorKind == "transient",
	}
	for _, t := range o.Tokens {
		msg.Tokens = append(msg.Tokens, TokenResult(t))
	}
	return json.Marshal(msg)
}
