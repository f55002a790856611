package notifiers

import (
	"context"

	"github.com/ilindan-dev/notification-engine/internal/domain/model"
)

// Notifier is a channel adapter. It validates a rendered notification, builds the
// provider payload, submits it and classifies the result.
type Notifier interface {
	// Channel is the single channel this adapter serves.
	Channel() model.Channel
	// Send dispatches the notification. The outcome is non-nil whenever n is non-nil,
	// and err carries the apperr classification of any failure.
	Send(ctx context.Context, n *model.Notification) (*model.Outcome, error)
}

// EmailMessage is what an EmailTransport submits.
type EmailMessage struct {
	FromAddress string
	FromName    string
	To          string
	Subject     string
	HTML        string
	Text        string
	Headers     map[string]string
}

// EmailReceipt is the provider answer for an accepted message.
type EmailReceipt struct {
	MessageID string
	Accepted  []string
	Rejected  []string
}

// EmailTransport submits a message to a mail provider.
type EmailTransport interface {
	Name() string
	Send(ctx context.Context, msg *EmailMessage) (*EmailReceipt, error)
}

// PushPayload is the provider-neutral push message.
type PushPayload struct {
	Title       string
	Body        string
	Priority    Priority
	TTL         int // seconds
	CollapseKey string
	Category    string
	Sound       string
	Badge       *int
	Data        map[string]string
}

// PushDelivery is a token the gateway accepted.
type PushDelivery struct {
	Token     string
	MessageID string
}

// PushFailure is a token the gateway rejected.
type PushFailure struct {
	Token string
	Err   error
	// Permanent marks tokens that will never succeed, e.g. unregistered devices.
	Permanent bool
}

// PushResponse enumerates per-token results of a single gateway call.
type PushResponse struct {
	Success []PushDelivery
	Failure []PushFailure
}

// PushGateway submits one payload to a list of device tokens.
type PushGateway interface {
	Name() string
	Send(ctx context.Context, tokens []string, payload *PushPayload) (*PushResponse, error)
}

// SMSMeta correlates an SMS with the notification that produced it.
type SMSMeta struct {
	NotificationID string
	UserID         string
	TemplateID     string
}

// SMSMessage is what an SMSGateway submits.
type SMSMessage struct {
	To   string
	From string
	Body string
	Meta SMSMeta
}

// SMSReceipt is the provider answer for an accepted message.
type SMSReceipt struct {
	SID    string
	Status string
}

// SMSGateway submits a text message to a carrier gateway.
type SMSGateway interface {
	Name() string
	Send(ctx context.Context, msg *SMSMessage) (*SMSReceipt, error)
}
