// Package logsink provides transports that log deliveries instead of sending them.
// They back every channel when notifiers run in log_only mode.
package logsink

import (
	"context"

	"github.com/google/uuid"
	"github.com/ilindan-dev/notification-engine/internal/notifiers"
	"github.com/rs/zerolog"
)

const name = "log"

var (
	_ notifiers.EmailTransport = (*EmailTransport)(nil)
	_ notifiers.PushGateway    = (*PushGateway)(nil)
	_ notifiers.SMSGateway     = (*SMSGateway)(nil)
)

// EmailTransport logs outgoing emails.
type EmailTransport struct {
	logger zerolog.Logger
}

func NewEmailTransport(logger *zerolog.Logger) *EmailTransport {
	return &EmailTransport{logger: logger.With().Str("component", "log_email_transport").Logger()}
}

func (t *EmailTransport) Name() string { return name }

func (t *EmailTransport) Send(_ context.Context, msg *notifiers.EmailMessage) (*notifiers.EmailReceipt, error) {
	id := uuid.NewString()
	t.logger.Info().
		Str("message_id", id).
		Str("notification_id", msg.Headers[notifiers.HeaderNotificationID]).
		Str("recipient", msg.To).
		Str("subject", msg.Subject).
		Msg(">>> MOCK SEND: email")
	return &notifiers.EmailReceipt{MessageID: id, Accepted: []string{msg.To}}, nil
}

// PushGateway logs outgoing push payloads and accepts every token.
type PushGateway struct {
	logger zerolog.Logger
}

func NewPushGateway(logger *zerolog.Logger) *PushGateway {
	return &PushGateway{logger: logger.With().Str("component", "log_push_gateway").Logger()}
}

func (g *PushGateway) Name() string { return name }

func (g *PushGateway) Send(_ context.Context, tokens []string, p *notifiers.PushPayload) (*notifiers.PushResponse, error) {
	resp := &notifiers.PushResponse{Success: make([]notifiers.PushDelivery, 0, len(tokens))}
	for _, token := range tokens {
		resp.Success = append(resp.Success, notifiers.PushDelivery{Token: token, MessageID: uuid.NewString()})
	}
	g.logger.Info().
		Str("notification_id", p.Data[notifiers.DataNotificationID]).
		Int("tokens", len(tokens)).
		Str("title", p.Title).
		Str("priority", string(p.Priority)).
		Int("ttl", p.TTL).
		Str("collapse_key", p.CollapseKey).
		Msg(">>> MOCK SEND: push")
	return resp, nil
}

// SMSGateway logs outgoing text messages.
type SMSGateway struct {
	logger zerolog.Logger
}

func NewSMSGateway(logger *zerolog.Logger) *SMSGateway {
	return &SMSGateway{logger: logger.With().Str("component", "log_sms_gateway").Logger()}
}

func (g *SMSGateway) Name() string { return name }

func (g *SMSGateway) Send(_ context.Context, msg *notifiers.SMSMessage) (*notifiers.SMSReceipt, error) {
	sid := uuid.NewString()
	g.logger.Info().
		Str("sid", sid).
		Str("notification_id", msg.Meta.NotificationID).
		Str("recipient", msg.To).
		Str("from", msg.From).
		Int("length", len(msg.Body)).
		Msg(">>> MOCK SEND: sms")
	return &notifiers.SMSReceipt{SID: sid, Status: "logged"}, nil
}
