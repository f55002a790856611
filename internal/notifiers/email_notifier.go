package notifiers

import (
	"bytes"
	"context"
	"html/template"
	"net/mail"
	"strings"
	"time"

	"github.com/ilindan-dev/notification-engine/internal/domain/apperr"
	"github.com/ilindan-dev/notification-engine/internal/domain/model"
	"github.com/rs/zerolog"
)

// Correlation headers attached to every outgoing email.
const (
	HeaderNotificationID = "X-Notification-ID"
	HeaderUserID         = "X-User-ID"
	HeaderTemplateID     = "X-Template-ID"
)

var htmlBodyTemplate = template.Must(template.New("email").Parse(
	`<!DOCTYPE html><html><head><meta charset="UTF-8"><title>{{.Subject}}</title></head>` +
		`<body>{{range .Lines}}<p>{{.}}</p>{{end}}</body></html>`))

// EmailOptions configures the sender identity and the per-call timeout.
type EmailOptions struct {
	FromAddress string
	FromName    string
	Timeout     time.Duration
}

// EmailNotifier sends notifications through an EmailTransport.
type EmailNotifier struct {
	transport EmailTransport
	opts      EmailOptions
	now       func() time.Time
	logger    zerolog.Logger
}

var _ Notifier = (*EmailNotifier)(nil)

// NewEmailNotifier creates a new instance of EmailNotifier.
func NewEmailNotifier(transport EmailTransport, opts EmailOptions, logger *zerolog.Logger) *EmailNotifier {
	return &EmailNotifier{
		transport: transport,
		opts:      opts,
		now:       time.Now,
		logger:    logger.With().Str("component", "email_notifier").Str("provider", transport.Name()).Logger(),
	}
}

func (n *EmailNotifier) Channel() model.Channel { return model.ChannelEmail }

// Send implements the Notifier interface for email.
func (n *EmailNotifier) Send(ctx context.Context, notification *model.Notification) (*model.Outcome, error) {
	if notification.Channel != model.ChannelEmail {
		err := channelMismatch(model.ChannelEmail, notification)
		return model.Failed(notification, apperr.KindValidation, err), err
	}
	if !ValidEmail(notification.Recipient) {
		err := apperr.WrapValidation("recipient", "invalid email address", ErrInvalidEmail)
		n.logger.Warn().Str("notification_id", notification.ID).Str("recipient", notification.Recipient).Msg("rejected email recipient")
		return model.Failed(notification, apperr.KindValidation, err), err
	}

	msg, err := n.buildMessage(notification)
	if err != nil {
		return model.Failed(notification, apperr.KindInternal, err), err
	}

	if n.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.opts.Timeout)
		defer cancel()
	}

	receipt, err := n.transport.Send(ctx, msg)
	if err != nil {
		pErr := normalizeProviderError(n.transport.Name(), err)
		n.logger.Error().Err(pErr).Str("notification_id", notification.ID).Str("kind", string(pErr.Kind)).Msg("failed to send email")
		return model.Failed(notification, string(pErr.Kind), pErr), pErr
	}
	for _, rejected := range receipt.Rejected {
		if strings.EqualFold(rejected, notification.Recipient) {
			pErr := &apperr.ProviderError{
				Provider: n.transport.Name(),
				Kind:     apperr.KindPermanent,
				Code:     "EENVELOPE",
				Message:  "recipient rejected by provider",
			}
			n.logger.Error().Str("notification_id", notification.ID).Str("recipient", rejected).Msg("email recipient rejected")
			return model.Failed(notification, string(pErr.Kind), pErr), pErr
		}
	}

	n.logger.Info().
		Str("notification_id", notification.ID).
		Str("recipient", notification.Recipient).
		Str("message_id", receipt.MessageID).
		Msg("email sent successfully")
	return model.Succeeded(notification, receipt.MessageID, n.now().UTC()), nil
}

func (n *EmailNotifier) buildMessage(notification *model.Notification) (*EmailMessage, error) {
	htmlBody, err := renderHTML(notification.Subject, notification.Message)
	if err != nil {
		return nil, err
	}

	headers := map[string]string{
		HeaderNotificationID: notification.ID,
		HeaderUserID:         notification.UserID,
	}
	if notification.TemplateID != "" {
		headers[HeaderTemplateID] = notification.TemplateID
	}

	return &EmailMessage{
		FromAddress: n.opts.FromAddress,
		FromName:    n.opts.FromName,
		To:          notification.Recipient,
		Subject:     notification.Subject,
		HTML:        htmlBody,
		Text:        notification.Message,
		Headers:     headers,
	}, nil
}

// renderHTML escapes the plain body and turns each line into a paragraph.
func renderHTML(subject, body string) (string, error) {
	var buf bytes.Buffer
	err := htmlBodyTemplate.Execute(&buf, struct {
		Subject string
		Lines   []string
	}{subject, strings.Split(body, "\n")})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ValidEmail reports whether s is a bare local-part@domain address.
func ValidEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Name != "" || addr.Address != s {
		return false
	}
	at := strings.LastIndex(s, "@")
	return at > 0 && at < len(s)-1
}
