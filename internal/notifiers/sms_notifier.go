package notifiers

import (
	"context"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ilindan-dev/notification-engine/internal/domain/apperr"
	"github.com/ilindan-dev/notification-engine/internal/domain/model"
	"github.com/rs/zerolog"
)

// DefaultSMSMaxLength is the hard cap of concatenated SMS accepted by carrier gateways.
const DefaultSMSMaxLength = 1600

const truncationSuffix = "..."

// E.164: a plus sign, a non-zero country code digit, 2 to 15 digits in total.
var e164Re = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)

// SMSOptions configures the sender number, the body cap and the per-call timeout.
type SMSOptions struct {
	From      string
	MaxLength int
	Timeout   time.Duration
}

// SMSNotifier sends text messages through an SMSGateway.
type SMSNotifier struct {
	gateway SMSGateway
	opts    SMSOptions
	now     func() time.Time
	logger  zerolog.Logger
}

var _ Notifier = (*SMSNotifier)(nil)

// NewSMSNotifier creates a new instance of SMSNotifier.
func NewSMSNotifier(gateway SMSGateway, opts SMSOptions, logger *zerolog.Logger) *SMSNotifier {
	if opts.MaxLength < len(truncationSuffix)+1 {
		opts.MaxLength = DefaultSMSMaxLength
	}
	return &SMSNotifier{
		gateway: gateway,
		opts:    opts,
		now:     time.Now,
		logger:  logger.With().Str("component", "sms_notifier").Str("provider", gateway.Name()).Logger(),
	}
}

func (n *SMSNotifier) Channel() model.Channel { return model.ChannelSMS }

// Send implements the Notifier interface for SMS. The subject is not sent.
func (n *SMSNotifier) Send(ctx context.Context, notification *model.Notification) (*model.Outcome, error) {
	if notification.Channel != model.ChannelSMS {
		err := channelMismatch(model.ChannelSMS, notification)
		return model.Failed(notification, apperr.KindValidation, err), err
	}

	receipt, err := n.SendSMS(ctx, notification.Recipient, notification.Message, SMSMeta{
		NotificationID: notification.ID,
		UserID:         notification.UserID,
		TemplateID:     notification.TemplateID,
	})
	if err != nil {
		return model.Failed(notification, apperr.KindOf(err), err), err
	}
	return model.Succeeded(notification, receipt.SID, n.now().UTC()), nil
}

// SendSMS validates the number, truncates the body to the configured cap and submits it.
// Every error is either a ValidationError or a ProviderError.
func (n *SMSNotifier) SendSMS(ctx context.Context, to, body string, meta SMSMeta) (*SMSReceipt, error) {
	log := n.logger.With().Str("notification_id", meta.NotificationID).Str("recipient", to).Logger()

	if err := ValidatePhoneNumber(to); err != nil {
		log.Warn().Msg("rejected SMS recipient")
		return nil, err
	}
	if strings.TrimSpace(body) == "" {
		return nil, apperr.NewValidationError("body", "is required")
	}

	truncated := TruncateBody(body, n.opts.MaxLength)
	if truncated != body {
		log.Warn().Int("length", utf8.RuneCountInString(body)).Int("max_length", n.opts.MaxLength).Msg("SMS body truncated")
	}

	if n.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.opts.Timeout)
		defer cancel()
	}

	receipt, err := n.gateway.Send(ctx, &SMSMessage{To: to, From: n.opts.From, Body: truncated, Meta: meta})
	if err != nil {
		pErr := normalizeProviderError(n.gateway.Name(), err)
		log.Error().Err(pErr).Str("kind", string(pErr.Kind)).Msg("failed to send SMS")
		return nil, pErr
	}

	log.Info().Str("sid", receipt.SID).Str("status", receipt.Status).Msg("SMS sent successfully")
	return receipt, nil
}

// ValidatePhoneNumber accepts E.164 numbers only.
func ValidatePhoneNumber(to string) error {
	if !e164Re.MatchString(to) {
		return apperr.WrapValidation("to", "phone number must be in E.164 format", ErrInvalidPhoneNumber)
	}
	return nil
}

// TruncateBody shortens body to at most maxLen characters, ending with "..." when cut.
// Characters are Unicode code points, so multi-byte characters are never split.
func TruncateBody(body string, maxLen int) string {
	if utf8.RuneCountInString(body) <= maxLen {
		return body
	}
	keep := maxLen - utf8.RuneCountInString(truncationSuffix)
	if keep < 0 {
		keep = 0
	}
	runes := []rune(body)
	return string(runes[:keep]) + truncationSuffix
}
