package email

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/textproto"
	"regexp"
	"strconv"

	"github.com/ilindan-dev/notification-engine/internal/config"
	"github.com/ilindan-dev/notification-engine/internal/domain/apperr"
	"github.com/ilindan-dev/notification-engine/internal/notifiers"
	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"
)

const smtpProvider = "smtp"

var _ notifiers.EmailTransport = (*SMTPTransport)(nil)

// SMTPTransport submits messages to an SMTP relay with gomail.
type SMTPTransport struct {
	dialer *gomail.Dialer
	logger zerolog.Logger
}

// NewSMTPTransport creates a new instance of SMTPTransport.
func NewSMTPTransport(cfg config.EmailConfig, logger *zerolog.Logger) *SMTPTransport {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	if cfg.SSL {
		d.SSL = true
	}
	return &SMTPTransport{
		dialer: d,
		logger: logger.With().Str("component", "smtp_transport").Logger(),
	}
}

func (t *SMTPTransport) Name() string { return smtpProvider }

// Send dials, authenticates and submits one message. gomail has no context support,
// so the call is abandoned, not interrupted, when ctx expires.
func (t *SMTPTransport) Send(ctx context.Context, msg *notifiers.EmailMessage) (*notifiers.EmailReceipt, error) {
	m, id := buildMessage(msg)

	done := make(chan error, 1)
	go func() { done <- t.deliver(m) }()

	select {
	case <-ctx.Done():
		t.logger.Warn().Str("message_id", id).Msg("smtp submission abandoned on context expiry")
		return nil, apperr.Transient(smtpProvider, "ETIMEDOUT", ctx.Err())
	case err := <-done:
		if err != nil {
			return nil, err
		}
	}

	return &notifiers.EmailReceipt{MessageID: id, Accepted: []string{msg.To}}, nil
}

func (t *SMTPTransport) deliver(m *gomail.Message) error {
	sc, err := t.dialer.Dial()
	if err != nil {
		return classifySMTPError(err)
	}
	defer sc.Close()

	if err := gomail.Send(sc, m); err != nil {
		return classifySMTPError(err)
	}
	return nil
}

// gomail flattens send-phase errors into text, so the reply code is recovered from the message.
var replyCodeRe = regexp.MustCompile(`\b([45]\d\d)[ -]`)

// classifySMTPError maps dial, TLS, auth and reply errors onto permanent or transient kinds.
func classifySMTPError(err error) *apperr.ProviderError {
	var (
		tpErr       *textproto.Error
		netErr      net.Error
		unknownCA   x509.UnknownAuthorityError
		hostnameErr x509.HostnameError
		certErr     *tls.CertificateVerificationError
	)
	switch {
	case errors.As(err, &tpErr):
		return fromReplyCode(tpErr.Code, err)
	case errors.As(err, &unknownCA), errors.As(err, &hostnameErr), errors.As(err, &certErr):
		return apperr.Permanent(smtpProvider, "ETLS", err)
	case errors.Is(err, context.DeadlineExceeded):
		return apperr.Transient(smtpProvider, "ETIMEDOUT", err)
	case errors.As(err, &netErr) && netErr.Timeout():
		return apperr.Transient(smtpProvider, "ETIMEDOUT", err)
	case errors.As(err, &netErr):
		return apperr.Transient(smtpProvider, "ECONNECTION", err)
	}

	// net/smtp refuses to send credentials over plain text. That is a configuration problem.
	if err.Error() == "unencrypted connection" {
		return apperr.Permanent(smtpProvider, "EAUTH", err)
	}
	if m := replyCodeRe.FindStringSubmatch(err.Error()); m != nil {
		code, _ := strconv.Atoi(m[1])
		return fromReplyCode(code, err)
	}
	return apperr.Transient(smtpProvider, "EUNKNOWN", err)
}

func fromReplyCode(code int, err error) *apperr.ProviderError {
	switch {
	case code == 530 || code == 534 || code == 535 || code == 538:
		return apperr.Permanent(smtpProvider, "EAUTH", err)
	case code == 550 || code == 551 || code == 553:
		return apperr.Permanent(smtpProvider, "EENVELOPE", err)
	case code >= 500:
		return apperr.Permanent(smtpProvider, fmt.Sprintf("SMTP%d", code), err)
	default:
		return apperr.Transient(smtpProvider, fmt.Sprintf("SMTP%d", code), err)
	}
}
