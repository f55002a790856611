package notifiers

import (
	"context"
	"errors"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/ilindan-dev/notification-engine/internal/domain/apperr"
	"github.com/ilindan-dev/notification-engine/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func emailNotification(recipient string) *model.Notification {
	n := model.NewNotification("user-42", model.ChannelEmail, recipient)
	n.TemplateID = "payment-confirmation-email"
	n.Subject = "Paid $10"
	n.Message = "Paid $10 to <Acme>\nThanks"
	return n
}

func newEmailNotifier(tr *fakeEmailTransport) *EmailNotifier {
	return NewEmailNotifier(tr, EmailOptions{
		FromAddress: "alerts@bank.example",
		FromName:    "Bank Alerts",
		Timeout:     time.Second,
	}, nopLogger())
}

func TestEmailNotifier_Send(t *testing.T) {
	tr := &fakeEmailTransport{}
	n := emailNotification("ann@example.com")

	outcome, err := newEmailNotifier(tr).Send(context.Background(), n)
	require.NoError(t, err)

	assert.Equal(t, model.StatusSent, outcome.Status)
	assert.Equal(t, model.ResultSuccess, outcome.Result)
	assert.Equal(t, "email-1", outcome.ProviderMessageID)
	require.NotNil(t, outcome.SentAt)

	require.Equal(t, 1, tr.calls())
	msg := tr.sent[0]
	assert.Equal(t, "alerts@bank.example", msg.FromAddress)
	assert.Equal(t, "Bank Alerts", msg.FromName)
	assert.Equal(t, "ann@example.com", msg.To)
	assert.Equal(t, "Paid $10", msg.Subject)
	assert.Equal(t, n.Message, msg.Text)
	assert.Contains(t, msg.HTML, "<p>Paid $10 to &lt;Acme&gt;</p><p>Thanks</p>")
	assert.Equal(t, n.ID, msg.Headers[HeaderNotificationID])
	assert.Equal(t, "user-42", msg.Headers[HeaderUserID])
	assert.Equal(t, "payment-confirmation-email", msg.Headers[HeaderTemplateID])
}

func TestEmailNotifier_ValidationBeforeNetwork(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(n *model.Notification)
		sentinel  error
	}{
		{"wrong channel", func(n *model.Notification) { n.Channel = model.ChannelSMS }, ErrChannelMismatch},
		{"missing at", func(n *model.Notification) { n.Recipient = "ann.example.com" }, ErrInvalidEmail},
		{"empty local part", func(n *model.Notification) { n.Recipient = "@example.com" }, ErrInvalidEmail},
		{"empty domain", func(n *model.Notification) { n.Recipient = "ann@" }, ErrInvalidEmail},
		{"display name", func(n *model.Notification) { n.Recipient = "Ann <ann@example.com>" }, ErrInvalidEmail},
		{"empty", func(n *model.Notification) { n.Recipient = "" }, ErrInvalidEmail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &fakeEmailTransport{}
			n := emailNotification("ann@example.com")
			tt.mutate(n)

			outcome, err := newEmailNotifier(tr).Send(context.Background(), n)

			var vErr *apperr.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.ErrorIs(t, err, tt.sentinel)
			assert.Equal(t, model.StatusFailed, outcome.Status)
			assert.Equal(t, apperr.KindValidation, outcome.ErrorKind)
			assert.Zero(t, tr.calls(), "no network call on validation failure")
		})
	}
}

func TestEmailNotifier_ProviderFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind apperr.Kind
		code string
	}{
		{"classified permanent", apperr.Permanent("smtp", "EAUTH", &textproto.Error{Code: 535, Msg: "bad credentials"}), apperr.KindPermanent, "EAUTH"},
		{"deadline", context.DeadlineExceeded, apperr.KindTransient, "ETIMEDOUT"},
		{"unknown raw error", errors.New("something odd"), apperr.KindTransient, "EUNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &fakeEmailTransport{SendFunc: func(context.Context, *EmailMessage) (*EmailReceipt, error) {
				return nil, tt.err
			}}

			outcome, err := newEmailNotifier(tr).Send(context.Background(), emailNotification("ann@example.com"))

			var pErr *apperr.ProviderError
			require.ErrorAs(t, err, &pErr)
			assert.Equal(t, tt.kind, pErr.Kind)
			assert.Equal(t, tt.code, pErr.Code)
			assert.Equal(t, string(tt.kind), outcome.ErrorKind)
			assert.Equal(t, model.ResultFailure, outcome.Result)
		})
	}
}

func TestEmailNotifier_RejectedRecipient(t *testing.T) {
	tr := &fakeEmailTransport{SendFunc: func(_ context.Context, msg *EmailMessage) (*EmailReceipt, error) {
		return &EmailReceipt{MessageID: "x", Rejected: []string{strings.ToUpper(msg.To)}}, nil
	}}

	_, err := newEmailNotifier(tr).Send(context.Background(), emailNotification("ann@example.com"))

	var pErr *apperr.ProviderError
	require.ErrorAs(t, err, &pErr)
	assert.Equal(t, apperr.KindPermanent, pErr.Kind)
	assert.Equal(t, "EENVELOPE", pErr.Code)
}

func TestEmailNotifier_AppliesTimeout(t *testing.T) {
	tr := &fakeEmailTransport{SendFunc: func(ctx context.Context, _ *EmailMessage) (*EmailReceipt, error) {
		deadline, ok := ctx.Deadline()
		require.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(time.Second), deadline, time.Second)
		return &EmailReceipt{MessageID: "ok"}, nil
	}}

	_, err := newEmailNotifier(tr).Send(context.Background(), emailNotification("ann@example.com"))
	require.NoError(t, err)
}

func TestValidEmail(t *testing.T) {
	assert.True(t, ValidEmail("ann@example.com"))
	assert.True(t, ValidEmail("first.last+tag@sub.example.co.uk"))
	assert.False(t, ValidEmail("ann"))
	assert.False(t, ValidEmail("ann@@example.com"))
	assert.False(t, ValidEmail(" ann@example.com"))
}
