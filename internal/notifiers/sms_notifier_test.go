package notifiers

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/ilindan-dev/notification-engine/internal/domain/apperr"
	"github.com/ilindan-dev/notification-engine/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSMSNotifier(gw *fakeSMSGateway) *SMSNotifier {
	return NewSMSNotifier(gw, SMSOptions{From: "+14155550000", MaxLength: DefaultSMSMaxLength, Timeout: time.Second}, nopLogger())
}

func TestValidatePhoneNumber(t *testing.T) {
	valid := []string{"+14155551234", "+442071838750", "+12", "+123456789012345"}
	invalid := []string{"4155551234", "+1", "123456789012345678", "abc", "", "+0123456789", "+1234567890123456", "+1 415 555 1234", "++14155551234"}

	for _, v := range valid {
		assert.NoError(t, ValidatePhoneNumber(v), v)
	}
	for _, v := range invalid {
		err := ValidatePhoneNumber(v)
		var vErr *apperr.ValidationError
		assert.ErrorAs(t, err, &vErr, v)
		assert.ErrorIs(t, err, ErrInvalidPhoneNumber, v)
	}
}

func TestTruncateBody(t *testing.T) {
	body := strings.Repeat("a", 1700)
	got := TruncateBody(body, DefaultSMSMaxLength)
	assert.LessOrEqual(t, len(got), DefaultSMSMaxLength)
	assert.Len(t, got, DefaultSMSMaxLength)
	assert.True(t, strings.HasSuffix(got, "..."))

	exact := strings.Repeat("b", DefaultSMSMaxLength)
	assert.Equal(t, exact, TruncateBody(exact, DefaultSMSMaxLength))

	multibyte := strings.Repeat("ж", 20)
	cut := TruncateBody(multibyte, 10)
	assert.True(t, utf8.ValidString(cut))
	assert.Equal(t, 10, utf8.RuneCountInString(cut))
}

func TestSMSNotifier_SendSMS(t *testing.T) {
	gw := &fakeSMSGateway{}
	meta := SMSMeta{NotificationID: "n-1", UserID: "u-1", TemplateID: "otp-sms"}

	receipt, err := newSMSNotifier(gw).SendSMS(context.Background(), "+14155551234", strings.Repeat("x", 1700), meta)
	require.NoError(t, err)
	assert.Equal(t, "sms-1", receipt.SID)

	require.Equal(t, 1, gw.calls())
	msg := gw.sent[0]
	assert.Equal(t, "+14155551234", msg.To)
	assert.Equal(t, "+14155550000", msg.From)
	assert.Len(t, msg.Body, DefaultSMSMaxLength)
	assert.True(t, strings.HasSuffix(msg.Body, "..."))
	assert.Equal(t, meta, msg.Meta)
}

func TestSMSNotifier_RejectsBeforeNetwork(t *testing.T) {
	gw := &fakeSMSGateway{}
	s := newSMSNotifier(gw)

	_, err := s.SendSMS(context.Background(), "4155551234", "hi", SMSMeta{})
	assert.ErrorIs(t, err, ErrInvalidPhoneNumber)

	_, err = s.SendSMS(context.Background(), "+14155551234", "  ", SMSMeta{})
	var vErr *apperr.ValidationError
	assert.ErrorAs(t, err, &vErr)

	assert.Zero(t, gw.calls())
}

func TestSMSNotifier_WrapsProviderErrors(t *testing.T) {
	gw := &fakeSMSGateway{SendFunc: func(context.Context, *SMSMessage) (*SMSReceipt, error) {
		return nil, errors.New("raw sdk failure")
	}}

	_, err := newSMSNotifier(gw).SendSMS(context.Background(), "+14155551234", "hi", SMSMeta{})

	var pErr *apperr.ProviderError
	require.ErrorAs(t, err, &pErr)
	assert.Equal(t, "fake-sms", pErr.Provider)
	assert.Equal(t, apperr.KindTransient, pErr.Kind)
}

func TestSMSNotifier_Send(t *testing.T) {
	gw := &fakeSMSGateway{}
	n := model.NewNotification("u-1", model.ChannelSMS, "+14155551234")
	n.Subject = "ignored"
	n.Message = "Your code is 123456"

	outcome, err := newSMSNotifier(gw).Send(context.Background(), n)
	require.NoError(t, err)
	assert.Equal(t, model.StatusSent, outcome.Status)
	assert.Equal(t, "sms-1", outcome.ProviderMessageID)
	assert.Equal(t, "Your code is 123456", gw.sent[0].Body)

	n.Channel = model.ChannelEmail
	outcome, err = newSMSNotifier(gw).Send(context.Background(), n)
	assert.ErrorIs(t, err, ErrChannelMismatch)
	assert.Equal(t, apperr.KindValidation, outcome.ErrorKind)
}

func TestNewSMSNotifier_DefaultsMaxLength(t *testing.T) {
	s := NewSMSNotifier(&fakeSMSGateway{}, SMSOptions{}, nopLogger())
	assert.Equal(t, DefaultSMSMaxLength, s.opts.MaxLength)
}
