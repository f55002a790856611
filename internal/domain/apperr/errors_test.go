package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	cause := errors.New("dial tcp: i/o timeout")

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"validation", NewValidationError("recipient", "invalid email address"), KindValidation},
		{"wrapped validation", fmt.Errorf("dispatch: %w", NewValidationError("", "bad")), KindValidation},
		{"not found", NewNotFoundError("template", "t-1"), KindNotFound},
		{"protected", NewProtectedResourceError("template", "fraud-alert-email"), KindProtected},
		{"permanent", Permanent("smtp", "EAUTH", cause), string(KindPermanent)},
		{"transient", Transient("smtp", "ETIMEDOUT", cause), string(KindTransient)},
		{"plain", cause, KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestIsRetryable(t *testing.T) {
	cause := errors.New("boom")

	assert.True(t, IsRetryable(Transient("sns", "Throttling", cause)))
	assert.True(t, IsRetryable(fmt.Errorf("send: %w", Transient("sns", "", cause))))
	assert.False(t, IsRetryable(Permanent("sns", "AuthorizationError", cause)))
	assert.False(t, IsRetryable(NewValidationError("to", "invalid phone number")))
	assert.False(t, IsRetryable(cause))
}

func TestWrapValidation_MatchesSentinel(t *testing.T) {
	sentinel := errors.New("invalid phone number")
	err := WrapValidation("to", "must be E.164", sentinel)

	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, "to: must be E.164", err.Error())
}

func TestProviderError_Message(t *testing.T) {
	err := Permanent("smtp", "EAUTH", errors.New("535 authentication failed"))
	assert.Equal(t, "smtp provider error (permanent, EAUTH): 535 authentication failed", err.Error())
	assert.ErrorContains(t, Transient("sns", "", errors.New("timeout")), "sns provider error (transient): timeout")
}
