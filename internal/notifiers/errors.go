package notifiers

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/ilindan-dev/notification-engine/internal/domain/apperr"
	"github.com/ilindan-dev/notification-engine/internal/domain/model"
)

var (
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrInvalidPhoneNumber = errors.New("invalid phone number")
	ErrNoDeviceTokens     = errors.New("no valid device tokens")
	ErrChannelMismatch    = errors.New("notification channel does not match")
	ErrUnsupportedChannel = errors.New("unsupported channel")
)

func channelMismatch(want model.Channel, n *model.Notification) error {
	return apperr.WrapValidation("channel",
		fmt.Sprintf("expected %s notification, got %q", want, n.Channel), ErrChannelMismatch)
}

// normalizeProviderError makes sure nothing but the apperr taxonomy leaves an adapter.
// Gateways classify their own errors; anything they let through is classified here.
func normalizeProviderError(provider string, err error) *apperr.ProviderError {
	var providerErr *apperr.ProviderError
	if errors.As(err, &providerErr) {
		return providerErr
	}

	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return apperr.Transient(provider, "ETIMEDOUT", err)
	case errors.Is(err, context.Canceled):
		return apperr.Transient(provider, "ECANCELED", err)
	case errors.As(err, &netErr) && netErr.Timeout():
		return apperr.Transient(provider, "ETIMEDOUT", err)
	case errors.As(err, &netErr):
		return apperr.Transient(provider, "ECONNECTION", err)
	default:
		return apperr.Transient(provider, "EUNKNOWN", err)
	}
}
