// Package awserr maps AWS SDK errors onto the provider error taxonomy.
package awserr

import (
	"context"
	"errors"
	"net"

	"github.com/aws/smithy-go"
	"github.com/ilindan-dev/notification-engine/internal/domain/apperr"
)

// Error codes that point at credentials or account setup. Retrying will not help.
var credentialCodes = map[string]struct{}{
	"AccessDenied":                {},
	"AccessDeniedException":       {},
	"AuthorizationError":          {},
	"InvalidClientTokenId":        {},
	"SignatureDoesNotMatch":       {},
	"UnrecognizedClientException": {},
	"ExpiredToken":                {},
	"MissingAuthenticationToken":  {},
}

// Error codes that are permanent for the request but say nothing about credentials.
var permanentCodes = map[string]struct{}{
	"MessageRejected":                    {},
	"MailFromDomainNotVerifiedException": {},
	"ConfigurationSetDoesNotExist":       {},
	"AccountSendingPausedException":      {},
	"InvalidParameter":                   {},
	"InvalidParameterValue":              {},
	"ValidationError":                    {},
	"EndpointDisabled":                   {},
	"PlatformApplicationDisabled":        {},
	"NotFound":                           {},
}

var transientCodes = map[string]struct{}{
	"Throttling":          {},
	"ThrottlingException": {},
	"Throttled":           {},
	"InternalError":       {},
	"InternalFailure":     {},
	"ServiceUnavailable":  {},
	"RequestTimeout":      {},
	"KMSThrottling":       {},
}

// Classify wraps err into a ProviderError for provider.
// API errors are classified by code and fault, transport errors are transient.
func Classify(provider string, err error) *apperr.ProviderError {
	var providerErr *apperr.ProviderError
	if errors.As(err, &providerErr) {
		return providerErr
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		if _, ok := transientCodes[code]; ok {
			return apperr.Transient(provider, code, err)
		}
		if _, ok := credentialCodes[code]; ok {
			return apperr.Permanent(provider, code, err)
		}
		if _, ok := permanentCodes[code]; ok {
			return apperr.Permanent(provider, code, err)
		}
		if apiErr.ErrorFault() == smithy.FaultClient {
			return apperr.Permanent(provider, code, err)
		}
		return apperr.Transient(provider, code, err)
	}

	var (
		canceledErr *smithy.CanceledError
		netErr      net.Error
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return apperr.Transient(provider, "ETIMEDOUT", err)
	case errors.As(err, &canceledErr), errors.Is(err, context.Canceled):
		return apperr.Transient(provider, "ECANCELED", err)
	case errors.As(err, &netErr):
		return apperr.Transient(provider, "ECONNECTION", err)
	default:
		return apperr.Transient(provider, "EUNKNOWN", err)
	}
}

// IsCredentialError reports whether err means the whole account or credential setup is broken.
func IsCredentialError(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	_, ok := credentialCodes[apiErr.ErrorCode()]
	return ok
}
