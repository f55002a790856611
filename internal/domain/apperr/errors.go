// Package apperr holds the error taxonomy shared by the template store, the channel adapters and the dispatcher.
package apperr

import (
	"errors"
	"fmt"
)

// ValidationError indicates bad input detected before any network call.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// WrapValidation creates a ValidationError that matches err with errors.Is.
func WrapValidation(field, message string, err error) *ValidationError {
	return &ValidationError{Field: field, Message: message, Err: err}
}

// NotFoundError indicates an unknown template or notification reference.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with id '%s' not found", e.Resource, e.ID)
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ProtectedResourceError indicates an attempt to delete a system-owned resource.
type ProtectedResourceError struct {
	Resource string
	ID       string
}

func (e *ProtectedResourceError) Error() string {
	return fmt.Sprintf("%s with id '%s' is protected and cannot be deleted", e.Resource, e.ID)
}

// NewProtectedResourceError creates a new ProtectedResourceError.
func NewProtectedResourceError(resource, id string) *ProtectedResourceError {
	return &ProtectedResourceError{Resource: resource, ID: id}
}

// Kind tells the caller whether a provider failure may be retried.
type Kind string

const (
	// KindPermanent covers bad credentials, configuration and rejected recipients.
	KindPermanent Kind = "permanent"
	// KindTransient covers timeouts, network errors and throttling.
	KindTransient Kind = "transient"
)

// ProviderError wraps any failure reported by a delivery provider or its client library.
type ProviderError struct {
	Provider string
	Kind     Kind
	Code     string
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Code != "" {
		return fmt.Sprintf("%s provider error (%s, %s): %s", e.Provider, e.Kind, e.Code, msg)
	}
	return fmt.Sprintf("%s provider error (%s): %s", e.Provider, e.Kind, msg)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Retryable reports whether the failure is safe to retry with backoff.
func (e *ProviderError) Retryable() bool { return e.Kind == KindTransient }

// Permanent creates a ProviderError that must not be retried blindly.
func Permanent(provider, code string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: KindPermanent, Code: code, Err: err}
}

// Transient creates a ProviderError that may be retried.
func Transient(provider, code string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: KindTransient, Code: code, Err: err}
}

// Error kinds reported by KindOf.
const (
	KindValidation = "validation"
	KindNotFound   = "not_found"
	KindProtected  = "protected"
	KindInternal   = "internal"
)

// KindOf maps err onto the taxonomy. It returns an empty string for a nil error.
func KindOf(err error) string {
	if err == nil {
		return ""
	}
	var (
		validationErr *ValidationError
		notFoundErr   *NotFoundError
		protectedErr  *ProtectedResourceError
		providerErr   *ProviderError
	)
	switch {
	case errors.As(err, &validationErr):
		return KindValidation
	case errors.As(err, &notFoundErr):
		return KindNotFound
	case errors.As(err, &protectedErr):
		return KindProtected
	case errors.As(err, &providerErr):
		return string(providerErr.Kind)
	default:
		return KindInternal
	}
}

// IsRetryable is true only for transient provider errors.
func IsRetryable(err error) bool {
	var providerErr *ProviderError
	return errors.As(err, &providerErr) && providerErr.Retryable()
}
