package model

import "time"

// DeliveryResult summarizes what the provider did with a notification.
type DeliveryResult string

const (
	ResultSuccess DeliveryResult = "success"
	ResultPartial DeliveryResult = "partial" // Some push tokens were rejected.
	ResultFailure DeliveryResult = "failure"
)

// TokenOutcome is the provider answer for a single push device token.
type TokenOutcome struct {
	Token     string
	MessageID string
	Error     string
	Permanent bool
}

// Outcome is the structured result of dispatching one notification.
type Outcome struct {
	NotificationID    string
	UserID            string
	Channel           Channel
	Status            Status
	Result            DeliveryResult
	ProviderMessageID string
	Tokens            []TokenOutcome
	SentAt            *time.Time

	// ErrorKind and Error are set when Result is not success.
	ErrorKind string
	Error     string
}

// Succeeded builds a success outcome stamped with the given time.
func Succeeded(n *Notification, providerMessageID string, at time.Time) *Outcome {
	return &Outcome{
		NotificationID:    n.ID,
		UserID:            n.UserID,
		Channel:           n.Channel,
		Status:            StatusSent,
		Result:            ResultSuccess,
		ProviderMessageID: providerMessageID,
		SentAt:            &at,
	}
}

// Failed builds a failure outcome carrying the error classification.
func Failed(n *Notification, kind string, err error) *Outcome {
	o := &Outcome{
		NotificationID: n.ID,
		UserID:         n.UserID,
		Channel:        n.Channel,
		Status:         StatusFailed,
		Result:         ResultFailure,
		ErrorKind:      kind,
	}
	if err != nil {
		o.Error = err.Error()
	}
	return o
}
