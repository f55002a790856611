package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Channel represents the notification delivery channel.
type Channel string

const (
	ChannelEmail Channel = "EMAIL"
	ChannelSMS   Channel = "SMS"
	ChannelPush  Channel = "PUSH"
)

// Valid reports whether c is one of the known channels.
func (c Channel) Valid() bool {
	switch c {
	case ChannelEmail, ChannelSMS, ChannelPush:
		return true
	}
	return false
}

// Status represents the current state of a notification.
type Status string

const (
	StatusPending Status = "PENDING" // Created by the caller, not yet dispatched.
	StatusSent    Status = "SENT"    // Accepted by the provider.
	StatusFailed  Status = "FAILED"  // Rejected by validation or by the provider.
)

// Terminal reports whether no further transition is allowed from s.
func (s Status) Terminal() bool {
	return s == StatusSent || s == StatusFailed
}

// ErrTerminalStatus is returned when an outcome is applied to a notification that already finished.
var ErrTerminalStatus = errors.New("notification is already in a terminal status")

// Notification is a single delivery request for one user on one channel.
// It is technology-agnostic and does not contain any DB or JSON tags.
type Notification struct {
	ID        string
	UserID    string
	Channel   Channel
	Recipient string // Email address, E.164 phone number or JSON array of device tokens.
	Subject   string
	Message   string
	Status    Status

	TemplateID   string
	TemplateData map[string]string
	// Category is copied from the template when one is rendered. Drives push urgency.
	Category string

	CreatedAt time.Time
	SentAt    *time.Time
}

// NewNotification is a factory function to create a pending notification with a fresh id.
func NewNotification(userID string, channel Channel, recipient string) *Notification {
	return &Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Channel:   channel,
		Recipient: recipient,
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
	}
}

// FromTemplate sets the template reference and its placeholder values.
func (n *Notification) FromTemplate(templateID string, data map[string]string) *Notification {
	n.TemplateID = templateID
	n.TemplateData = data
	return n
}

// Clone returns a copy whose maps and pointers are not shared with n.
func (n *Notification) Clone() *Notification {
	c := *n
	if n.TemplateData != nil {
		c.TemplateData = make(map[string]string, len(n.TemplateData))
		for k, v := range n.TemplateData {
			c.TemplateData[k] = v
		}
	}
	if n.SentAt != nil {
		t := *n.SentAt
		c.SentAt = &t
	}
	return &c
}

// Apply moves the notification out of PENDING according to the outcome.
func (n *Notification) Apply(o *Outcome) error {
	if n.Status.Terminal() {
		return ErrTerminalStatus
	}
	n.Status = o.Status
	if o.SentAt != nil {
		t := *o.SentAt
		n.SentAt = &t
	}
	return nil
}
