package http

import (
	"time"

	"github.com/ilindan-dev/notification-engine/internal/domain/model"
)

// DispatchRequest defines the structure of a single notification request.
// It uses `json` tags for unmarshalling and `binding` for validation with Gin.
type DispatchRequest struct {
	UserID       string            `json:"user_id" binding:"required"`
	Channel      string            `json:"channel" binding:"required,oneof=EMAIL SMS PUSH"`
	Recipient    string            `json:"recipient" binding:"required"`
	Subject      string            `json:"subject"`
	Message      string            `json:"message"`
	TemplateID   string            `json:"template_id"`
	TemplateData map[string]string `json:"template_data"`
}

// FanoutRequest carries one notification per channel for the same logical event.
type FanoutRequest struct {
	Notifications []DispatchRequest `json:"notifications" binding:"required,min=1,max=10,dive"`
}

// TokenResponse is the per-token result of a push dispatch.
type TokenResponse struct {
	Token     string `json:"token"`
	MessageID string `json:"message_id,omitempty"`
	Error     string `json:"error,omitempty"`
	Permanent bool   `json:"permanent,omitempty"`
}

// OutcomeResponse exposes a dispatch outcome.
type OutcomeResponse struct {
	NotificationID    string          `json:"notification_id"`
	Channel           string          `json:"channel"`
	Status            string          `json:"status"`
	Result            string          `json:"result"`
	ProviderMessageID string          `json:"provider_message_id,omitempty"`
	Tokens            []TokenResponse `json:"tokens,omitempty"`
	SentAt            *time.Time      `json:"sent_at,omitempty"`
	ErrorKind         string          `json:"error_kind,omitempty"`
	Error             string          `json:"error,omitempty"`
}

// FanoutResponse holds outcomes in request order.
type FanoutResponse struct {
	Results []OutcomeResponse `json:"results"`
}

// EnqueueResponse acknowledges an accepted asynchronous request.
type EnqueueResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// TemplateResponse exposes a template to API clients.
type TemplateResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Subject   string    `json:"subject,omitempty"`
	Body      string    `json:"body"`
	Type      string    `json:"type"`
	Category  string    `json:"category,omitempty"`
	Protected bool      `json:"protected"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ErrorResponse defines a standard structure for API error responses.
type ErrorResponse struct {
	Error   string           `json:"error"`
	Kind    string           `json:"kind,omitempty"`
	Outcome *OutcomeResponse `json:"outcome,omitempty"`
}

// toNotification maps the request DTO onto a fresh pending notification.
func (r DispatchRequest) toNotification() *model.Notification {
	n := model.NewNotification(r.UserID, model.Channel(r.Channel), r.Recipient)
	n.Subject = r.Subject
	n.Message = r.Message
	if r.TemplateID != "" {
		n.FromTemplate(r.TemplateID, r.TemplateData)
	}
	return n
}

func toOutcomeResponse(o *model.Outcome) OutcomeResponse {
	resp := OutcomeResponse{
		NotificationID:    o.NotificationID,
		Channel:           string(o.Channel),
		Status:            string(o.Status),
		Result:            string(o.Result),
		ProviderMessageID: o.ProviderMessageID,
		SentAt:            o.SentAt,
		ErrorKind:         o.ErrorKind,
		Error:             o.Error,
	}
	for _, t := range o.Tokens {
		resp.Tokens = append(resp.Tokens, TokenResponse(t))
	}
	return resp
}

func toTemplateResponse(t *model.Template) TemplateResponse {
	return TemplateResponse{
		ID:        t.ID,
		Name:      t.Name,
		Subject:   t.Subject,
		Body:      t.Body,
		Type:      string(t.Type),
		Category:  t.Category,
		Protected: t.Protected,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}
