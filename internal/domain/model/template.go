package model

import "time"

// MaxSMSTemplateLength is the longest body, in characters, an SMS template may carry.
const MaxSMSTemplateLength = 160

// Template is a reusable, parameterized message for a single channel.
type Template struct {
	ID      string
	Name    string
	Subject string // Required for EMAIL and PUSH, ignored for SMS.
	Body    string
	Type    Channel
	// Category groups templates by urgency class, e.g. "fraud" or "marketing".
	Category string
	// Protected templates are system-owned and cannot be deleted.
	Protected bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TemplateInput carries the fields accepted when creating a template.
type TemplateInput struct {
	Name     string
	Subject  string
	Body     string
	Type     Channel
	Category string
}

// TemplatePatch carries the fields accepted by a partial update. Nil fields keep their value.
type TemplatePatch struct {
	Name     *string
	Subject  *string
	Body     *string
	Category *string
}

// Clone returns a copy of t.
func (t *Template) Clone() *Template {
	c := *t
	return &c
}
