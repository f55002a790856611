package notifiers

import (
	"strings"
	"time"

	"github.com/ilindan-dev/notification-engine/internal/config"
)

// Priority is the delivery urgency requested from the push gateway.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityNormal Priority = "normal"
)

// MaxPushTTL is the longest time-to-live accepted by FCM and APNS.
const MaxPushTTL = 28 * 24 * time.Hour

// PushPolicy decides how urgently and for how long a push is delivered.
type PushPolicy struct {
	Priority Priority
	TTL      time.Duration
	Sound    string
}

// PolicyTable maps template identity to a PushPolicy.
// Lookup order is template id, then template category, then the default row.
type PolicyTable struct {
	fallback   PushPolicy
	categories map[string]PushPolicy
	templates  map[string]PushPolicy
}

// DefaultPolicyTable treats fraud, transaction and security alerts as urgent.
func DefaultPolicyTable() *PolicyTable {
	urgent := PushPolicy{Priority: PriorityHigh, TTL: 24 * time.Hour, Sound: "default"}
	return NewPolicyTable(
		PushPolicy{Priority: PriorityNormal, TTL: time.Hour},
		map[string]PushPolicy{
			"fraud":       urgent,
			"transaction": urgent,
			"security":    urgent,
		},
		nil,
	)
}

// NewPolicyTable normalizes every row: unknown priorities become normal, TTLs are clamped to [0, MaxPushTTL].
func NewPolicyTable(fallback PushPolicy, categories, templates map[string]PushPolicy) *PolicyTable {
	t := &PolicyTable{
		fallback:   normalizePolicy(fallback),
		categories: make(map[string]PushPolicy, len(categories)),
		templates:  make(map[string]PushPolicy, len(templates)),
	}
	for k, p := range categories {
		t.categories[strings.ToLower(k)] = normalizePolicy(p)
	}
	for k, p := range templates {
		t.templates[strings.ToLower(k)] = normalizePolicy(p)
	}
	return t
}

// NewPolicyTableFromConfig overlays configured rows on top of DefaultPolicyTable.
func NewPolicyTableFromConfig(cfg *config.Config) *PolicyTable {
	base := DefaultPolicyTable()
	overrides := cfg.Notifiers.Push.Policies

	fallback := base.fallback
	if overrides.Default != nil {
		fallback = fromConfig(*overrides.Default)
	}
	categories := base.categories
	for k, p := range overrides.Categories {
		categories[strings.ToLower(k)] = fromConfig(p)
	}
	templates := base.templates
	for k, p := range overrides.Templates {
		templates[strings.ToLower(k)] = fromConfig(p)
	}
	return NewPolicyTable(fallback, categories, templates)
}

// Resolve returns the policy for a template. Both arguments may be empty.
func (t *PolicyTable) Resolve(templateID, category string) PushPolicy {
	if templateID != "" {
		if p, ok := t.templates[strings.ToLower(templateID)]; ok {
			return p
		}
	}
	if category != "" {
		if p, ok := t.categories[strings.ToLower(category)]; ok {
			return p
		}
	}
	return t.fallback
}

func fromConfig(p config.PushPolicyConfig) PushPolicy {
	return PushPolicy{Priority: Priority(p.Priority), TTL: p.TTL, Sound: p.Sound}
}

func normalizePolicy(p PushPolicy) PushPolicy {
	switch Priority(strings.ToLower(string(p.Priority))) {
	case PriorityHigh:
		p.Priority = PriorityHigh
	default:
		p.Priority = PriorityNormal
	}
	if p.TTL < 0 {
		p.TTL = 0
	}
	if p.TTL > MaxPushTTL {
		p.TTL = MaxPushTTL
	}
	p.TTL = p.TTL.Truncate(time.Second)
	return p
}
