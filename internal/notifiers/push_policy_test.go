package notifiers

import (
	"testing"
	"time"

	"github.com/ilindan-dev/notification-engine/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestDefaultPolicyTable(t *testing.T) {
	table := DefaultPolicyTable()

	for _, category := range []string{"fraud", "transaction", "security", "FRAUD"} {
		p := table.Resolve("", category)
		assert.Equal(t, PriorityHigh, p.Priority, category)
		assert.Equal(t, 24*time.Hour, p.TTL, category)
	}

	p := table.Resolve("newsletter", "marketing")
	assert.Equal(t, PriorityNormal, p.Priority)
	assert.Equal(t, time.Hour, p.TTL)
}

func TestPolicyTable_LookupOrder(t *testing.T) {
	table := NewPolicyTable(
		PushPolicy{Priority: "normal", TTL: time.Minute},
		map[string]PushPolicy{"account": {Priority: "normal", TTL: 2 * time.Hour}},
		map[string]PushPolicy{"low-balance-push": {Priority: "high", TTL: 6 * time.Hour}},
	)

	assert.Equal(t, PriorityHigh, table.Resolve("low-balance-push", "account").Priority, "template id wins")
	assert.Equal(t, 2*time.Hour, table.Resolve("other", "account").TTL, "category next")
	assert.Equal(t, time.Minute, table.Resolve("other", "other").TTL, "default last")
}

func TestPolicyTable_Normalizes(t *testing.T) {
	table := NewPolicyTable(
		PushPolicy{Priority: "urgent", TTL: -time.Second},
		map[string]PushPolicy{"long": {Priority: "HIGH", TTL: 90 * 24 * time.Hour}},
		nil,
	)

	p := table.Resolve("", "")
	assert.Equal(t, PriorityNormal, p.Priority)
	assert.Zero(t, p.TTL)

	p = table.Resolve("", "long")
	assert.Equal(t, PriorityHigh, p.Priority)
	assert.Equal(t, MaxPushTTL, p.TTL)
}

func TestNewPolicyTableFromConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Notifiers.Push.Policies = config.PushPoliciesConfig{
		Default:    &config.PushPolicyConfig{Priority: "normal", TTL: 30 * time.Minute},
		Categories: map[string]config.PushPolicyConfig{"marketing": {Priority: "normal", TTL: 2 * time.Hour}},
		Templates:  map[string]config.PushPolicyConfig{"low-balance-push": {Priority: "high", TTL: 12 * time.Hour, Sound: "chime"}},
	}

	table := NewPolicyTableFromConfig(cfg)

	assert.Equal(t, PriorityHigh, table.Resolve("", "fraud").Priority, "built-in rows survive")
	assert.Equal(t, 2*time.Hour, table.Resolve("", "marketing").TTL)
	assert.Equal(t, "chime", table.Resolve("low-balance-push", "account").Sound)
	assert.Equal(t, 30*time.Minute, table.Resolve("", "").TTL)
}

func TestNewPolicyTableFromConfig_OverrideKeysIgnoreCase(t *testing.T) {
	cfg := &config.Config{}
	cfg.Notifiers.Push.Policies = config.PushPoliciesConfig{
		Categories: map[string]config.PushPolicyConfig{"Fraud": {Priority: "high", TTL: 2 * time.Hour}},
		Templates:  map[string]config.PushPolicyConfig{"OTP-Push": {Priority: "high", TTL: 5 * time.Minute}},
	}

	for i := 0; i < 50; i++ {
		table := NewPolicyTableFromConfig(cfg)
		assert.Equal(t, 2*time.Hour, table.Resolve("", "fraud").TTL)
		assert.Equal(t, 5*time.Minute, table.Resolve("otp-push", "").TTL)
	}
}
