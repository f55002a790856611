package service

import "github.com/ilindan-dev/notification-engine/internal/domain/model"

// Categories used by the system templates.
const (
	CategoryFraud       = "fraud"
	CategoryTransaction = "transaction"
	CategorySecurity    = "security"
	CategoryPayment     = "payment"
	CategoryAccount     = "account"
)

// SystemTemplates returns fresh copies of the protected templates every deployment starts with.
func SystemTemplates() []*model.Template {
	templates := []*model.Template{
		{
			ID:       "fraud-alert-email",
			Name:     "Fraud alert (email)",
			Subject:  "Suspicious activity on card ending {{cardLast4}}",
			Body:     "We blocked a {{amount}} transaction at {{merchant}} on {{date}}.\nIf this was not you, call us at {{supportPhone}} immediately.",
			Type:     model.ChannelEmail,
			Category: CategoryFraud,
		},
		{
			ID:       "fraud-alert-push",
			Name:     "Fraud alert (push)",
			Subject:  "Suspicious transaction blocked",
			Body:     "{{amount}} at {{merchant}} was blocked. Tap to review.",
			Type:     model.ChannelPush,
			Category: CategoryFraud,
		},
		{
			ID:       "fraud-alert-sms",
			Name:     "Fraud alert (SMS)",
			Body:     "Bank alert: {{amount}} at {{merchant}} was blocked on card {{cardLast4}}. Not you? Call {{supportPhone}}.",
			Type:     model.ChannelSMS,
			Category: CategoryFraud,
		},
		{
			ID:       "transaction-alert-push",
			Name:     "Transaction alert (push)",
			Subject:  "New transaction",
			Body:     "{{amount}} spent at {{merchant}}.",
			Type:     model.ChannelPush,
			Category: CategoryTransaction,
		},
		{
			ID:       "transaction-alert-sms",
			Name:     "Transaction alert (SMS)",
			Body:     "Bank: {{amount}} spent at {{merchant}} with card {{cardLast4}}.",
			Type:     model.ChannelSMS,
			Category: CategoryTransaction,
		},
		{
			ID:       "payment-confirmation-email",
			Name:     "Payment confirmation (email)",
			Subject:  "Payment of {{amount}} sent",
			Body:     "Hi {{firstName}},\nYour payment of {{amount}} to {{payee}} was completed on {{date}}.\nReference: {{reference}}",
			Type:     model.ChannelEmail,
			Category: CategoryPayment,
		},
		{
			ID:       "low-balance-push",
			Name:     "Low balance (push)",
			Subject:  "Low balance",
			Body:     "Your {{accountName}} balance is {{balance}}.",
			Type:     model.ChannelPush,
			Category: CategoryAccount,
		},
		{
			ID:       "otp-sms",
			Name:     "One-time passcode (SMS)",
			Body:     "Your verification code is {{code}}. It expires in {{minutes}} minutes. Never share it.",
			Type:     model.ChannelSMS,
			Category: CategorySecurity,
		},
	}
	for _, t := range templates {
		t.Protected = true
	}
	return templates
}
