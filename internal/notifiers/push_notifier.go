package notifiers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ilindan-dev/notification-engine/internal/domain/apperr"
	"github.com/ilindan-dev/notification-engine/internal/domain/model"
	"github.com/ilindan-dev/notification-engine/pkg/keybuilder"
	"github.com/rs/zerolog"
	"github.com/xeipuuv/gojsonschema"
)

// Reserved keys of the push data map. They win over templateData entries with the same name.
const (
	DataNotificationID = "notificationId"
	DataUserID         = "userId"
	DataTemplateID     = "templateId"
	DataPriority       = "priority"
)

const deviceTokenSchema = `{
	"type": "array",
	"minItems": 1,
	"items": {"type": "string", "pattern": "\\S"}
}`

var deviceTokens = mustSchema(deviceTokenSchema)

func mustSchema(s string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(s))
	if err != nil {
		panic(fmt.Sprintf("notifiers: invalid schema: %v", err))
	}
	return schema
}

// PushOptions configures the push adapter.
type PushOptions struct {
	Timeout time.Duration
}

// PushNotifier sends notifications to device tokens through a PushGateway.
type PushNotifier struct {
	gateway  PushGateway
	policies *PolicyTable
	opts     PushOptions
	now      func() time.Time
	logger   zerolog.Logger
}

var _ Notifier = (*PushNotifier)(nil)

// NewPushNotifier creates a new instance of PushNotifier. A nil table means DefaultPolicyTable.
func NewPushNotifier(gateway PushGateway, policies *PolicyTable, opts PushOptions, logger *zerolog.Logger) *PushNotifier {
	if policies == nil {
		policies = DefaultPolicyTable()
	}
	return &PushNotifier{
		gateway:  gateway,
		policies: policies,
		opts:     opts,
		now:      time.Now,
		logger:   logger.With().Str("component", "push_notifier").Str("provider", gateway.Name()).Logger(),
	}
}

func (n *PushNotifier) Channel() model.Channel { return model.ChannelPush }

// Send implements the Notifier interface for push.
// Some tokens failing yields a partial outcome with a nil error.
// All tokens failing yields a ProviderError.
func (n *PushNotifier) Send(ctx context.Context, notification *model.Notification) (*model.Outcome, error) {
	if notification.Channel != model.ChannelPush {
		err := channelMismatch(model.ChannelPush, notification)
		return model.Failed(notification, apperr.KindValidation, err), err
	}
	tokens, err := ParseDeviceTokens(notification.Recipient)
	if err != nil {
		n.logger.Warn().Err(err).Str("notification_id", notification.ID).Msg("rejected push recipient")
		return model.Failed(notification, apperr.KindValidation, err), err
	}

	payload := n.buildPayload(notification)

	if n.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.opts.Timeout)
		defer cancel()
	}

	resp, err := n.gateway.Send(ctx, tokens, payload)
	if err != nil {
		pErr := normalizeProviderError(n.gateway.Name(), err)
		n.logger.Error().Err(pErr).Str("notification_id", notification.ID).Str("kind", string(pErr.Kind)).Msg("push gateway call failed")
		return model.Failed(notification, string(pErr.Kind), pErr), pErr
	}

	return n.outcome(notification, resp)
}

func (n *PushNotifier) outcome(notification *model.Notification, resp *PushResponse) (*model.Outcome, error) {
	tokens := make([]model.TokenOutcome, 0, len(resp.Success)+len(resp.Failure))
	for _, s := range resp.Success {
		tokens = append(tokens, model.TokenOutcome{Token: s.Token, MessageID: s.MessageID})
	}
	allPermanent := len(resp.Failure) > 0
	for _, f := range resp.Failure {
		msg := "rejected"
		if f.Err != nil {
			msg = f.Err.Error()
		}
		tokens = append(tokens, model.TokenOutcome{Token: f.Token, Error: msg, Permanent: f.Permanent})
		allPermanent = allPermanent && f.Permanent
	}

	log := n.logger.With().
		Str("notification_id", notification.ID).
		Int("delivered", len(resp.Success)).
		Int("failed", len(resp.Failure)).
		Logger()

	if len(resp.Success) == 0 {
		kind := apperr.KindTransient
		if allPermanent {
			kind = apperr.KindPermanent
		}
		pErr := &apperr.ProviderError{
			Provider: n.gateway.Name(),
			Kind:     kind,
			Code:     "ALL_TOKENS_FAILED",
			Message:  fmt.Sprintf("all %d device tokens failed", len(resp.Failure)),
			Err:      errors.Join(failureErrors(resp.Failure)...),
		}
		log.Error().Str("kind", string(kind)).Msg("push delivery failed for every token")
		o := model.Failed(notification, string(kind), pErr)
		o.Tokens = tokens
		return o, pErr
	}

	o := model.Succeeded(notification, resp.Success[0].MessageID, n.now().UTC())
	o.Tokens = tokens
	if len(resp.Failure) > 0 {
		o.Result = model.ResultPartial
		o.Error = fmt.Sprintf("%d of %d device tokens failed", len(resp.Failure), len(tokens))
		log.Warn().Msg("push partially delivered")
		return o, nil
	}

	log.Info().Msg("push sent successfully")
	return o, nil
}

func (n *PushNotifier) buildPayload(notification *model.Notification) *PushPayload {
	policy := n.policies.Resolve(notification.TemplateID, notification.Category)

	data := make(map[string]string, len(notification.TemplateData)+4)
	for k, v := range notification.TemplateData {
		data[k] = v
	}
	data[DataNotificationID] = notification.ID
	data[DataUserID] = notification.UserID
	data[DataTemplateID] = notification.TemplateID
	data[DataPriority] = string(policy.Priority)

	return &PushPayload{
		Title:       notification.Subject,
		Body:        notification.Message,
		Priority:    policy.Priority,
		TTL:         int(policy.TTL / time.Second),
		CollapseKey: keybuilder.PushCollapseKeyBuild(notification.TemplateID, notification.ID, notification.UserID),
		Category:    notification.Category,
		Sound:       policy.Sound,
		Data:        data,
	}
}

// ParseDeviceTokens decodes a JSON array of non-empty device tokens.
// Duplicates are dropped and surrounding whitespace is trimmed.
func ParseDeviceTokens(recipient string) ([]string, error) {
	invalid := apperr.WrapValidation("", ErrNoDeviceTokens.Error(), ErrNoDeviceTokens)

	result, err := deviceTokens.Validate(gojsonschema.NewStringLoader(recipient))
	if err != nil || !result.Valid() {
		return nil, invalid
	}

	var raw []string
	if err := json.Unmarshal([]byte(recipient), &raw); err != nil {
		return nil, invalid
	}

	tokens := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, t := range raw {
		t = strings.TrimSpace(t)
		if _, dup := seen[t]; dup || t == "" {
			continue
		}
		seen[t] = struct{}{}
		tokens = append(tokens, t)
	}
	if len(tokens) == 0 {
		return nil, invalid
	}
	return tokens, nil
}

func failureErrors(failures []PushFailure) []error {
	errs := make([]error, 0, len(failures))
	for _, f := range failures {
		if f.Err != nil {
			errs = append(errs, fmt.Errorf("token %s: %w", f.Token, f.Err))
		}
	}
	return errs
}
