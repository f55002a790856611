package sns

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/ilindan-dev/notification-engine/internal/domain/apperr"
	"github.com/ilindan-dev/notification-engine/internal/gateways/awserr"
	"github.com/ilindan-dev/notification-engine/internal/notifiers"
	"github.com/rs/zerolog"
)

// Message attributes understood by SNS mobile push.
const (
	attrAPNSPriority = "AWS.SNS.MOBILE.APNS.PRIORITY"
	attrAPNSTTL      = "AWS.SNS.MOBILE.APNS.TTL"
	attrAPNSCollapse = "AWS.SNS.MOBILE.APNS.COLLAPSE_ID"
	attrFCMTTL       = "AWS.SNS.MOBILE.FCM.TTL"
)

var _ notifiers.PushGateway = (*PushGateway)(nil)

// PushGateway registers each device token as a platform endpoint and publishes to it.
type PushGateway struct {
	client         API
	applicationARN string
	logger         zerolog.Logger
}

// NewPushGateway creates a new instance of PushGateway.
func NewPushGateway(client API, applicationARN string, logger *zerolog.Logger) *PushGateway {
	return &PushGateway{
		client:         client,
		applicationARN: applicationARN,
		logger:         logger.With().Str("component", "sns_push_gateway").Logger(),
	}
}

func (g *PushGateway) Name() string { return provider }

// Send publishes payload to every token. Credential and configuration errors abort the
// whole call; anything else is recorded against the token that caused it.
func (g *PushGateway) Send(ctx context.Context, tokens []string, payload *notifiers.PushPayload) (*notifiers.PushResponse, error) {
	message, err := platformMessage(payload)
	if err != nil {
		return nil, apperr.Permanent(provider, "EPAYLOAD", err)
	}
	attrs := pushAttributes(payload)

	resp := &notifiers.PushResponse{}
	for _, token := range tokens {
		if err := ctx.Err(); err != nil {
			return nil, awserr.Classify(provider, err)
		}

		messageID, err := g.publish(ctx, token, message, attrs)
		if err == nil {
			resp.Success = append(resp.Success, notifiers.PushDelivery{Token: token, MessageID: messageID})
			continue
		}
		if awserr.IsCredentialError(err) || isApplicationError(err) {
			return nil, awserr.Classify(provider, err)
		}

		pErr := awserr.Classify(provider, err)
		g.logger.Warn().Err(pErr).Str("kind", string(pErr.Kind)).Msg("push token rejected")
		resp.Failure = append(resp.Failure, notifiers.PushFailure{
			Token:     token,
			Err:       pErr,
			Permanent: pErr.Kind == apperr.KindPermanent,
		})
	}
	return resp, nil
}

func (g *PushGateway) publish(ctx context.Context, token, message string, attrs map[string]types.MessageAttributeValue) (string, error) {
	endpoint, err := g.client.CreatePlatformEndpoint(ctx, &sns.CreatePlatformEndpointInput{
		PlatformApplicationArn: aws.String(g.applicationARN),
		Token:                  aws.String(token),
	})
	if err != nil {
		return "", err
	}

	out, err := g.client.Publish(ctx, &sns.PublishInput{
		TargetArn:         endpoint.EndpointArn,
		Message:           aws.String(message),
		MessageStructure:  aws.String("json"),
		MessageAttributes: attrs,
	})
	if err != nil {
		return "", err
	}
	return aws.ToString(out.MessageId), nil
}

// isApplicationError reports errors that concern the platform application, not the token.
func isApplicationError(err error) bool {
	var disabled *types.PlatformApplicationDisabledException
	return errors.As(err, &disabled)
}

type fcmMessage struct {
	Notification fcmNotification  `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
	Priority     string            `json:"priority"`
	TimeToLive   int               `json:"time_to_live"`
	CollapseKey  string            `json:"collapse_key,omitempty"`
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Sound string `json:"sound,omitempty"`
}

type apsAlert struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type aps struct {
	Alert    apsAlert `json:"alert"`
	Sound    string   `json:"sound,omitempty"`
	Badge    *int     `json:"badge,omitempty"`
	Category string   `json:"category,omitempty"`
}

// platformMessage renders the per-platform JSON document SNS expects with MessageStructure=json.
func platformMessage(p *notifiers.PushPayload) (string, error) {
	gcm, err := json.Marshal(fcmMessage{
		Notification: fcmNotification{Title: p.Title, Body: p.Body, Sound: p.Sound},
		Data:         p.Data,
		Priority:     string(p.Priority),
		TimeToLive:   p.TTL,
		CollapseKey:  p.CollapseKey,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode fcm payload: %w", err)
	}

	apns := map[string]any{
		"aps": aps{
			Alert:    apsAlert{Title: p.Title, Body: p.Body},
			Sound:    p.Sound,
			Badge:    p.Badge,
			Category: p.Category,
		},
	}
	for k, v := range p.Data {
		if k != "aps" {
			apns[k] = v
		}
	}
	apnsJSON, err := json.Marshal(apns)
	if err != nil {
		return "", fmt.Errorf("failed to encode apns payload: %w", err)
	}

	doc, err := json.Marshal(map[string]string{
		"default":      p.Body,
		"GCM":          string(gcm),
		"APNS":         string(apnsJSON),
		"APNS_SANDBOX": string(apnsJSON),
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode sns message: %w", err)
	}
	return string(doc), nil
}

func pushAttributes(p *notifiers.PushPayload) map[string]types.MessageAttributeValue {
	apnsPriority := "5"
	if p.Priority == notifiers.PriorityHigh {
		apnsPriority = "10"
	}
	attrs := map[string]types.MessageAttributeValue{
		attrAPNSPriority: stringAttr(apnsPriority),
		attrAPNSTTL:      stringAttr(strconv.Itoa(p.TTL)),
		attrFCMTTL:       stringAttr(strconv.Itoa(p.TTL)),
	}
	if p.CollapseKey != "" {
		attrs[attrAPNSCollapse] = stringAttr(p.CollapseKey)
	}
	return attrs
}
