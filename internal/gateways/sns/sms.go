package sns

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/ilindan-dev/notification-engine/internal/gateways/awserr"
	"github.com/ilindan-dev/notification-engine/internal/notifiers"
	"github.com/rs/zerolog"
)

// Message attributes understood by SNS direct SMS publishing.
const (
	attrSMSType     = "AWS.SNS.SMS.SMSType"
	attrOrigination = "AWS.MM.SMS.OriginationNumber"
	attrSenderID    = "AWS.SNS.SMS.SenderID"
)

var _ notifiers.SMSGateway = (*SMSGateway)(nil)

// SMSGateway publishes transactional SMS directly to phone numbers.
type SMSGateway struct {
	client API
	logger zerolog.Logger
}

// NewSMSGateway creates a new instance of SMSGateway.
func NewSMSGateway(client API, logger *zerolog.Logger) *SMSGateway {
	return &SMSGateway{
		client: client,
		logger: logger.With().Str("component", "sns_sms_gateway").Logger(),
	}
}

func (g *SMSGateway) Name() string { return provider }

func (g *SMSGateway) Send(ctx context.Context, msg *notifiers.SMSMessage) (*notifiers.SMSReceipt, error) {
	attrs := map[string]types.MessageAttributeValue{
		attrSMSType: stringAttr("Transactional"),
	}
	switch {
	case msg.From == "":
	case msg.From[0] == '+':
		attrs[attrOrigination] = stringAttr(msg.From)
	default:
		attrs[attrSenderID] = stringAttr(msg.From)
	}

	out, err := g.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber:       aws.String(msg.To),
		Message:           aws.String(msg.Body),
		MessageAttributes: attrs,
	})
	if err != nil {
		return nil, awserr.Classify(provider, err)
	}

	sid := aws.ToString(out.MessageId)
	g.logger.Debug().Str("sid", sid).Str("notification_id", msg.Meta.NotificationID).Msg("sns accepted sms")
	return &notifiers.SMSReceipt{SID: sid, Status: "accepted"}, nil
}

func stringAttr(v string) types.MessageAttributeValue {
	return types.MessageAttributeValue{DataType: aws.String("String"), StringValue: aws.String(v)}
}
