package email

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/ilindan-dev/notification-engine/internal/domain/apperr"
	"github.com/ilindan-dev/notification-engine/internal/gateways/awserr"
	"github.com/ilindan-dev/notification-engine/internal/notifiers"
	"github.com/rs/zerolog"
)

const sesProvider = "ses"

var _ notifiers.EmailTransport = (*SESTransport)(nil)

// SESAPI is the part of the SES client the transport uses.
type SESAPI interface {
	SendRawEmail(ctx context.Context, params *ses.SendRawEmailInput, optFns ...func(*ses.Options)) (*ses.SendRawEmailOutput, error)
}

// SESTransport submits raw MIME through Amazon SES, so correlation headers survive.
type SESTransport struct {
	client SESAPI
	logger zerolog.Logger
}

// NewSESClient loads the default AWS credential chain for region.
func NewSESClient(ctx context.Context, region string) (*ses.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("ses: failed to load aws config: %w", err)
	}
	return ses.NewFromConfig(cfg), nil
}

// NewSESTransport creates a new instance of SESTransport.
func NewSESTransport(client SESAPI, logger *zerolog.Logger) *SESTransport {
	return &SESTransport{
		client: client,
		logger: logger.With().Str("component", "ses_transport").Logger(),
	}
}

func (t *SESTransport) Name() string { return sesProvider }

func (t *SESTransport) Send(ctx context.Context, msg *notifiers.EmailMessage) (*notifiers.EmailReceipt, error) {
	m, id := buildMessage(msg)

	var raw bytes.Buffer
	if _, err := m.WriteTo(&raw); err != nil {
		return nil, apperr.Permanent(sesProvider, "EMESSAGE", err)
	}

	out, err := t.client.SendRawEmail(ctx, &ses.SendRawEmailInput{
		RawMessage:   &types.RawMessage{Data: raw.Bytes()},
		Source:       aws.String(msg.FromAddress),
		Destinations: []string{msg.To},
	})
	if err != nil {
		return nil, awserr.Classify(sesProvider, err)
	}

	messageID := aws.ToString(out.MessageId)
	if messageID == "" {
		messageID = id
	}
	t.logger.Debug().Str("message_id", messageID).Msg("ses accepted message")
	return &notifiers.EmailReceipt{MessageID: messageID, Accepted: []string{msg.To}}, nil
}
