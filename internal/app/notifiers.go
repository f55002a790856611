package app

import (
	"context"
	"fmt"

	awssns "github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/ilindan-dev/notification-engine/internal/config"
	"github.com/ilindan-dev/notification-engine/internal/gateways/email"
	"github.com/ilindan-dev/notification-engine/internal/gateways/logsink"
	"github.com/ilindan-dev/notification-engine/internal/gateways/sns"
	"github.com/ilindan-dev/notification-engine/internal/gateways/telegram"
	"github.com/ilindan-dev/notification-engine/internal/notifiers"
	"github.com/rs/zerolog"
)

// newNotifiers builds one adapter per channel. In log_only mode every provider is a log sink.
func newNotifiers(cfg *config.Config, logger *zerolog.Logger) ([]notifiers.Notifier, error) {
	n := cfg.Notifiers

	var (
		emailTransport notifiers.EmailTransport
		pushGateway    notifiers.PushGateway
		smsGateway     notifiers.SMSGateway
	)

	if n.Mode == config.ModeLogOnly {
		logger.Warn().Msg("notifiers running in log_only mode, nothing will be delivered")
		emailTransport = logsink.NewEmailTransport(logger)
		pushGateway = logsink.NewPushGateway(logger)
		smsGateway = logsink.NewSMSGateway(logger)
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
		defer cancel()

		clients := snsClients{}
		var err error
		if emailTransport, err = newEmailTransport(ctx, n.Email, logger); err != nil {
			return nil, err
		}
		if pushGateway, err = newPushGateway(ctx, n.Push, clients, logger); err != nil {
			return nil, err
		}
		snsClient, err := clients.get(ctx, n.SMS.Region)
		if err != nil {
			return nil, err
		}
		smsGateway = sns.NewSMSGateway(snsClient, logger)
	}

	return []notifiers.Notifier{
		notifiers.NewEmailNotifier(emailTransport, notifiers.EmailOptions{
			FromAddress: n.Email.FromAddress,
			FromName:    n.Email.FromName,
			Timeout:     n.Email.Timeout,
		}, logger),
		notifiers.NewPushNotifier(pushGateway, notifiers.NewPolicyTableFromConfig(cfg), notifiers.PushOptions{
			Timeout: n.Push.Timeout,
		}, logger),
		notifiers.NewSMSNotifier(smsGateway, notifiers.SMSOptions{
			From:      n.SMS.From,
			MaxLength: n.SMS.MaxLength,
			Timeout:   n.SMS.Timeout,
		}, logger),
	}, nil
}

func newEmailTransport(ctx context.Context, cfg config.EmailConfig, logger *zerolog.Logger) (notifiers.EmailTransport, error) {
	switch cfg.Transport {
	case "ses":
		client, err := email.NewSESClient(ctx, cfg.Region)
		if err != nil {
			return nil, err
		}
		return email.NewSESTransport(client, logger), nil
	case "smtp":
		return email.NewSMTPTransport(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown email transport %q", cfg.Transport)
	}
}

func newPushGateway(ctx context.Context, cfg config.PushConfig, clients snsClients, logger *zerolog.Logger) (notifiers.PushGateway, error) {
	switch cfg.Gateway {
	case "telegram":
		bot, err := telegram.NewBot(cfg.BotToken)
		if err != nil {
			return nil, err
		}
		return telegram.NewPushGateway(bot, logger), nil
	case "sns":
		client, err := clients.get(ctx, cfg.Region)
		if err != nil {
			return nil, err
		}
		return sns.NewPushGateway(client, cfg.PlatformApplicationARN, logger), nil
	default:
		return nil, fmt.Errorf("unknown push gateway %q", cfg.Gateway)
	}
}

// snsClients shares one SNS client per region between the push and SMS gateways.
type snsClients map[string]*awssns.Client

func (c snsClients) get(ctx context.Context, region string) (*awssns.Client, error) {
	if client, ok := c[region]; ok {
		return client, nil
	}
	client, err := sns.NewClient(ctx, region)
	if err != nil {
		return nil, err
	}
	c[region] = client
	return client, nil
}
