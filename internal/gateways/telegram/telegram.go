// Package telegram delivers push notifications as Telegram bot messages. Device tokens are chat ids.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/ilindan-dev/notification-engine/internal/domain/apperr"
	"github.com/ilindan-dev/notification-engine/internal/notifiers"
	"github.com/rs/zerolog"
)

const provider = "telegram"

// BotAPI is the part of tgbotapi.BotAPI the gateway uses.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

var _ notifiers.PushGateway = (*PushGateway)(nil)

// PushGateway sends one MarkdownV2 message per chat id.
type PushGateway struct {
	bot    BotAPI
	logger zerolog.Logger
}

// NewBot authenticates against the Bot API with token.
func NewBot(token string) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot api: %w", err)
	}
	return bot, nil
}

// NewPushGateway creates a new instance of PushGateway.
func NewPushGateway(bot BotAPI, logger *zerolog.Logger) *PushGateway {
	return &PushGateway{
		bot:    bot,
		logger: logger.With().Str("component", "telegram_gateway").Logger(),
	}
}

func (g *PushGateway) Name() string { return provider }

// Send delivers payload to every chat. An unauthorized bot aborts the whole call.
func (g *PushGateway) Send(ctx context.Context, tokens []string, payload *notifiers.PushPayload) (*notifiers.PushResponse, error) {
	text := formatMessage(payload)

	resp := &notifiers.PushResponse{}
	for _, token := range tokens {
		if err := ctx.Err(); err != nil {
			return nil, apperr.Transient(provider, "ECANCELED", err)
		}

		chatID, err := strconv.ParseInt(token, 10, 64)
		if err != nil {
			resp.Failure = append(resp.Failure, notifiers.PushFailure{
				Token:     token,
				Err:       apperr.Permanent(provider, "EBADTOKEN", fmt.Errorf("chat id %q is not an integer", token)),
				Permanent: true,
			})
			continue
		}

		msg := tgbotapi.NewMessage(chatID, text)
		msg.ParseMode = tgbotapi.ModeMarkdownV2
		msg.DisableNotification = payload.Priority != notifiers.PriorityHigh

		sent, err := g.bot.Send(msg)
		if err != nil {
			pErr := classify(err)
			if pErr.Code == "401" {
				return nil, pErr
			}
			g.logger.Warn().Err(pErr).Int64("chat_id", chatID).Msg("failed to send telegram message")
			resp.Failure = append(resp.Failure, notifiers.PushFailure{Token: token, Err: pErr, Permanent: pErr.Kind == apperr.KindPermanent})
			continue
		}

		g.logger.Debug().Int64("chat_id", chatID).Int("message_id", sent.MessageID).Msg("telegram message sent successfully")
		resp.Success = append(resp.Success, notifiers.PushDelivery{Token: token, MessageID: strconv.Itoa(sent.MessageID)})
	}
	return resp, nil
}

// formatMessage bolds the title. Rendered text carries caller data, so every reserved character is escaped.
func formatMessage(payload *notifiers.PushPayload) string {
	body := tgbotapi.EscapeText(tgbotapi.ModeMarkdownV2, payload.Body)
	if payload.Title == "" {
		return body
	}
	return fmt.Sprintf("*%s*\n\n%s", tgbotapi.EscapeText(tgbotapi.ModeMarkdownV2, payload.Title), body)
}

// classify maps Bot API answers: bad requests, a revoked bot and blocked chats are permanent,
// flood control and server errors are transient.
func classify(err error) *apperr.ProviderError {
	var apiErr *tgbotapi.Error
	if !errors.As(err, &apiErr) {
		return apperr.Transient(provider, "ECONNECTION", err)
	}
	code := strconv.Itoa(apiErr.Code)
	switch {
	case apiErr.Code == 400, apiErr.Code == 401, apiErr.Code == 403, apiErr.Code == 404:
		return apperr.Permanent(provider, code, err)
	default:
		return apperr.Transient(provider, code, err)
	}
}
