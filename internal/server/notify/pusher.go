package notify

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/fudbi/fudbi/internal/logging"
)

// Pusher delivers a short notification to one registered push token.
type Pusher interface {
	Push(ctx context.Context, token, title, body string) error
}

type telegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

var newBotAPI = func(token string) (telegramSender, string, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, "", err
	}
	return api, api.Self.UserName, nil
}

// TelegramPusher treats push tokens as Telegram chat ids.
type TelegramPusher struct {
	bot telegramSender
}

func NewTelegramPusher(ctx context.Context, token string, logger logging.Logger) (*TelegramPusher, error) {
	bot, name, err := newBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	logger.Info(ctx, "telegram pusher authorized", "account", name)
	return &TelegramPusher{bot: bot}, nil
}

func (p *TelegramPusher) Push(ctx context.Context, token, title, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	chatID, err := strconv.ParseInt(strings.TrimSpace(token), 10, 64)
	if err != nil {
		return fmt.Errorf("push token %q is not a chat id: %w", token, err)
	}
	msg := tgbotapi.NewMessage(chatID, title+"\n\n"+body)
	if _, err := p.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

// NopPusher is used when no push channel is configured.
type NopPusher struct{}

func (NopPusher) Push(context.Context, string, string, string) error { return nil }
