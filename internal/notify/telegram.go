package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// telegramSender is the part of *tgbotapi.BotAPI used for delivery.
type telegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramBackend delivers notifications as Telegram chat messages.
type TelegramBackend struct {
	bot    telegramSender
	chatID int64
}

// NewTelegramBackend creates a backend sending to chatID through bot.
func NewTelegramBackend(bot *tgbotapi.BotAPI, chatID int64) *TelegramBackend {
	return &TelegramBackend{bot: bot, chatID: chatID}
}

// NewTelegramBackendFromToken authenticates against the Bot API and
// returns a backend for chatID.
func NewTelegramBackendFromToken(token string, chatID int64) (*TelegramBackend, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connecting to telegram: %w", err)
	}
	return NewTelegramBackend(bot, chatID), nil
}

// RequestPermission grants when a chat is configured.
func (b *TelegramBackend) RequestPermission(context.Context) (bool, error) {
	return b.chatID != 0, nil
}

// Deliver sends the title and body as one message.
func (b *TelegramBackend) Deliver(ctx context.Context, content Content) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(b.chatID, content.Title+"\n"+content.Body)
	if _, err := b.bot.Send(msg); err != nil {
		return fmt.Errorf("sending telegram message: %w", err)
	}
	return nil
}
