package notify

import (
	"context"
	"fmt"

	"coinpaprika-price-alerts/internal/telegram"
	"coinpaprika-price-alerts/lib/helpers"
)

// MessageSender is the part of telegram.Bot the sender needs.
type MessageSender interface {
	SendMessage(m telegram.Message) error
}

// TelegramSender posts notifications to one chat through the bot.
type TelegramSender struct {
	bot    MessageSender
	chatID int64
}

func NewTelegramSender(bot MessageSender, chatID int64) *TelegramSender {
	return &TelegramSender{bot: bot, chatID: chatID}
}

// Send renders the title in bold; both parts are escaped for MarkdownV2.
func (t *TelegramSender) Send(_ context.Context, title, message string) error {
	return t.bot.SendMessage(telegram.Message{
		ChatID: t.chatID,
		Text: fmt.Sprintf("🚨 *%s*\n\n%s",
			helpers.EscapeMarkdownV2(title),
			helpers.EscapeMarkdownV2(message),
		),
	})
}

func (t *TelegramSender) Name() string {
	return "telegram"
}
