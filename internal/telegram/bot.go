package telegram

import (
	"bytes"
	"context"
	"runtime"

	"coinpaprika-price-alerts/lib/helpers"
	"coinpaprika-price-alerts/lib/translation"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// CommandHandler answers chat commands; commands.Handler implements it.
type CommandHandler interface {
	CommandAlert(ctx context.Context, argument string) (string, error)
	CommandPrice(ctx context.Context, argument string) (string, error)
}

// NewBot creates new telegram bot
func NewBot(c BotConfig) (*Bot, error) {
	bot, err := tgbotapi.NewBotAPI(c.Token)
	if err != nil {
		return nil, errors.Wrap(err, "could not create telegram bot")
	}

	bot.Debug = c.Debug

	return &Bot{
		Bot:    bot,
		Config: c,
	}, nil
}

// SetCommandHandler wires the handler used by HandleUpdate.
func (b *Bot) SetCommandHandler(h CommandHandler) {
	b.commands = h
}

// GetUpdatesChannel gets new updates updates
func (b *Bot) GetUpdatesChannel() tgbotapi.UpdatesChannel {
	updatesConfig := tgbotapi.NewUpdate(0)
	if b.Config.UpdatesTimeout > 0 {
		updatesConfig.Timeout = b.Config.UpdatesTimeout
	}
	return b.Bot.GetUpdatesChan(updatesConfig)
}

// SendMessage sends a telegram message
func (b *Bot) SendMessage(m Message) error {
	msg := tgbotapi.NewMessage(m.ChatID, m.Text)
	msg.ReplyToMessageID = m.MessageID
	msg.DisableWebPagePreview = true
	msg.ParseMode = "MarkdownV2"
	_, err := b.Bot.Send(msg)
	return errors.Wrapf(err, "could not send message to chat %d", m.ChatID)
}

// HandleUpdate processes Telegram updates
func (b *Bot) HandleUpdate(ctx context.Context, u tgbotapi.Update) string {
	text := helpers.EscapeMarkdownV2(translation.Translate(
		"Commands:\n/alert <symbol> <price> - alert when the price is reached\n/alert list | cancel <symbol> | status\n/p <symbol> - current price",
	))
	log.Debugf("received command: %s", u.Message.Command())

	var err error

	switch u.Message.Command() {
	case "p":
		if text, err = b.commands.CommandPrice(ctx, u.Message.CommandArguments()); err != nil {
			text = translation.Translate("Coin not found")
			log.Error(err)
		}
	case "alert":
		if text, err = b.commands.CommandAlert(ctx, u.Message.CommandArguments()); err != nil {
			text = translation.Translate("Failed to save alert\\. Please try again later\\.")
			log.Error(err)
		}
	}

	return text
}

// Serve consumes updates until ctx is done or the channel closes.
func (b *Bot) Serve(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-ctx.Done():
			b.Bot.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil || !update.Message.IsCommand() {
				log.Debug("Received non-message or non-command")
				continue
			}
			if b.Config.AllowedChatID != 0 && update.Message.Chat.ID != b.Config.AllowedChatID {
				log.Debugf("Ignoring command from chat %d", update.Message.Chat.ID)
				continue
			}
			b.handleCommand(ctx, update)
		}
	}
}

func (b *Bot) handleCommand(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			stackBuf := make([]byte, 1024)
			stackSize := runtime.Stack(stackBuf, false)
			stackTrace := bytes.TrimRight(stackBuf[:stackSize], "\x00")
			log.Errorf("Recovered from panic: %v\nStack trace: %s", r, stackTrace)
		}
	}()

	err := b.SendMessage(Message{
		ChatID:    update.Message.Chat.ID,
		Text:      b.HandleUpdate(ctx, update),
		MessageID: update.Message.MessageID,
	})

	if err != nil {
		log.Errorf("Failed to send message: %v", err)
	}
}
