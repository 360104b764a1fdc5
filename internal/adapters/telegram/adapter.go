// Package telegram adapts the Bot API to the ports.Messenger interface and
// feeds incoming updates to the conversation engine.
package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"diarybot/internal/core/domain"
)

// Handler consumes incoming text messages, one call per update.
type Handler interface {
	HandleMessage(ctx context.Context, m domain.IncomingMessage)
}

// Adapter wraps the Bot API client. It implements ports.Messenger.
type Adapter struct {
	api         *tgbotapi.BotAPI
	log         *zap.Logger
	pollTimeout int
}

func NewAdapter(token string, pollTimeout int, log *zap.Logger) (*Adapter, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram client: %w", err)
	}
	if pollTimeout <= 0 {
		pollTimeout = 30
	}
	return &Adapter{api: api, log: log, pollTimeout: pollTimeout}, nil
}

// Username returns the authenticated bot's username.
func (a *Adapter) Username() string { return a.api.Self.UserName }

// Run long-polls for updates until the context is cancelled. Non-text updates
// are ignored; the bot is keyboard and command driven.
func (a *Adapter) Run(ctx context.Context, h Handler) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = a.pollTimeout
	updates := a.api.GetUpdatesChan(cfg)

	for {
		select {
		case <-ctx.Done():
			a.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			msg := update.Message
			if msg == nil || msg.Text == "" || msg.From == nil {
				continue
			}
			h.HandleMessage(ctx, domain.IncomingMessage{
				ChatID:    msg.Chat.ID,
				UserID:    msg.From.ID,
				MessageID: msg.MessageID,
				FirstName: msg.From.FirstName,
				Text:      msg.Text,
			})
		}
	}
}

func (a *Adapter) Send(ctx context.Context, chatID int64, text string, kb *domain.Keyboard) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	if markup := replyMarkup(kb); markup != nil {
		msg.ReplyMarkup = markup
	}
	sent, err := a.api.Send(msg)
	if err != nil {
		return 0, fmt.Errorf("failed to send message: %w", err)
	}
	return sent.MessageID, nil
}

func (a *Adapter) SendHTML(ctx context.Context, chatID int64, text string) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	sent, err := a.api.Send(msg)
	if err != nil {
		return 0, fmt.Errorf("failed to send message: %w", err)
	}
	return sent.MessageID, nil
}

func (a *Adapter) EditHTML(ctx context.Context, chatID int64, messageID int, text string) error {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	if _, err := a.api.Send(edit); err != nil {
		return fmt.Errorf("failed to edit message: %w", err)
	}
	return nil
}

func (a *Adapter) Delete(ctx context.Context, chatID int64, messageID int) error {
	if _, err := a.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}

// replyMarkup translates the transport-neutral keyboard. Telegram wants
// either a markup or a remove object, never both.
func replyMarkup(kb *domain.Keyboard) interface{} {
	if kb == nil {
		return nil
	}
	if kb.Remove {
		return tgbotapi.NewRemoveKeyboard(false)
	}
	rows := make([][]tgbotapi.KeyboardButton, 0, len(kb.Rows))
	for _, row := range kb.Rows {
		buttons := make([]tgbotapi.KeyboardButton, 0, len(row))
		for _, label := range row {
			buttons = append(buttons, tgbotapi.NewKeyboardButton(label))
		}
		rows = append(rows, buttons)
	}
	markup := tgbotapi.NewReplyKeyboard(rows...)
	markup.OneTimeKeyboard = kb.OneTime
	return markup
}
