package bot

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Telegram binds the orchestrator to the Telegram Bot API: it long-polls
// for updates, translates them into Handler calls, and implements the
// Transport and scheduler Notifier interfaces.
type Telegram struct {
	api    *tgbotapi.BotAPI
	logger *slog.Logger
}

func NewTelegram(token string, logger *slog.Logger) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to telegram: %w", err)
	}
	logger.Info("telegram connected", "bot", api.Self.UserName)
	return &Telegram{api: api, logger: logger}, nil
}

// Run polls for updates until the context is cancelled. Updates arrive on
// one channel, so a single user's events are handled in arrival order.
func (t *Telegram) Run(ctx context.Context, h *Handler) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := t.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			t.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			t.dispatch(ctx, h, update)
		}
	}
}

func (t *Telegram) dispatch(ctx context.Context, h *Handler, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		cb := update.CallbackQuery
		// Ack so the client stops showing the loading spinner.
		if _, err := t.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
			t.logger.Warn("failed to ack callback", "error", err)
		}
		if cb.Message == nil {
			return
		}
		h.HandleCallback(ctx, cb.From.ID, cb.Message.Chat.ID, cb.Message.MessageID, cb.Data)

	case update.Message != nil && update.Message.IsCommand():
		msg := update.Message
		if msg.Command() == "start" {
			h.HandleStart(ctx, msg.From.ID, msg.Chat.ID)
			return
		}
		if err := t.SendText(msg.Chat.ID, msgIdleHint); err != nil {
			t.logger.Error("failed to send hint", "chat_id", msg.Chat.ID, "error", err)
		}

	case update.Message != nil:
		msg := update.Message
		h.HandleText(ctx, msg.From.ID, msg.Chat.ID, msg.Text)
	}
}

func (t *Telegram) SendText(chatID int64, text string) error {
	_, err := t.api.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

func (t *Telegram) SendMenu(chatID int64, text string, options []MenuOption) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = inlineKeyboard(options)
	_, err := t.api.Send(msg)
	return err
}

func (t *Telegram) EditText(chatID int64, messageID int, text string) error {
	_, err := t.api.Send(tgbotapi.NewEditMessageText(chatID, messageID, text))
	return err
}

func (t *Telegram) EditMenu(chatID int64, messageID int, text string, options []MenuOption) error {
	_, err := t.api.Send(tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, inlineKeyboard(options)))
	return err
}

// Notify implements scheduler.Notifier.
func (t *Telegram) Notify(chatID int64, description string) error {
	return t.SendText(chatID, "⏰ Reminder: "+description)
}

func inlineKeyboard(options []MenuOption) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(options))
	for _, o := range options {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(o.Label, o.Callback)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
