package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"shiftdesk/pkg/logger"
)

// Transport delivers replies to chats. The Telegram implementation is the
// production one; tests substitute a recorder.
type Transport interface {
	Send(ctx context.Context, chatID int64, text string) error
	SendReply(ctx context.Context, chatID int64, r Reply) error
	AnswerCallback(ctx context.Context, callbackID string) error
}

// Telegram wraps the Bot API client.
type Telegram struct {
	api *tgbotapi.BotAPI
}

func NewTelegram(token string) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	logger.Info("telegram_bot_authorized", zap.String("username", api.Self.UserName))
	return &Telegram{api: api}, nil
}

// SetWebhook points Telegram at our webhook endpoint.
func (t *Telegram) SetWebhook(url string) error {
	wh, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return err
	}
	if _, err := t.api.Request(wh); err != nil {
		return err
	}
	logger.Info("telegram_webhook_set", zap.String("url", url))
	return nil
}

// Send delivers plain text. Satisfies notify.Sender.
func (t *Telegram) Send(_ context.Context, chatID int64, text string) error {
	_, err := t.api.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

// SendReply delivers text with an optional inline keyboard.
func (t *Telegram) SendReply(_ context.Context, chatID int64, r Reply) error {
	if r.Text == "" {
		return nil
	}
	msg := tgbotapi.NewMessage(chatID, r.Text)
	if len(r.Keyboard) > 0 {
		msg.ReplyMarkup = toInlineKeyboard(r.Keyboard)
	}
	_, err := t.api.Send(msg)
	return err
}

// AnswerCallback acknowledges a button press so the client stops its
// spinner.
func (t *Telegram) AnswerCallback(_ context.Context, callbackID string) error {
	_, err := t.api.Request(tgbotapi.NewCallback(callbackID, ""))
	return err
}

func toInlineKeyboard(kb [][]Button) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(kb))
	for _, row := range kb {
		btns := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			btns = append(btns, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
		}
		rows = append(rows, btns)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
