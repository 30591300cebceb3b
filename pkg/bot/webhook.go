package bot

import (
	"encoding/json"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"shiftdesk/pkg/logger"
	"shiftdesk/pkg/utils"
)

// WebhookHandler decodes a Telegram update envelope, dispatches it and sends
// the reply. It always acknowledges with 200: the upstream transport is
// at-most-once best-effort, so internal failures are logged, never surfaced.
func WebhookHandler(d *Dispatcher, t Transport) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			_ = utils.JSONWrite(w, http.StatusOK, map[string]bool{"ok": true})
		}()

		var upd tgbotapi.Update
		if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
			logger.Warn("webhook_bad_update", zap.Error(err))
			return
		}

		ctx := r.Context()
		switch {
		case upd.Message != nil && upd.Message.Chat != nil:
			chatID := upd.Message.Chat.ID
			reply := d.HandleCommand(ctx, chatID, upd.Message.Text)
			if err := t.SendReply(ctx, chatID, reply); err != nil {
				logger.Warn("webhook_reply_failed", zap.Int64("chat", chatID), zap.Error(err))
			}
		case upd.CallbackQuery != nil && upd.CallbackQuery.Message != nil && upd.CallbackQuery.Message.Chat != nil:
			cq := upd.CallbackQuery
			chatID := cq.Message.Chat.ID
			if err := t.AnswerCallback(ctx, cq.ID); err != nil {
				logger.Debug("webhook_answer_callback_failed", zap.Error(err))
			}
			reply := d.HandleCallback(ctx, chatID, cq.Data)
			if err := t.SendReply(ctx, chatID, reply); err != nil {
				logger.Warn("webhook_reply_failed", zap.Int64("chat", chatID), zap.Error(err))
			}
		default:
			logger.Debug("webhook_update_ignored")
		}
	}
}
