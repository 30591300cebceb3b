package notify

import (
	"context"

	"go.uber.org/zap"

	"shiftdesk/pkg/logger"
)

// NopSender logs instead of delivering. Used when no bot token is
// configured so the notification path stays exercised in development.
type NopSender struct{}

func (NopSender) Send(_ context.Context, chatID int64, text string) error {
	logger.Debug("notification_dropped_no_transport",
		zap.Int64("chat", chatID), zap.String("text", text))
	return nil
}
