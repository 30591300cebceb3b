package notify

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"shiftdesk/pkg/logger"
	"shiftdesk/pkg/telemetry"
)

// Sender delivers one message to one chat. The real implementation is the
// bot transport; tests substitute a recorder.
type Sender interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// Result is the delivery outcome for one recipient.
type Result struct {
	ChatID int64
	Err    error
}

// defaultFanoutLimit caps concurrent sends per event.
const defaultFanoutLimit = 4

// Fanout delivers text to every chat id with bounded concurrency. Each
// send's failure is captured into the results and logged; it never aborts
// delivery to the remaining recipients and never returns an error itself.
func Fanout(ctx context.Context, s Sender, chatIDs []int64, text string, limit int) []Result {
	if limit <= 0 {
		limit = defaultFanoutLimit
	}
	results := make([]Result, len(chatIDs))
	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup
	for i, id := range chatIDs {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, id int64) {
			defer wg.Done()
			defer func() { <-sem }()
			err := s.Send(ctx, id, text)
			results[i] = Result{ChatID: id, Err: err}
			if err != nil {
				telemetry.NotificationFailed()
				logger.Warn("notification_send_failed", zap.Int64("chat", id), zap.Error(err))
				return
			}
			telemetry.NotificationSent()
		}(i, id)
	}
	wg.Wait()
	return results
}
