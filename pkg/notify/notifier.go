package notify

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"shiftdesk/pkg/logger"
	"shiftdesk/pkg/models"
	"shiftdesk/pkg/store"
)

// Notifier turns store mutations into bot messages: it matches the active
// subscriptions against the event's subject, composes the text and fans it
// out. All failures are logged and swallowed; API handlers fire these in a
// goroutine and never wait on delivery.
type Notifier struct {
	store  *store.Store
	sender Sender
	limit  int
}

func New(st *store.Store, sender Sender) *Notifier {
	return &Notifier{store: st, sender: sender, limit: defaultFanoutLimit}
}

// ShiftChanged notifies subscribers scoped to the shift's employee. key is
// the flat shift key; sh is nil for deletions.
func (n *Notifier) ShiftChanged(ctx context.Context, key string, sh *models.Shift, action Action) {
	empID, year, month, day, err := models.ParseShiftKey(key)
	if err != nil {
		logger.Warn("shift_change_bad_key", zap.String("key", key), zap.Error(err))
		return
	}
	emp, err := n.store.GetEmployee(empID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			logger.Error("shift_change_employee_lookup", zap.String("employee", empID), zap.Error(err))
		}
		return
	}
	text := ComposeShiftChange(emp.Name, DateLabel(year, month, day), sh, action)
	n.deliver(ctx, text, func(sub models.Subscription) bool {
		return Matches(sub, empID)
	})
}

// EmployeeAdded notifies subscribers that opted into roster-grew events.
func (n *Notifier) EmployeeAdded(ctx context.Context, name string) {
	n.deliver(ctx, ComposeEmployeeAdded(name), WantsNewEmployee)
}

// EmployeeRemoved notifies subscribers that opted into roster-shrank events.
func (n *Notifier) EmployeeRemoved(ctx context.Context, name string) {
	n.deliver(ctx, ComposeEmployeeRemoved(name), WantsDeleteEmployee)
}

func (n *Notifier) deliver(ctx context.Context, text string, want func(models.Subscription) bool) {
	subs, err := n.store.ListSubscriptions()
	if err != nil {
		logger.Error("notify_list_subscriptions_failed", zap.Error(err))
		return
	}
	var recipients []int64
	for _, sub := range subs {
		if want(sub) {
			recipients = append(recipients, sub.ChatID)
		}
	}
	if len(recipients) == 0 {
		return
	}
	results := Fanout(ctx, n.sender, recipients, text, n.limit)
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	logger.Info("notification_fanout_done",
		zap.Int("recipients", len(recipients)), zap.Int("failed", failed))
}
