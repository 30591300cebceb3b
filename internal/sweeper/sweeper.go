package sweeper

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"
	"go.uber.org/zap"

	"shiftdesk/pkg/logger"
	"shiftdesk/pkg/models"
	"shiftdesk/pkg/store"
)

// Sweeper is a scheduled integrity pass: it removes shift keys whose
// employee no longer exists and drops dead employee ids from subscription
// subjects. Employee deletion already cascades inline; the sweep repairs
// whatever a crash between those writes left behind.

const defaultCron = "0 3 * * *"

// Start launches the sweep scheduler when enabled. Returns a cancel func.
func Start(ctx context.Context, st *store.Store, enabled bool, cronExpr string) (context.CancelFunc, error) {
	if !enabled {
		logger.Info("sweep_disabled")
		return func() {}, nil
	}
	if cronExpr == "" {
		cronExpr = defaultCron
	}
	if !gronx.IsValid(cronExpr) {
		logger.Error("sweep_invalid_cron", zap.String("cron", cronExpr))
		return nil, fmt.Errorf("invalid sweep cron expression: %s", cronExpr)
	}

	logger.Info("sweep_enabled", zap.String("cron", cronExpr))
	ctx2, cancel := context.WithCancel(ctx)
	go runScheduler(ctx2, st, cronExpr)
	return cancel, nil
}

// runScheduler computes the next tick with gronx and sleeps until then.
func runScheduler(ctx context.Context, st *store.Store, cronExpr string) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("sweep_scheduler_stopping")
			return
		default:
		}

		now := time.Now().UTC()
		next, err := gronx.NextTickAfter(cronExpr, now, false)
		if err != nil {
			logger.Error("sweep_nexttick_failed", zap.String("cron", cronExpr), zap.Error(err))
			select {
			case <-time.After(30 * time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		select {
		case <-time.After(time.Until(next)):
		case <-ctx.Done():
			logger.Info("sweep_scheduler_stopping")
			return
		}

		if shifts, subs, err := RunOnce(st); err != nil {
			logger.Error("sweep_run_failed", zap.Error(err))
		} else if shifts > 0 || subs > 0 {
			logger.Info("sweep_run_done", zap.Int("orphan_shifts", shifts), zap.Int("pruned_subscriptions", subs))
		}
	}
}

// RunOnce performs a single sweep and reports the number of orphaned shift
// keys removed and subscriptions pruned.
func RunOnce(st *store.Store) (orphanShifts, prunedSubs int, err error) {
	ids, err := st.EmployeeIDs()
	if err != nil {
		return 0, 0, err
	}
	alive := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		alive[id] = struct{}{}
	}

	shifts, err := st.ListShifts("")
	if err != nil {
		return 0, 0, err
	}
	for key := range shifts {
		empID, _, _, _, perr := models.ParseShiftKey(key)
		if perr != nil {
			logger.Warn("sweep_unparseable_shift_key", zap.String("key", key), zap.Error(perr))
			continue
		}
		if _, ok := alive[empID]; ok {
			continue
		}
		if derr := st.DeleteShift(key); derr != nil {
			return orphanShifts, prunedSubs, derr
		}
		orphanShifts++
	}

	subs, err := st.ListSubscriptions()
	if err != nil {
		return orphanShifts, prunedSubs, err
	}
	for _, sub := range subs {
		next := sub.SubscribedTo
		for _, id := range sub.SubscribedTo.IDs() {
			if _, ok := alive[id]; !ok {
				next = next.Remove(id)
			}
		}
		next = next.Normalize(ids)
		if subjectsEqual(sub.SubscribedTo, next) {
			continue
		}
		sub.SubscribedTo = next
		if serr := st.SaveSubscription(sub); serr != nil {
			return orphanShifts, prunedSubs, serr
		}
		prunedSubs++
	}
	return orphanShifts, prunedSubs, nil
}

func subjectsEqual(a, b models.Subjects) bool {
	if a.All() != b.All() {
		return false
	}
	ai, bi := a.IDs(), b.IDs()
	if len(ai) != len(bi) {
		return false
	}
	for i := range ai {
		if ai[i] != bi[i] {
			return false
		}
	}
	return true
}
