package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"shiftdesk/pkg/calendar"
	"shiftdesk/pkg/logger"
	"shiftdesk/pkg/models"
	"shiftdesk/pkg/notify"
	"shiftdesk/pkg/store"
)

// Button is one inline control: visible text plus the callback identifier
// round-tripped by the transport.
type Button struct {
	Text string
	Data string
}

// Reply is what a dispatch produces: text and an optional inline keyboard.
// An empty Text means nothing to send (store failure already logged).
type Reply struct {
	Text     string
	Keyboard [][]Button
}

const helpText = `Shift schedule bot.

/schedule - view an employee's calendar
/list - choose whose changes you follow
/settings - current notification settings
/subscribe - follow all employees
/unsubscribe - follow nobody
/stop - pause all notifications
/help - this text`

// Dispatcher maps inbound command text and callback identifiers to actions.
// It is stateless: every branch reads and writes through the store, and any
// branch that mutates a subscription re-reads it before rendering so the
// displayed state always reflects the just-applied change.
type Dispatcher struct {
	store *store.Store
	cal   *calendar.Renderer
	now   func() time.Time
}

func NewDispatcher(st *store.Store, cal *calendar.Renderer) *Dispatcher {
	return &Dispatcher{store: st, cal: cal, now: time.Now}
}

// NewDispatcherWithClock pins the clock for tests.
func NewDispatcherWithClock(st *store.Store, cal *calendar.Renderer, now func() time.Time) *Dispatcher {
	return &Dispatcher{store: st, cal: cal, now: now}
}

// HandleCommand dispatches inbound message text (case-insensitive, trimmed).
func (d *Dispatcher) HandleCommand(ctx context.Context, chatID int64, text string) Reply {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "/start":
		if !d.upsertSubscription(chatID) {
			return Reply{}
		}
		return d.mainMenu("Hello! I post shift schedule updates here.")
	case "/help":
		return Reply{Text: helpText}
	case "/schedule":
		return d.employeePicker()
	case "/list":
		return d.toggleMenu(chatID)
	case "/settings":
		return d.settingsView(chatID)
	case "/subscribe":
		return d.setSubjects(chatID, models.AllEmployees(), true, "Subscribed to all employees.")
	case "/unsubscribe":
		return d.setSubjects(chatID, models.SubjectsOf(), false, "Unsubscribed from everyone.")
	case "/stop":
		return d.deactivate(chatID)
	default:
		r := d.mainMenu("Unknown command. Try one of these:")
		return r
	}
}

// HandleCallback dispatches an inline-button press by callback identifier.
func (d *Dispatcher) HandleCallback(ctx context.Context, chatID int64, data string) Reply {
	switch {
	case data == "menu":
		return d.mainMenu("Main menu")
	case data == "schedule_select":
		return d.employeePicker()
	case strings.HasPrefix(data, "schedule_"):
		return d.calendarView(data)
	case data == "notifications":
		return d.toggleMenu(chatID)
	case data == "settings":
		return d.settingsView(chatID)
	case data == "toggle_all":
		return d.toggle(chatID, "")
	case strings.HasPrefix(data, "toggle_"):
		return d.toggle(chatID, strings.TrimPrefix(data, "toggle_"))
	default:
		return d.mainMenu("Unknown action.")
	}
}

func (d *Dispatcher) mainMenu(text string) Reply {
	return Reply{
		Text: text,
		Keyboard: [][]Button{
			{{Text: "📅 Schedule", Data: "schedule_select"}},
			{{Text: "🔔 Notifications", Data: "notifications"}},
			{{Text: "⚙️ Settings", Data: "settings"}},
		},
	}
}

// upsertSubscription creates the default subscription on first contact or
// reactivates an existing one. Reports success.
func (d *Dispatcher) upsertSubscription(chatID int64) bool {
	sub, err := d.store.GetSubscription(chatID)
	if errors.Is(err, store.ErrNotFound) {
		sub = models.NewSubscription(chatID)
	} else if err != nil {
		logger.Error("bot_subscription_load_failed", zap.Int64("chat", chatID), zap.Error(err))
		return false
	} else {
		sub.Active = true
	}
	if err := d.store.SaveSubscription(sub); err != nil {
		logger.Error("bot_subscription_save_failed", zap.Int64("chat", chatID), zap.Error(err))
		return false
	}
	return true
}

func (d *Dispatcher) setSubjects(chatID int64, subjects models.Subjects, activate bool, confirmation string) Reply {
	sub, err := d.store.GetSubscription(chatID)
	if errors.Is(err, store.ErrNotFound) {
		sub = models.NewSubscription(chatID)
	} else if err != nil {
		logger.Error("bot_subscription_load_failed", zap.Int64("chat", chatID), zap.Error(err))
		return Reply{}
	}
	sub.SubscribedTo = subjects
	if activate {
		sub.Active = true
	}
	if err := d.store.SaveSubscription(sub); err != nil {
		logger.Error("bot_subscription_save_failed", zap.Int64("chat", chatID), zap.Error(err))
		return Reply{}
	}
	return Reply{Text: confirmation}
}

func (d *Dispatcher) deactivate(chatID int64) Reply {
	sub, err := d.store.GetSubscription(chatID)
	if errors.Is(err, store.ErrNotFound) {
		sub = models.NewSubscription(chatID)
	} else if err != nil {
		logger.Error("bot_subscription_load_failed", zap.Int64("chat", chatID), zap.Error(err))
		return Reply{}
	}
	sub.Active = false
	if err := d.store.SaveSubscription(sub); err != nil {
		logger.Error("bot_subscription_save_failed", zap.Int64("chat", chatID), zap.Error(err))
		return Reply{}
	}
	return Reply{Text: "Notifications paused. Send /start to resume."}
}

func (d *Dispatcher) employeePicker() Reply {
	emps, err := d.store.ListEmployees()
	if err != nil {
		logger.Error("bot_list_employees_failed", zap.Error(err))
		return Reply{}
	}
	if len(emps) == 0 {
		return Reply{Text: "No employees yet."}
	}
	now := d.now()
	kb := make([][]Button, 0, len(emps)+1)
	for _, e := range emps {
		kb = append(kb, []Button{{
			Text: e.Name,
			Data: calendar.ScheduleCallback(e.ID, now.Year(), int(now.Month())-1),
		}})
	}
	kb = append(kb, []Button{{Text: "🏠 Main menu", Data: "menu"}})
	return Reply{Text: "Whose schedule?", Keyboard: kb}
}

// calendarView handles "schedule_{empId}_{year}_{month}". The employee id
// may contain underscores, so year and month are taken from the tail.
func (d *Dispatcher) calendarView(data string) Reply {
	parts := strings.Split(data, "_")
	if len(parts) < 4 {
		return d.mainMenu("Unknown action.")
	}
	empID := strings.Join(parts[1:len(parts)-2], "_")
	year, err1 := strconv.Atoi(parts[len(parts)-2])
	month, err2 := strconv.Atoi(parts[len(parts)-1])
	if err1 != nil || err2 != nil || month < 0 || month > 11 {
		return d.mainMenu("Unknown action.")
	}
	v, err := d.cal.Render(empID, year, month)
	if errors.Is(err, store.ErrNotFound) {
		return Reply{Text: "Employee not found."}
	}
	if err != nil {
		logger.Error("bot_calendar_render_failed", zap.String("employee", empID), zap.Error(err))
		return Reply{}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📅 %s, %s %d\n", v.EmployeeName, time.Month(month+1), year)
	b.WriteString("Mo Tu We Th Fr Sa Su\n")
	for _, row := range v.Rows {
		b.WriteString(strings.Join(row, " "))
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	b.WriteString(v.Stats.Summary())

	kb := [][]Button{
		{
			{Text: v.Prev.Label, Data: v.Prev.Callback},
			{Text: v.Today.Label, Data: v.Today.Callback},
			{Text: v.Next.Label, Data: v.Next.Callback},
		},
		{{Text: v.ChangeEmp.Label, Data: v.ChangeEmp.Callback}},
		{{Text: v.MainMenu.Label, Data: v.MainMenu.Callback}},
	}
	return Reply{Text: b.String(), Keyboard: kb}
}

// toggle flips one subject (empty id means the "all" sentinel) and
// redisplays the menu from the re-read record.
func (d *Dispatcher) toggle(chatID int64, employeeID string) Reply {
	sub, err := d.store.GetSubscription(chatID)
	if errors.Is(err, store.ErrNotFound) {
		sub = models.NewSubscription(chatID)
	} else if err != nil {
		logger.Error("bot_subscription_load_failed", zap.Int64("chat", chatID), zap.Error(err))
		return Reply{}
	}
	if employeeID == "" {
		sub.SubscribedTo = sub.SubscribedTo.ToggleAll()
	} else {
		everyone, err := d.store.EmployeeIDs()
		if err != nil {
			logger.Error("bot_list_employees_failed", zap.Error(err))
			return Reply{}
		}
		sub.SubscribedTo = sub.SubscribedTo.Toggle(employeeID, everyone)
	}
	if err := d.store.SaveSubscription(sub); err != nil {
		logger.Error("bot_subscription_save_failed", zap.Int64("chat", chatID), zap.Error(err))
		return Reply{}
	}
	return d.toggleMenu(chatID)
}

func (d *Dispatcher) toggleMenu(chatID int64) Reply {
	sub, err := d.store.GetSubscription(chatID)
	if errors.Is(err, store.ErrNotFound) {
		sub = models.NewSubscription(chatID)
		if err := d.store.SaveSubscription(sub); err != nil {
			logger.Error("bot_subscription_save_failed", zap.Int64("chat", chatID), zap.Error(err))
			return Reply{}
		}
	} else if err != nil {
		logger.Error("bot_subscription_load_failed", zap.Int64("chat", chatID), zap.Error(err))
		return Reply{}
	}
	emps, err := d.store.ListEmployees()
	if err != nil {
		logger.Error("bot_list_employees_failed", zap.Error(err))
		return Reply{}
	}

	kb := make([][]Button, 0, len(emps)+2)
	kb = append(kb, []Button{{Text: checkbox(sub.Active && sub.SubscribedTo.All()) + " All employees", Data: "toggle_all"}})
	for _, e := range emps {
		kb = append(kb, []Button{{
			Text: checkbox(notify.Matches(sub, e.ID)) + " " + e.Name,
			Data: "toggle_" + e.ID,
		}})
	}
	kb = append(kb, []Button{{Text: "🏠 Main menu", Data: "menu"}})
	return Reply{Text: "Whose shift changes should I report?", Keyboard: kb}
}

func (d *Dispatcher) settingsView(chatID int64) Reply {
	sub, err := d.store.GetSubscription(chatID)
	if errors.Is(err, store.ErrNotFound) {
		return Reply{Text: "No subscription yet. Send /start first."}
	}
	if err != nil {
		logger.Error("bot_subscription_load_failed", zap.Int64("chat", chatID), zap.Error(err))
		return Reply{}
	}

	var scope string
	switch {
	case sub.SubscribedTo.All():
		scope = "all employees"
	case sub.SubscribedTo.Len() == 0:
		scope = "nobody"
	default:
		names := make([]string, 0, sub.SubscribedTo.Len())
		for _, id := range sub.SubscribedTo.IDs() {
			if e, err := d.store.GetEmployee(id); err == nil {
				names = append(names, e.Name)
			}
		}
		scope = strings.Join(names, ", ")
	}

	text := "⚙️ Notification settings\n" +
		"Active: " + onOff(sub.Active) + "\n" +
		"Following: " + scope + "\n" +
		"New employee alerts: " + onOff(sub.NotifyNewEmployee) + "\n" +
		"Removed employee alerts: " + onOff(sub.NotifyDeleteEmployee)
	return Reply{Text: text, Keyboard: [][]Button{{{Text: "🏠 Main menu", Data: "menu"}}}}
}

func checkbox(on bool) string {
	if on {
		return "✅"
	}
	return "⬜"
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
