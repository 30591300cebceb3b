package calendar

import (
	"fmt"
	"time"

	"shiftdesk/pkg/models"
	"shiftdesk/pkg/store"
)

// Cell symbols. One distinct symbol per shift type and cleaning combination,
// plus unfilled days and leading/trailing padding.
const (
	SymbolWork         = "🔵"
	SymbolWorkCleaning = "🧹"
	SymbolWorkFullCln  = "🪣"
	SymbolOff          = "⚪"
	SymbolVacation     = "🏖"
	SymbolSick         = "🤒"
	SymbolUnfilled     = "▫️"
	SymbolPad          = "➖"
	TodayMark          = "📍"
)

// Stats are the month aggregates accumulated during the grid walk.
type Stats struct {
	TotalShifts  int     `json:"totalShifts"`
	TotalHours   float64 `json:"totalHours"`
	Cleaning     int     `json:"totalCleaning"`
	FullCleaning int     `json:"totalFullCleaning"`
	Off          int     `json:"off"`
	Vacation     int     `json:"vacation"`
	Sick         int     `json:"sick"`
}

// Target is one actionable control in the view: a label and an opaque
// callback identifier the transport round-trips.
type Target struct {
	Label    string
	Callback string
}

// View is a render-target-agnostic month: symbol rows (Monday-first, rows
// break after Sunday), aggregates and the navigation/menu targets.
type View struct {
	EmployeeID   string
	EmployeeName string
	Year         int
	Month        int // zero-based
	Rows         [][]string
	Stats        Stats
	Prev         Target
	Today        Target
	Next         Target
	ChangeEmp    Target
	MainMenu     Target
}

// Renderer builds month views from the store. The clock is injectable so
// tests can pin "today".
type Renderer struct {
	store *store.Store
	now   func() time.Time
}

func New(st *store.Store) *Renderer {
	return &Renderer{store: st, now: time.Now}
}

// NewWithClock is the test constructor.
func NewWithClock(st *store.Store, now func() time.Time) *Renderer {
	return &Renderer{store: st, now: now}
}

// ScheduleCallback builds the calendar callback identifier for an employee
// and zero-based month.
func ScheduleCallback(employeeID string, year, month int) string {
	return fmt.Sprintf("schedule_%s_%d_%d", employeeID, year, month)
}

// mondayIndex remaps Go's Sunday-first weekday to Monday=0..Sunday=6.
func mondayIndex(d time.Weekday) int {
	if d == time.Sunday {
		return 6
	}
	return int(d) - 1
}

// Render produces the View for one employee's month. Month is zero-based.
// Returns store.ErrNotFound when the employee id does not resolve.
func (r *Renderer) Render(employeeID string, year, month int) (View, error) {
	emp, err := r.store.GetEmployee(employeeID)
	if err != nil {
		return View{}, err
	}

	first := time.Date(year, time.Month(month+1), 1, 0, 0, 0, 0, time.UTC)
	daysInMonth := time.Date(year, time.Month(month+2), 0, 0, 0, 0, 0, time.UTC).Day()
	offset := mondayIndex(first.Weekday())

	shifts, err := r.store.ListShifts(models.ShiftMonthPrefix(employeeID, year, month))
	if err != nil {
		return View{}, err
	}

	now := r.now()
	isCurrentMonth := now.Year() == year && int(now.Month())-1 == month

	v := View{
		EmployeeID:   employeeID,
		EmployeeName: emp.Name,
		Year:         year,
		Month:        month,
	}

	row := make([]string, 0, 7)
	for i := 0; i < offset; i++ {
		row = append(row, SymbolPad)
	}
	for day := 1; day <= daysInMonth; day++ {
		sh, ok := shifts[models.ShiftKey(employeeID, year, month, day)]
		sym := SymbolUnfilled
		if ok {
			sym = symbolFor(sh)
			v.Stats.accumulate(sh)
		}
		if isCurrentMonth && day == now.Day() {
			sym += TodayMark
		}
		row = append(row, sym)
		if len(row) == 7 {
			v.Rows = append(v.Rows, row)
			row = make([]string, 0, 7)
		}
	}
	if len(row) > 0 {
		for len(row) < 7 {
			row = append(row, SymbolPad)
		}
		v.Rows = append(v.Rows, row)
	}

	prevYear, prevMonth := year, month-1
	if prevMonth < 0 {
		prevMonth = 11
		prevYear--
	}
	nextYear, nextMonth := year, month+1
	if nextMonth > 11 {
		nextMonth = 0
		nextYear++
	}
	v.Prev = Target{Label: "◀️", Callback: ScheduleCallback(employeeID, prevYear, prevMonth)}
	v.Today = Target{Label: "📅 Today", Callback: ScheduleCallback(employeeID, now.Year(), int(now.Month())-1)}
	v.Next = Target{Label: "▶️", Callback: ScheduleCallback(employeeID, nextYear, nextMonth)}
	v.ChangeEmp = Target{Label: "👥 Change employee", Callback: "schedule_select"}
	v.MainMenu = Target{Label: "🏠 Main menu", Callback: "menu"}
	return v, nil
}

func symbolFor(sh models.Shift) string {
	switch sh.Type {
	case models.ShiftWork:
		switch sh.Cleaning {
		case models.CleaningRegular:
			return SymbolWorkCleaning
		case models.CleaningFull:
			return SymbolWorkFullCln
		}
		return SymbolWork
	case models.ShiftOff:
		return SymbolOff
	case models.ShiftVacation:
		return SymbolVacation
	case models.ShiftSick:
		return SymbolSick
	}
	return SymbolUnfilled
}

func (s *Stats) accumulate(sh models.Shift) {
	switch sh.Type {
	case models.ShiftWork:
		s.TotalShifts++
		s.TotalHours += sh.Hours
		switch sh.Cleaning {
		case models.CleaningRegular:
			s.Cleaning++
		case models.CleaningFull:
			s.FullCleaning++
		}
	case models.ShiftOff:
		s.Off++
	case models.ShiftVacation:
		s.Vacation++
	case models.ShiftSick:
		s.Sick++
	}
}

// Summary renders the stats block as text lines.
func (s Stats) Summary() string {
	out := fmt.Sprintf("Shifts: %d\nHours: %g", s.TotalShifts, s.TotalHours)
	if s.Cleaning > 0 {
		out += fmt.Sprintf("\nCleaning: %d", s.Cleaning)
	}
	if s.FullCleaning > 0 {
		out += fmt.Sprintf("\nFull cleaning: %d", s.FullCleaning)
	}
	if s.Off > 0 {
		out += fmt.Sprintf("\nDays off: %d", s.Off)
	}
	if s.Vacation > 0 {
		out += fmt.Sprintf("\nVacation: %d", s.Vacation)
	}
	if s.Sick > 0 {
		out += fmt.Sprintf("\nSick: %d", s.Sick)
	}
	return out
}
