package notify

import (
	"fmt"
	"strconv"

	"shiftdesk/pkg/models"
)

// Action is what happened to a shift record.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// DetermineAction classifies a shift write: no prior record and non-null
// data is a create, null data is a delete, anything else is an update.
func DetermineAction(existed bool, data *models.Shift) Action {
	switch {
	case data == nil:
		return ActionDeleted
	case !existed:
		return ActionCreated
	default:
		return ActionUpdated
	}
}

func actionHeader(a Action) string {
	switch a {
	case ActionCreated:
		return "🆕 Shift added"
	case ActionDeleted:
		return "❌ Shift removed"
	default:
		return "✏️ Shift updated"
	}
}

// ComposeShiftChange builds the human-readable shift change message. sh may
// be nil for deletions, in which case no detail line is emitted. Composition
// is pure; delivery is the transport's job.
func ComposeShiftChange(employeeName, dateLabel string, sh *models.Shift, action Action) string {
	msg := actionHeader(action) + "\n" + employeeName + ", " + dateLabel
	if sh != nil {
		if d := ShiftDetail(*sh); d != "" {
			msg += "\n" + d
		}
	}
	return msg
}

// ShiftDetail renders the one-line description of a shift's contents.
func ShiftDetail(sh models.Shift) string {
	switch sh.Type {
	case models.ShiftWork:
		d := formatHours(sh.Hours) + " hours"
		switch sh.Cleaning {
		case models.CleaningRegular:
			d += " + cleaning"
		case models.CleaningFull:
			d += " + full cleaning"
		}
		return d
	case models.ShiftOff:
		return "day off"
	case models.ShiftVacation:
		return "vacation"
	case models.ShiftSick:
		return "sick leave"
	}
	return ""
}

// ComposeEmployeeAdded is the fixed roster-grew template.
func ComposeEmployeeAdded(name string) string {
	return "👋 New employee: " + name
}

// ComposeEmployeeRemoved is the fixed roster-shrank template.
func ComposeEmployeeRemoved(name string) string {
	return "🗑 Employee removed: " + name
}

// DateLabel renders a zero-based month date as DD.MM.YYYY.
func DateLabel(year, month, day int) string {
	return fmt.Sprintf("%02d.%02d.%d", day, month+1, year)
}

func formatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', -1, 64)
}
