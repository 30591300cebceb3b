package models

import (
	"fmt"
	"strings"
)

type ShiftType string

const (
	ShiftWork     ShiftType = "work"
	ShiftOff      ShiftType = "off"
	ShiftVacation ShiftType = "vacation"
	ShiftSick     ShiftType = "sick"
)

type CleaningKind string

const (
	CleaningNone    CleaningKind = ""
	CleaningRegular CleaningKind = "cleaning"
	CleaningFull    CleaningKind = "fullCleaning"
)

// Shift is one day's record for one employee. Hours and Cleaning are only
// meaningful for work shifts. A shift exists only for days explicitly set;
// absence means unfilled.
type Shift struct {
	Type     ShiftType    `json:"type"`
	Hours    float64      `json:"hours,omitempty"`
	Cleaning CleaningKind `json:"cleaning,omitempty"`
}

// ValidType reports whether the shift carries one of the known types.
func (s Shift) ValidType() bool {
	switch s.Type {
	case ShiftWork, ShiftOff, ShiftVacation, ShiftSick:
		return true
	}
	return false
}

// ShiftKey builds the flat shift key "{employeeId}_{year}-{month}-{day}".
// Month is zero-based, matching the stored layout.
func ShiftKey(employeeID string, year, month, day int) string {
	return fmt.Sprintf("%s_%d-%d-%d", employeeID, year, month, day)
}

// ShiftMonthPrefix is the key prefix covering every day of one employee's
// month.
func ShiftMonthPrefix(employeeID string, year, month int) string {
	return fmt.Sprintf("%s_%d-%d-", employeeID, year, month)
}

// ParseShiftKey splits a flat shift key into employee id and zero-based
// date parts. The employee id may itself contain underscores, so the date
// segment is taken after the last underscore.
func ParseShiftKey(key string) (employeeID string, year, month, day int, err error) {
	i := strings.LastIndex(key, "_")
	if i <= 0 || i == len(key)-1 {
		return "", 0, 0, 0, fmt.Errorf("malformed shift key: %q", key)
	}
	employeeID = key[:i]
	if _, serr := fmt.Sscanf(key[i+1:], "%d-%d-%d", &year, &month, &day); serr != nil {
		return "", 0, 0, 0, fmt.Errorf("malformed shift key date: %q", key)
	}
	if month < 0 || month > 11 || day < 1 || day > 31 {
		return "", 0, 0, 0, fmt.Errorf("shift key date out of range: %q", key)
	}
	return employeeID, year, month, day, nil
}
