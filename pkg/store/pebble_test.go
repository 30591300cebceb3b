package store

import (
	"errors"
	"testing"

	"shiftdesk/pkg/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestShiftRoundTrip(t *testing.T) {
	s := openTestStore(t)

	key := models.ShiftKey("e1", 2024, 2, 15)
	in := models.Shift{Type: models.ShiftWork, Hours: 8, Cleaning: models.CleaningRegular}
	if err := s.SaveShift(key, in); err != nil {
		t.Fatalf("SaveShift: %v", err)
	}

	got, err := s.GetShift(key)
	if err != nil {
		t.Fatalf("GetShift: %v", err)
	}
	if got != in {
		t.Fatalf("expected %+v; got %+v", in, got)
	}

	if err := s.DeleteShift(key); err != nil {
		t.Fatalf("DeleteShift: %v", err)
	}
	if _, err := s.GetShift(key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete; got %v", err)
	}
	// deleting again stays a no-op
	if err := s.DeleteShift(key); err != nil {
		t.Fatalf("DeleteShift absent key: %v", err)
	}
}

// ListShifts with a month prefix must return only that employee's month, with
// the API-visible flat keys intact.
func TestListShiftsByMonthPrefix(t *testing.T) {
	s := openTestStore(t)

	put := func(key string, sh models.Shift) {
		t.Helper()
		if err := s.SaveShift(key, sh); err != nil {
			t.Fatalf("SaveShift %s: %v", key, err)
		}
	}
	put(models.ShiftKey("e1", 2024, 2, 1), models.Shift{Type: models.ShiftWork, Hours: 8})
	put(models.ShiftKey("e1", 2024, 2, 15), models.Shift{Type: models.ShiftOff})
	put(models.ShiftKey("e1", 2024, 3, 1), models.Shift{Type: models.ShiftWork, Hours: 8})
	put(models.ShiftKey("e2", 2024, 2, 1), models.Shift{Type: models.ShiftSick})

	got, err := s.ListShifts(models.ShiftMonthPrefix("e1", 2024, 2))
	if err != nil {
		t.Fatalf("ListShifts: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 shifts; got %d: %v", len(got), got)
	}
	if _, ok := got["e1_2024-2-15"]; !ok {
		t.Fatalf("expected flat key e1_2024-2-15 in %v", got)
	}

	all, err := s.ListShifts("")
	if err != nil {
		t.Fatalf("ListShifts all: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 shifts total; got %d", len(all))
	}
}

func TestListEmployeesSortedByName(t *testing.T) {
	s := openTestStore(t)

	for _, e := range []models.Employee{
		{ID: "e1", Name: "Zoe", Color: "#ff6b6b"},
		{ID: "e2", Name: "Anna", Color: "#4ecdc4"},
		{ID: "e3", Name: "Mark", Color: "#45b7d1"},
	} {
		if err := s.SaveEmployee(e); err != nil {
			t.Fatalf("SaveEmployee: %v", err)
		}
	}
	emps, err := s.ListEmployees()
	if err != nil {
		t.Fatalf("ListEmployees: %v", err)
	}
	names := []string{"Anna", "Mark", "Zoe"}
	if len(emps) != len(names) {
		t.Fatalf("expected %d employees; got %d", len(names), len(emps))
	}
	for i, n := range names {
		if emps[i].Name != n {
			t.Fatalf("expected %s at %d; got %s", n, i, emps[i].Name)
		}
	}
}

// Deleting an employee cascades over its shifts and prunes explicit
// subscription references, renormalizing against the surviving roster.
func TestDeleteEmployeeCascades(t *testing.T) {
	s := openTestStore(t)

	for _, e := range []models.Employee{
		{ID: "e1", Name: "Anna"},
		{ID: "e2", Name: "Mark"},
	} {
		if err := s.SaveEmployee(e); err != nil {
			t.Fatalf("SaveEmployee: %v", err)
		}
	}
	for _, key := range []string{
		models.ShiftKey("e1", 2024, 2, 1),
		models.ShiftKey("e1", 2024, 3, 2),
		models.ShiftKey("e2", 2024, 2, 1),
	} {
		if err := s.SaveShift(key, models.Shift{Type: models.ShiftWork, Hours: 8}); err != nil {
			t.Fatalf("SaveShift: %v", err)
		}
	}

	// explicit set referencing the victim, sentinel set, and explicit set of
	// the survivor (which must collapse to the sentinel after the delete)
	subExplicit := models.NewSubscription(1)
	subExplicit.SubscribedTo = models.SubjectsOf("e1")
	subAll := models.NewSubscription(2)
	subSurvivor := models.NewSubscription(3)
	subSurvivor.SubscribedTo = models.SubjectsOf("e2")
	for _, sub := range []models.Subscription{subExplicit, subAll, subSurvivor} {
		if err := s.SaveSubscription(sub); err != nil {
			t.Fatalf("SaveSubscription: %v", err)
		}
	}

	removed, err := s.DeleteEmployee("e1")
	if err != nil {
		t.Fatalf("DeleteEmployee: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 cascaded shifts; got %d", removed)
	}

	if _, err := s.GetEmployee("e1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected employee gone; got %v", err)
	}
	shifts, err := s.ListShifts("")
	if err != nil {
		t.Fatalf("ListShifts: %v", err)
	}
	if len(shifts) != 1 {
		t.Fatalf("expected 1 surviving shift; got %v", shifts)
	}

	got1, err := s.GetSubscription(1)
	if err != nil {
		t.Fatalf("GetSubscription 1: %v", err)
	}
	if got1.SubscribedTo.All() || got1.SubscribedTo.Len() != 0 {
		t.Fatalf("expected empty subjects; got %v", got1.SubscribedTo.IDs())
	}
	got2, err := s.GetSubscription(2)
	if err != nil {
		t.Fatalf("GetSubscription 2: %v", err)
	}
	if !got2.SubscribedTo.All() {
		t.Fatalf("sentinel subscription must stay the sentinel")
	}
	got3, err := s.GetSubscription(3)
	if err != nil {
		t.Fatalf("GetSubscription 3: %v", err)
	}
	if !got3.SubscribedTo.All() {
		t.Fatalf("explicit full set must collapse to the sentinel; got %v", got3.SubscribedTo.IDs())
	}
}

func TestSubscriptionRoundTrip(t *testing.T) {
	s := openTestStore(t)

	sub := models.NewSubscription(77)
	sub.SubscribedTo = models.SubjectsOf("e1", "e2")
	sub.NotifyNewEmployee = false
	if err := s.SaveSubscription(sub); err != nil {
		t.Fatalf("SaveSubscription: %v", err)
	}

	got, err := s.GetSubscription(77)
	if err != nil {
		t.Fatalf("GetSubscription: %v", err)
	}
	if got.ChatID != 77 || got.NotifyNewEmployee || !got.Active {
		t.Fatalf("unexpected subscription: %+v", got)
	}
	ids := got.SubscribedTo.IDs()
	if len(ids) != 2 || ids[0] != "e1" || ids[1] != "e2" {
		t.Fatalf("unexpected subjects: %v", ids)
	}

	if _, err := s.GetSubscription(78); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound; got %v", err)
	}
}

func TestFindUserByUsername(t *testing.T) {
	s := openTestStore(t)

	u := models.User{ID: "u1", Username: "admin", Password: "hash", Role: models.RoleAdmin, Name: "Admin"}
	if err := s.SaveUser(u); err != nil {
		t.Fatalf("SaveUser: %v", err)
	}

	got, err := s.FindUserByUsername("admin")
	if err != nil {
		t.Fatalf("FindUserByUsername: %v", err)
	}
	if got.ID != "u1" {
		t.Fatalf("expected u1; got %s", got.ID)
	}
	if _, err := s.FindUserByUsername("ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound; got %v", err)
	}
}

func TestSettingsDefaultsAndMerge(t *testing.T) {
	s := openTestStore(t)

	st, err := s.GetSettings()
	if err != nil {
		t.Fatalf("GetSettings: %v", err)
	}
	if st["defaultHours"] != float64(10) {
		t.Fatalf("expected defaultHours=10; got %v", st["defaultHours"])
	}

	st = st.Merge(models.Settings{"defaultHours": float64(8), "theme": "dark"})
	if err := s.SaveSettings(st); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}
	got, err := s.GetSettings()
	if err != nil {
		t.Fatalf("GetSettings: %v", err)
	}
	if got["defaultHours"] != float64(8) || got["theme"] != "dark" {
		t.Fatalf("unexpected settings: %v", got)
	}
}
