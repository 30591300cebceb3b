package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/cockroachdb/pebble"
	"go.uber.org/zap"

	"shiftdesk/pkg/logger"
	"shiftdesk/pkg/models"
)

// Key namespaces. The shift namespace keeps the API-visible flat key
// ("{employeeId}_{year}-{month}-{day}") verbatim after the prefix so the
// API-visible keys round-trip unchanged.
const (
	employeePrefix     = "employee:"
	shiftPrefix        = "shift:"
	subscriptionPrefix = "sub:"
	userPrefix         = "user:"
	settingsKey        = "settings"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// Store is a Pebble-backed document store for the scheduler's records. It is
// opened once at startup and injected into every component that persists
// state; there is no package-level handle.
type Store struct {
	db   *pebble.DB
	path string
}

// Open opens (or creates) a Pebble database at the given path.
func Open(path string) (*Store, error) {
	logger.Info("opening_pebble_db", zap.String("path", path))
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		logger.Error("pebble_open_failed", zap.String("path", path), zap.Error(err))
		return nil, err
	}
	logger.Info("pebble_opened", zap.String("path", path))
	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return err
	}
	s.db = nil
	logger.Info("pebble_closed")
	return nil
}

// Ready reports whether the store is opened and usable.
func (s *Store) Ready() bool {
	return s != nil && s.db != nil
}

func (s *Store) setJSON(key string, v any) error {
	if !s.Ready() {
		return fmt.Errorf("store not opened")
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := s.db.Set([]byte(key), b, pebble.Sync); err != nil {
		logger.Error("store_set_failed", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

func (s *Store) getJSON(key string, v any) error {
	if !s.Ready() {
		return fmt.Errorf("store not opened")
	}
	b, closer, err := s.db.Get([]byte(key))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return ErrNotFound
		}
		logger.Error("store_get_failed", zap.String("key", key), zap.Error(err))
		return err
	}
	defer closer.Close()
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("corrupt record at %s: %w", key, err)
	}
	return nil
}

func (s *Store) delete(key string) error {
	if !s.Ready() {
		return fmt.Errorf("store not opened")
	}
	if err := s.db.Delete([]byte(key), pebble.Sync); err != nil {
		logger.Error("store_delete_failed", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

// ListByPrefix returns all key/value pairs whose key starts with prefix, in
// key order. Keys are reported without the namespace stripped.
func (s *Store) ListByPrefix(prefix string) (map[string][]byte, error) {
	if !s.Ready() {
		return nil, fmt.Errorf("store not opened")
	}
	iter, err := s.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	pfx := []byte(prefix)
	out := map[string][]byte{}
	for iter.SeekGE(pfx); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), pfx) {
			break
		}
		k := append([]byte(nil), iter.Key()...)
		v := append([]byte(nil), iter.Value()...)
		out[string(k)] = v
	}
	return out, iter.Error()
}

// DeleteByPrefix removes every key with the given prefix and returns how
// many were deleted.
func (s *Store) DeleteByPrefix(prefix string) (int, error) {
	kvs, err := s.ListByPrefix(prefix)
	if err != nil {
		return 0, err
	}
	n := 0
	for k := range kvs {
		if err := s.delete(k); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// --- employees ---

func (s *Store) SaveEmployee(e models.Employee) error {
	if err := s.setJSON(employeePrefix+e.ID, e); err != nil {
		return err
	}
	logger.Info("employee_saved", zap.String("id", e.ID), zap.String("name", e.Name))
	return nil
}

func (s *Store) GetEmployee(id string) (models.Employee, error) {
	var e models.Employee
	err := s.getJSON(employeePrefix+id, &e)
	return e, err
}

// ListEmployees returns all employees sorted by name.
func (s *Store) ListEmployees() ([]models.Employee, error) {
	kvs, err := s.ListByPrefix(employeePrefix)
	if err != nil {
		return nil, err
	}
	out := make([]models.Employee, 0, len(kvs))
	for k, v := range kvs {
		var e models.Employee
		if err := json.Unmarshal(v, &e); err != nil {
			logger.Warn("skipping_corrupt_employee", zap.String("key", k), zap.Error(err))
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// EmployeeIDs returns the current set of employee ids.
func (s *Store) EmployeeIDs() ([]string, error) {
	emps, err := s.ListEmployees()
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(emps))
	for _, e := range emps {
		ids = append(ids, e.ID)
	}
	return ids, nil
}

// DeleteEmployee removes the employee record, every shift keyed under it and
// any subscription references to it. Cross-record cleanup is sequential, not
// transactional; a crash mid-way is repaired by the sweeper.
func (s *Store) DeleteEmployee(id string) (shiftsRemoved int, err error) {
	if err := s.delete(employeePrefix + id); err != nil {
		return 0, err
	}
	n, err := s.DeleteByPrefix(shiftPrefix + id + "_")
	if err != nil {
		return n, err
	}
	remaining, err := s.EmployeeIDs()
	if err != nil {
		return n, err
	}
	subs, err := s.ListSubscriptions()
	if err != nil {
		return n, err
	}
	for _, sub := range subs {
		next := sub.SubscribedTo.Remove(id).Normalize(remaining)
		if !subjectsEqual(sub.SubscribedTo, next) {
			sub.SubscribedTo = next
			if err := s.SaveSubscription(sub); err != nil {
				return n, err
			}
		}
	}
	logger.Info("employee_deleted", zap.String("id", id), zap.Int("shifts_removed", n))
	return n, nil
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

// --- shifts ---

// SaveShift stores one day's record under the flat key.
func (s *Store) SaveShift(key string, sh models.Shift) error {
	if err := s.setJSON(shiftPrefix+key, sh); err != nil {
		return err
	}
	logger.Info("shift_saved", zap.String("key", key), zap.String("type", string(sh.Type)))
	return nil
}

func (s *Store) GetShift(key string) (models.Shift, error) {
	var sh models.Shift
	err := s.getJSON(shiftPrefix+key, &sh)
	return sh, err
}

// DeleteShift removes the record; deleting an absent key is not an error
// (tombstone-by-absence).
func (s *Store) DeleteShift(key string) error {
	if err := s.delete(shiftPrefix + key); err != nil {
		return err
	}
	logger.Info("shift_deleted", zap.String("key", key))
	return nil
}

// ListShifts returns all shifts whose flat key starts with keyPrefix, keyed
// by the flat key. An empty prefix returns every shift.
func (s *Store) ListShifts(keyPrefix string) (map[string]models.Shift, error) {
	kvs, err := s.ListByPrefix(shiftPrefix + keyPrefix)
	if err != nil {
		return nil, err
	}
	out := make(map[string]models.Shift, len(kvs))
	for k, v := range kvs {
		var sh models.Shift
		if err := json.Unmarshal(v, &sh); err != nil {
			logger.Warn("skipping_corrupt_shift", zap.String("key", k), zap.Error(err))
			continue
		}
		out[k[len(shiftPrefix):]] = sh
	}
	return out, nil
}

// --- subscriptions ---

func subKey(chatID int64) string {
	return subscriptionPrefix + strconv.FormatInt(chatID, 10)
}

func (s *Store) SaveSubscription(sub models.Subscription) error {
	return s.setJSON(subKey(sub.ChatID), sub)
}

func (s *Store) GetSubscription(chatID int64) (models.Subscription, error) {
	var sub models.Subscription
	err := s.getJSON(subKey(chatID), &sub)
	return sub, err
}

func (s *Store) ListSubscriptions() ([]models.Subscription, error) {
	kvs, err := s.ListByPrefix(subscriptionPrefix)
	if err != nil {
		return nil, err
	}
	out := make([]models.Subscription, 0, len(kvs))
	for k, v := range kvs {
		var sub models.Subscription
		if err := json.Unmarshal(v, &sub); err != nil {
			logger.Warn("skipping_corrupt_subscription", zap.String("key", k), zap.Error(err))
			continue
		}
		out = append(out, sub)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChatID < out[j].ChatID })
	return out, nil
}

// --- users ---

func (s *Store) SaveUser(u models.User) error {
	return s.setJSON(userPrefix+u.ID, u)
}

func (s *Store) GetUser(id string) (models.User, error) {
	var u models.User
	err := s.getJSON(userPrefix+id, &u)
	return u, err
}

// FindUserByUsername scans the user namespace for an exact username match.
func (s *Store) FindUserByUsername(username string) (models.User, error) {
	users, err := s.ListUsers()
	if err != nil {
		return models.User{}, err
	}
	for _, u := range users {
		if u.Username == username {
			return u, nil
		}
	}
	return models.User{}, ErrNotFound
}

func (s *Store) ListUsers() ([]models.User, error) {
	kvs, err := s.ListByPrefix(userPrefix)
	if err != nil {
		return nil, err
	}
	out := make([]models.User, 0, len(kvs))
	for k, v := range kvs {
		var u models.User
		if err := json.Unmarshal(v, &u); err != nil {
			logger.Warn("skipping_corrupt_user", zap.String("key", k), zap.Error(err))
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (s *Store) DeleteUser(id string) error {
	return s.delete(userPrefix + id)
}

// --- settings ---

// GetSettings returns the singleton settings record, falling back to the
// defaults when none was saved yet.
func (s *Store) GetSettings() (models.Settings, error) {
	var st models.Settings
	err := s.getJSON(settingsKey, &st)
	if errors.Is(err, ErrNotFound) {
		return models.DefaultSettings(), nil
	}
	if err != nil {
		return nil, err
	}
	return st, nil
}

func (s *Store) SaveSettings(st models.Settings) error {
	return s.setJSON(settingsKey, st)
}
