package models

import (
	"encoding/json"
	"sort"
)

// SentinelAll is the stored marker meaning "every current and future
// employee". It is distinct from an explicit enumeration of all current ids:
// normalization guarantees a Subjects value is either literally the sentinel
// or a proper (possibly empty) subset, never a redundant full enumeration.
const SentinelAll = "all"

// Subjects is a tagged variant: either the "all" sentinel or an explicit set
// of employee ids. The zero value is the empty explicit set.
type Subjects struct {
	all bool
	ids map[string]struct{}
}

// AllEmployees returns the sentinel variant.
func AllEmployees() Subjects {
	return Subjects{all: true}
}

// SubjectsOf returns an explicit set of the given ids, deduplicated.
func SubjectsOf(ids ...string) Subjects {
	s := Subjects{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		if id == SentinelAll {
			return AllEmployees()
		}
		s.ids[id] = struct{}{}
	}
	return s
}

// All reports whether the value is the sentinel variant.
func (s Subjects) All() bool { return s.all }

// Contains reports whether the given employee id is in scope. The sentinel
// contains every id.
func (s Subjects) Contains(id string) bool {
	if s.all {
		return true
	}
	_, ok := s.ids[id]
	return ok
}

// Len returns the explicit set size; the sentinel has length 0.
func (s Subjects) Len() int {
	if s.all {
		return 0
	}
	return len(s.ids)
}

// IDs returns the explicit ids in sorted order, nil for the sentinel.
func (s Subjects) IDs() []string {
	if s.all || len(s.ids) == 0 {
		return nil
	}
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// ToggleAll flips the sentinel: subscribed-to-all becomes the empty set,
// anything else becomes the sentinel. Toggling "all" off never yields the
// enumerated full set.
func (s Subjects) ToggleAll() Subjects {
	if s.all {
		return Subjects{}
	}
	return AllEmployees()
}

// Toggle adds or removes one employee id. If the value is currently the
// sentinel it is first expanded to the explicit set of everyone, then the
// target id is flipped. The result is normalized against everyone.
func (s Subjects) Toggle(id string, everyone []string) Subjects {
	var next Subjects
	if s.all {
		next = SubjectsOf(everyone...)
	} else {
		next = SubjectsOf(s.IDs()...)
	}
	if next.ids == nil {
		next.ids = make(map[string]struct{})
	}
	if _, ok := next.ids[id]; ok {
		delete(next.ids, id)
	} else {
		next.ids[id] = struct{}{}
	}
	return next.Normalize(everyone)
}

// Remove drops an employee id from the explicit set. The sentinel is left
// alone: it tracks future employees and has nothing to drop.
func (s Subjects) Remove(id string) Subjects {
	if s.all || len(s.ids) == 0 {
		return s
	}
	next := SubjectsOf(s.IDs()...)
	delete(next.ids, id)
	return next
}

// Normalize collapses an explicit set equal to the full employee set back to
// the sentinel.
func (s Subjects) Normalize(everyone []string) Subjects {
	if s.all {
		return s
	}
	if len(everyone) == 0 || len(s.ids) != len(everyone) {
		return s
	}
	for _, id := range everyone {
		if _, ok := s.ids[id]; !ok {
			return s
		}
	}
	return AllEmployees()
}

// MarshalJSON writes the sentinel as ["all"] and explicit sets as a sorted
// id array, matching the persisted layout.
func (s Subjects) MarshalJSON() ([]byte, error) {
	if s.all {
		return json.Marshal([]string{SentinelAll})
	}
	ids := s.IDs()
	if ids == nil {
		ids = []string{}
	}
	return json.Marshal(ids)
}

// UnmarshalJSON accepts a string array; the presence of "all" wins.
func (s *Subjects) UnmarshalJSON(b []byte) error {
	var raw []string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*s = SubjectsOf(raw...)
	return nil
}
