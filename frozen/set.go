package frozen

import "sort"

// Set is an immutable membership collection. Members are deduplicated
// and iterated in canonical order, so iteration is deterministic
// regardless of insertion order.
type Set struct {
	keys  []string // canonical forms, sorted
	byKey map[string]any
}

// SetOf builds an immutable set, deep-freezing and deduplicating the
// members.
func SetOf(members ...any) *Set {
	s := &Set{byKey: make(map[string]any, len(members))}
	for _, m := range members {
		frozen := Freeze(m)
		key := canonString(frozen)
		if _, ok := s.byKey[key]; ok {
			continue
		}
		s.byKey[key] = frozen
		s.keys = append(s.keys, key)
	}
	sort.Strings(s.keys)
	return s
}

func (s *Set) Len() int { return len(s.keys) }

// Contains reports membership by structural equality.
func (s *Set) Contains(v any) bool {
	_, ok := s.byKey[canonString(Freeze(v))]
	return ok
}

// Values returns the members in canonical order.
func (s *Set) Values() []any {
	out := make([]any, 0, len(s.keys))
	for _, k := range s.keys {
		out = append(out, s.byKey[k])
	}
	return out
}

// Range calls fn for each member in canonical order until fn returns
// false.
func (s *Set) Range(fn func(v any) bool) {
	for _, k := range s.keys {
		if !fn(s.byKey[k]) {
			return
		}
	}
}

// Add always fails: sets are frozen at construction.
func (s *Set) Add(any) error {
	return &ContainerFrozenError{Container: "set", Op: "add"}
}

// Remove always fails: sets are frozen at construction.
func (s *Set) Remove(any) error {
	return &ContainerFrozenError{Container: "set", Op: "remove"}
}

// Equal reports structural equality with another set.
func (s *Set) Equal(other *Set) bool {
	return other != nil && canonString(s) == canonString(other)
}

// Hash returns the structural hash. Equal sets hash equal.
func (s *Set) Hash() uint64 { return hashValue(s) }

func (s *Set) String() string { return canonString(s) }
