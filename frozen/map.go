package frozen

import "sort"

type mapEntry struct {
	key   any
	value any
}

// Map is an immutable key-value view. Keys are matched structurally and
// iterated in canonical order.
type Map struct {
	keys  []string // canonical key forms, sorted
	byKey map[string]mapEntry
}

// MapOf builds an immutable map from alternating key, value pairs,
// deep-freezing both sides. A duplicate key keeps the first value.
func MapOf(pairs ...any) *Map {
	m := &Map{byKey: make(map[string]mapEntry, len(pairs)/2)}
	for i := 0; i+1 < len(pairs); i += 2 {
		m.put(pairs[i], pairs[i+1])
	}
	sort.Strings(m.keys)
	return m
}

func (m *Map) put(key, value any) {
	k := Freeze(key)
	canon := canonString(k)
	if _, ok := m.byKey[canon]; ok {
		return
	}
	m.byKey[canon] = mapEntry{key: k, value: Freeze(value)}
	m.keys = append(m.keys, canon)
}

func (m *Map) Len() int { return len(m.keys) }

// Get returns the value for a structurally equal key.
func (m *Map) Get(key any) (any, bool) {
	entry, ok := m.byKey[canonString(Freeze(key))]
	return entry.value, ok
}

// Keys returns the keys in canonical order.
func (m *Map) Keys() []any {
	out := make([]any, 0, len(m.keys))
	for _, k := range m.keys {
		out = append(out, m.byKey[k].key)
	}
	return out
}

// Range calls fn for each pair in canonical key order until fn returns
// false.
func (m *Map) Range(fn func(key, value any) bool) {
	for _, k := range m.keys {
		entry := m.byKey[k]
		if !fn(entry.key, entry.value) {
			return
		}
	}
}

// Set always fails: maps are frozen at construction.
func (m *Map) Set(any, any) error {
	return &ContainerFrozenError{Container: "map", Op: "item assignment"}
}

// Delete always fails: maps are frozen at construction.
func (m *Map) Delete(any) error {
	return &ContainerFrozenError{Container: "map", Op: "delete"}
}

// Equal reports structural equality with another map.
func (m *Map) Equal(other *Map) bool {
	return other != nil && canonString(m) == canonString(other)
}

// Hash returns the structural hash. Equal maps hash equal.
func (m *Map) Hash() uint64 { return hashValue(m) }

func (m *Map) String() string { return canonString(m) }
