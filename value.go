package packetc

// Runtime value model shared by the codec engine and callers.
//
// Structs travel as map[string]any keyed by field name; a missing key means
// the field was not set. Collections are []any. Maps use the ordered Map
// type below because the wire format preserves insertion order and Go's
// built-in map does not. Union members are always selected explicitly via
// Union.Index; the codec never infers a discriminant from the Go type of the
// value.

// MapEntry is one key/value pair of an ordered Map.
type MapEntry struct {
	Key   any // string or integer, per the declared key type
	Value any
}

// Map is an insertion-ordered key/value sequence. Set on a new key appends;
// Set on an existing key updates the value in place.
type Map struct {
	entries []MapEntry
	index   map[any]int
}

// NewMap returns an empty ordered map.
func NewMap() *Map {
	return &Map{index: make(map[any]int)}
}

// Set inserts key→value, preserving first-insertion order on update.
func (m *Map) Set(key, value any) *Map {
	if m.index == nil {
		m.index = make(map[any]int)
	}
	if i, ok := m.index[key]; ok {
		m.entries[i].Value = value
		return m
	}
	m.index[key] = len(m.entries)
	m.entries = append(m.entries, MapEntry{Key: key, Value: value})
	return m
}

// Get returns the value for key and whether it is present.
func (m *Map) Get(key any) (any, bool) {
	if m == nil || m.index == nil {
		return nil, false
	}
	i, ok := m.index[key]
	if !ok {
		return nil, false
	}
	return m.entries[i].Value, true
}

// Len returns the number of entries.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// Entries returns the entries in insertion order. The slice is shared; do
// not mutate it.
func (m *Map) Entries() []MapEntry {
	if m == nil {
		return nil
	}
	return m.entries
}

// Union selects one member of a mixed type. Index is the zero-based ordinal
// of the member as declared, which is exactly the wire discriminant.
type Union struct {
	Index int
	Value any
}
