package literal

// Map is a mapping literal that remembers insertion order. The persisted
// chronology format is meant to be read by people, so keys are written back
// in the order they were first seen.
type Map struct {
	keys   []string
	values map[string]any
}

// NewMap returns an empty Map.
func NewMap() *Map {
	return &Map{values: make(map[string]any)}
}

// Len returns the number of keys.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Get returns the value stored under key.
func (m *Map) Get(key string) (any, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.values[key]
	return v, ok
}

// String returns the string stored under key, or "" when key is absent or
// not a string.
func (m *Map) String(key string) string {
	v, _ := m.Get(key)
	s, _ := v.(string)
	return s
}

// Set stores value under key. An existing key keeps its position.
func (m *Map) Set(key string, value any) {
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Delete removes key.
func (m *Map) Delete(key string) {
	if _, exists := m.values[key]; !exists {
		return
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Merge copies every entry of other into m, one level deep: when both sides
// hold a Map under the same key the inner entries are combined, otherwise
// other's value replaces m's.
func (m *Map) Merge(other *Map) {
	for _, k := range other.Keys() {
		incoming, _ := other.Get(k)
		if existing, ok := m.values[k].(*Map); ok {
			if inner, ok := incoming.(*Map); ok {
				for _, ik := range inner.Keys() {
					iv, _ := inner.Get(ik)
					existing.Set(ik, iv)
				}
				continue
			}
		}
		m.Set(k, incoming)
	}
}

// Single builds a one-entry Map.
func Single(key string, value any) *Map {
	m := NewMap()
	m.Set(key, value)
	return m
}
