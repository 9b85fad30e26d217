package models

import (
	"bytes"
	"encoding/json"
)

// OrderedMap is a map that remembers insertion order. Aggregates are keyed by identifier
// but written, sorted and reported in the order their keys were first seen.
type OrderedMap[V any] struct {
	keys  []string
	items map[string]V
}

// NewOrderedMap returns an empty OrderedMap.
func NewOrderedMap[V any]() *OrderedMap[V] {
	return &OrderedMap[V]{items: make(map[string]V)}
}

// Get returns the value stored under key.
func (m *OrderedMap[V]) Get(key string) (V, bool) {
	v, ok := m.items[key]
	return v, ok
}

// Has reports whether key is present.
func (m *OrderedMap[V]) Has(key string) bool {
	_, ok := m.items[key]
	return ok
}

// Set stores value under key. A new key is appended to the iteration order;
// an existing key keeps its position.
func (m *OrderedMap[V]) Set(key string, value V) {
	if _, ok := m.items[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.items[key] = value
}

// SetIfAbsent stores value only when key is not present yet and reports whether it did.
func (m *OrderedMap[V]) SetIfAbsent(key string, value V) bool {
	if _, ok := m.items[key]; ok {
		return false
	}
	m.keys = append(m.keys, key)
	m.items[key] = value
	return true
}

// Len returns the number of entries.
func (m *OrderedMap[V]) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns the keys in insertion order.
func (m *OrderedMap[V]) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Values returns the values in insertion order.
func (m *OrderedMap[V]) Values() []V {
	out := make([]V, 0, len(m.keys))
	for _, k := range m.keys {
		out = append(out, m.items[k])
	}
	return out
}

// Each calls fn for every entry in insertion order.
func (m *OrderedMap[V]) Each(fn func(key string, value V)) {
	for _, k := range m.keys {
		fn(k, m.items[k])
	}
}

// Filter returns a new map holding only the entries for which keep returns true.
func (m *OrderedMap[V]) Filter(keep func(key string, value V) bool) *OrderedMap[V] {
	out := NewOrderedMap[V]()
	for _, k := range m.keys {
		if v := m.items[k]; keep(k, v) {
			out.Set(k, v)
		}
	}
	return out
}

// MarshalJSON encodes the map as a JSON object preserving insertion order.
func (m *OrderedMap[V]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(m.items[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
