// Package vodict implements a value-ordered map: a mapping from key
// to integer value that also maintains keys sorted by value ascending,
// ties broken by FIFO insertion order. Ported from vodict.py's
// ValueOrderedDictionary, used by the shortest-path planner as its
// frontier.
package vodict

import (
	"fmt"
	"sort"
)

// Map is a value-ordered mapping from string key to int value.
// It is not safe for concurrent use.
type Map struct {
	values map[string]int
	keys   []string // ordered by value ascending, FIFO within ties
	vals   []int    // parallel to keys
}

// New returns an empty value-ordered map.
func New() *Map {
	return &Map{values: make(map[string]int)}
}

// Len returns the number of entries.
func (m *Map) Len() int {
	return len(m.keys)
}

// Contains reports whether key is present.
func (m *Map) Contains(key string) bool {
	_, ok := m.values[key]
	return ok
}

// Get returns the value for key.
func (m *Map) Get(key string) (int, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Insert adds a new key/value pair. It fails if key is already
// present. Ties on value are broken by inserting after every existing
// entry of equal value (bisect_right), which preserves FIFO order
// among entries of the same cost.
func (m *Map) Insert(key string, value int) error {
	if m.Contains(key) {
		return fmt.Errorf("vodict: key %q already present", key)
	}
	at := sort.Search(len(m.vals), func(i int) bool { return m.vals[i] > value })
	m.keys = append(m.keys, "")
	copy(m.keys[at+1:], m.keys[at:])
	m.keys[at] = key

	m.vals = append(m.vals, 0)
	copy(m.vals[at+1:], m.vals[at:])
	m.vals[at] = value

	m.values[key] = value
	return nil
}

// Remove deletes key. It fails if key is not present.
func (m *Map) Remove(key string) error {
	value, ok := m.values[key]
	if !ok {
		return fmt.Errorf("vodict: key %q not present", key)
	}
	// Find the first entry with this value, then scan forward for the
	// matching key: values aren't unique but ordered_keys/ordered_values
	// stay aligned, mirroring list.remove()'s first-match semantics.
	at := sort.Search(len(m.vals), func(i int) bool { return m.vals[i] >= value })
	for m.keys[at] != key {
		at++
	}
	m.keys = append(m.keys[:at], m.keys[at+1:]...)
	m.vals = append(m.vals[:at], m.vals[at+1:]...)
	delete(m.values, key)
	return nil
}

// Set replaces the value for key, re-ordering it. If key is absent it
// is inserted.
func (m *Map) Set(key string, value int) {
	if m.Contains(key) {
		_ = m.Remove(key)
	}
	_ = m.Insert(key, value)
}

// PopFront removes and returns the entry with the smallest value
// (earliest of equal values). It fails if the map is empty.
func (m *Map) PopFront() (string, int, error) {
	if len(m.keys) == 0 {
		return "", 0, fmt.Errorf("vodict: pop from empty map")
	}
	key, value := m.keys[0], m.vals[0]
	if err := m.Remove(key); err != nil {
		return "", 0, err
	}
	return key, value, nil
}

// Keys returns the keys in ascending value order, FIFO within ties.
func (m *Map) Keys() []string {
	keys := make([]string, len(m.keys))
	copy(keys, m.keys)
	return keys
}

// Values returns the values in ascending order, aligned with Keys().
func (m *Map) Values() []int {
	values := make([]int, len(m.vals))
	copy(values, m.vals)
	return values
}
