// Package table is an open-addressing hash map keyed by interned strings. It
// backs both global variables and the string intern set.
package table

import "plume/internal/object"

const maxLoad = 0.75

type Entry struct {
	Key   *object.String
	Value object.Value
}

func (e *Entry) isTombstone() bool {
	return e.Key == nil && !e.Value.IsNil()
}

type Table struct {
	count   int // live entries plus tombstones
	entries []Entry
}

func New() *Table {
	return &Table{}
}

func (t *Table) Capacity() int {
	return len(t.entries)
}

// Len returns the number of live entries.
func (t *Table) Len() int {
	n := 0
	for i := range t.entries {
		if t.entries[i].Key != nil {
			n++
		}
	}
	return n
}

func (t *Table) Get(key *object.String) (object.Value, bool) {
	if len(t.entries) == 0 {
		return object.Value{}, false
	}
	e := findEntry(t.entries, key)
	if e.Key == nil {
		return object.Value{}, false
	}
	return e.Value, true
}

// Set stores value under key and reports whether key was not present before.
func (t *Table) Set(key *object.String, value object.Value) bool {
	if float64(t.count+1) > float64(len(t.entries))*maxLoad {
		t.adjustCapacity(growCapacity(len(t.entries)))
	}

	e := findEntry(t.entries, key)
	isNewKey := e.Key == nil
	// Reusing a tombstone does not change count; it was already counted.
	if isNewKey && e.Value.IsNil() {
		t.count++
	}

	e.Key = key
	e.Value = value
	return isNewKey
}

// Delete removes key, leaving a tombstone so later probes keep walking.
func (t *Table) Delete(key *object.String) bool {
	if len(t.entries) == 0 {
		return false
	}
	e := findEntry(t.entries, key)
	if e.Key == nil {
		return false
	}
	e.Key = nil
	e.Value = object.BoolVal(true)
	return true
}

func (t *Table) AddAll(from *Table) {
	for i := range from.entries {
		e := &from.entries[i]
		if e.Key != nil {
			t.Set(e.Key, e.Value)
		}
	}
}

// FindString looks up an interned string by content. It compares length,
// hash and bytes, unlike Get which compares key identity.
func (t *Table) FindString(chars string, hash uint32) *object.String {
	if len(t.entries) == 0 {
		return nil
	}
	capacity := uint32(len(t.entries))
	index := hash % capacity
	for {
		e := &t.entries[index]
		if e.Key == nil {
			if !e.isTombstone() {
				return nil
			}
		} else if len(e.Key.Chars) == len(chars) && e.Key.Hash == hash && e.Key.Chars == chars {
			return e.Key
		}
		index = (index + 1) % capacity
	}
}

// Each calls fn for every live entry in slot order.
func (t *Table) Each(fn func(key *object.String, value object.Value)) {
	for i := range t.entries {
		e := &t.entries[i]
		if e.Key != nil {
			fn(e.Key, e.Value)
		}
	}
}

func findEntry(entries []Entry, key *object.String) *Entry {
	capacity := uint32(len(entries))
	index := key.Hash % capacity
	var tombstone *Entry
	for {
		e := &entries[index]
		if e.Key == nil {
			if e.Value.IsNil() {
				if tombstone != nil {
					return tombstone
				}
				return e
			}
			if tombstone == nil {
				tombstone = e
			}
		} else if e.Key == key {
			return e
		}
		index = (index + 1) % capacity
	}
}

func (t *Table) adjustCapacity(capacity int) {
	entries := make([]Entry, capacity)
	t.count = 0
	for i := range t.entries {
		old := &t.entries[i]
		if old.Key == nil {
			continue
		}
		dest := findEntry(entries, old.Key)
		dest.Key = old.Key
		dest.Value = old.Value
		t.count++
	}
	t.entries = entries
}

func growCapacity(capacity int) int {
	if capacity < 8 {
		return 8
	}
	return capacity * 2
}
