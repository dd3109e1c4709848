package destination

import (
	apperrors "github.com/agbru/catlog/internal/errors"
)

// Destination is a named sink location.
type Destination struct {
	Name string `json:"name" yaml:"name"`
	Path string `json:"path" yaml:"path"`
}

// Map is an ordered set of destinations with unique, case-sensitive names.
// Insertion order is preserved; setting an existing name keeps its position.
// The zero value is an empty map ready for use. Set never mutates storage
// shared with a copy, so Map values can be copied freely.
type Map struct {
	entries []Destination
	index   map[string]int
}

// NewMap builds a Map from ds in order. A repeated name keeps its first
// position and takes the last path.
func NewMap(ds ...Destination) Map {
	m := Map{
		entries: make([]Destination, 0, len(ds)),
		index:   make(map[string]int, len(ds)),
	}
	for _, d := range ds {
		if i, ok := m.index[d.Name]; ok {
			m.entries[i].Path = d.Path
			continue
		}
		m.index[d.Name] = len(m.entries)
		m.entries = append(m.entries, d)
	}
	return m
}

// Set adds name or replaces its path.
func (m *Map) Set(name, path string) {
	entries := make([]Destination, len(m.entries), len(m.entries)+1)
	copy(entries, m.entries)
	index := make(map[string]int, len(m.index)+1)
	for k, v := range m.index {
		index[k] = v
	}
	if i, ok := index[name]; ok {
		entries[i].Path = path
	} else {
		index[name] = len(entries)
		entries = append(entries, Destination{Name: name, Path: path})
	}
	m.entries, m.index = entries, index
}

// Get returns the path of name.
func (m Map) Get(name string) (string, bool) {
	i, ok := m.index[name]
	if !ok {
		return "", false
	}
	return m.entries[i].Path, true
}

// Has reports whether name is in the map.
func (m Map) Has(name string) bool {
	_, ok := m.index[name]
	return ok
}

// Len returns the number of destinations.
func (m Map) Len() int { return len(m.entries) }

// Names returns the destination names in insertion order.
func (m Map) Names() []string {
	names := make([]string, len(m.entries))
	for i, d := range m.entries {
		names[i] = d.Name
	}
	return names
}

// Entries returns a copy of the destinations in insertion order.
func (m Map) Entries() []Destination {
	out := make([]Destination, len(m.entries))
	copy(out, m.entries)
	return out
}

// Clone returns an independent copy of m.
func (m Map) Clone() Map {
	return NewMap(m.entries...)
}

// Validate checks that every destination has a name and a path.
func (m Map) Validate() error {
	for _, d := range m.entries {
		if d.Name == "" {
			return apperrors.ValidationError{Field: "destination", Message: "name must not be empty"}
		}
		if d.Path == "" {
			return apperrors.ValidationError{Field: d.Name, Message: "path must not be empty"}
		}
	}
	return nil
}
