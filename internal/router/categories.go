package router

import (
	"sort"

	apperrors "github.com/agbru/catlog/internal/errors"
)

// CategoryMap maps a category name to the destination names that receive its
// entries. List order is write order; duplicates are allowed.
type CategoryMap map[string][]string

// Clone returns a deep copy of m.
func (m CategoryMap) Clone() CategoryMap {
	out := make(CategoryMap, len(m))
	for name, dests := range m {
		out[name] = append([]string(nil), dests...)
	}
	return out
}

// Names returns the category names sorted.
func (m CategoryMap) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks that every category has a name and at least one
// destination.
func (m CategoryMap) Validate() error {
	for _, name := range m.Names() {
		if err := validateEntry(name, m[name]); err != nil {
			return err
		}
	}
	return nil
}

func validateEntry(name string, dests []string) error {
	if name == "" {
		return apperrors.ValidationError{Field: "category", Message: "name must not be empty"}
	}
	if len(dests) == 0 {
		return apperrors.ValidationError{Field: "category " + name, Message: "at least one destination is required"}
	}
	for _, d := range dests {
		if d == "" {
			return apperrors.ValidationError{Field: "category " + name, Message: "destination name must not be empty"}
		}
	}
	return nil
}
