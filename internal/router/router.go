package router

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	apperrors "github.com/agbru/catlog/internal/errors"
)

// DefaultAllCategory is the reserved name of the every-destination category.
const DefaultAllCategory = "all"

// AllMode selects how the reserved "all" category resolves when the map has
// no explicit entry for it.
type AllMode int

const (
	// AllComputed resolves "all" to every known destination.
	AllComputed AllMode = iota
	// AllExplicit treats "all" like any other category.
	AllExplicit
)

// String returns the configuration spelling of the mode.
func (m AllMode) String() string {
	switch m {
	case AllComputed:
		return "computed"
	case AllExplicit:
		return "explicit"
	default:
		return fmt.Sprintf("AllMode(%d)", int(m))
	}
}

// ParseAllMode parses "computed" or "explicit", case-insensitively.
func ParseAllMode(s string) (AllMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "computed":
		return AllComputed, nil
	case "explicit":
		return AllExplicit, nil
	}
	return AllComputed, apperrors.NewConfigError("invalid all mode %q (want computed or explicit)", s)
}

// DestinationLister reports the destination names currently known, in
// registry insertion order.
type DestinationLister interface {
	Names() []string
}

// Router resolves categories to destination names.
type Router struct {
	lister  DestinationLister
	allName string
	allMode AllMode

	current atomic.Pointer[CategoryMap]
	mu      sync.Mutex // serializes writers
}

// Option configures a Router.
type Option func(*Router)

// WithAllCategory renames the reserved every-destination category.
func WithAllCategory(name string) Option {
	return func(r *Router) { r.allName = name }
}

// WithAllMode sets how "all" resolves without an explicit entry.
func WithAllMode(mode AllMode) Option {
	return func(r *Router) { r.allMode = mode }
}

// New creates a router over m. lister supplies the destination names used
// for the computed "all" category and may be nil when only ResolveWith is
// used.
//
// Parameters:
//   - m: The initial category map. It is copied.
//   - lister: Source of known destination names.
//   - opts: Functional options.
//
// Returns:
//   - *Router: The router.
//   - error: A ValidationError if m is invalid.
func New(m CategoryMap, lister DestinationLister, opts ...Option) (*Router, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	r := &Router{lister: lister, allName: DefaultAllCategory, allMode: AllComputed}
	for _, opt := range opts {
		opt(r)
	}
	snapshot := m.Clone()
	r.current.Store(&snapshot)
	return r, nil
}

// AllCategory returns the reserved every-destination category name.
func (r *Router) AllCategory() string { return r.allName }

// Resolve returns the destination names for category, consulting the lister
// for the computed "all" category.
func (r *Router) Resolve(category string) ([]string, error) {
	var known []string
	if r.lister != nil {
		known = r.lister.Names()
	}
	return r.ResolveWith(category, known)
}

// ResolveWith is Resolve against an explicit list of known destinations, so
// a caller holding a registry snapshot routes and writes against the same
// view. The returned slice is a copy.
func (r *Router) ResolveWith(category string, known []string) ([]string, error) {
	m := *r.current.Load()
	if dests, ok := m[category]; ok {
		return append([]string(nil), dests...), nil
	}
	if category == r.allName && r.allMode == AllComputed {
		return append([]string(nil), known...), nil
	}
	return nil, apperrors.UnknownCategoryError{Category: category}
}

// Has reports whether category resolves without falling back.
func (r *Router) Has(category string) bool {
	if _, ok := (*r.current.Load())[category]; ok {
		return true
	}
	return category == r.allName && r.allMode == AllComputed
}

// Categories returns a deep copy of the current map.
func (r *Router) Categories() CategoryMap {
	return r.current.Load().Clone()
}

// SetCategories replaces the whole map atomically.
func (r *Router) SetCategories(m CategoryMap) error {
	if err := m.Validate(); err != nil {
		return err
	}
	next := m.Clone()
	r.mu.Lock()
	r.current.Store(&next)
	r.mu.Unlock()
	return nil
}

// AddCategory adds or replaces one category and leaves the others untouched.
func (r *Router) AddCategory(name string, dests []string) error {
	if err := validateEntry(name, dests); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	next := r.current.Load().Clone()
	next[name] = append([]string(nil), dests...)
	r.current.Store(&next)
	return nil
}
