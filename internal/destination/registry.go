package destination

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	apperrors "github.com/agbru/catlog/internal/errors"
	"github.com/agbru/catlog/internal/fsys"
)

// Stream path names. "-" is an alias for stdout.
const (
	StreamStdout = "stdout"
	StreamStderr = "stderr"
)

type stream struct {
	w      io.Writer
	colour bool
}

// Registry maps destination names to lazily opened sinks.
type Registry struct {
	fs      fsys.Opener
	baseDir string
	streams map[string]stream

	table  atomic.Pointer[Table]
	update sync.Mutex // serializes copy-on-write map updates

	mu     sync.Mutex // guards sinks and closed
	sinks  map[string]*Sink
	closed bool
}

// Option configures a Registry during construction.
type Option func(*Registry)

// WithBaseDir resolves relative destination paths against dir.
func WithBaseDir(dir string) Option {
	return func(r *Registry) { r.baseDir = dir }
}

// WithStream overrides the writer behind a stream name ("stdout" or
// "stderr") and whether it accepts coloured output.
func WithStream(name string, w io.Writer, colour bool) Option {
	return func(r *Registry) { r.streams[name] = stream{w: w, colour: colour} }
}

func defaultStreams() map[string]stream {
	return map[string]stream{
		StreamStdout: {w: colorable.NewColorableStdout(), colour: isTerminal(os.Stdout)},
		StreamStderr: {w: colorable.NewColorableStderr(), colour: isTerminal(os.Stderr)},
	}
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// NewRegistry creates a registry for m using fs to create folders and open
// files; a nil fs uses the local filesystem. It returns an error when m is
// invalid.
func NewRegistry(m Map, fs fsys.Opener, opts ...Option) (*Registry, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if fs == nil {
		fs = fsys.NewOS()
	}
	r := &Registry{
		fs:      fs,
		streams: defaultStreams(),
		sinks:   make(map[string]*Sink),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.table.Store(&Table{m: m.Clone(), reg: r})
	return r, nil
}

// Snapshot returns the current immutable name→path table.
func (r *Registry) Snapshot() *Table {
	return r.table.Load()
}

// Names returns the current destination names in insertion order.
func (r *Registry) Names() []string {
	return r.Snapshot().Names()
}

// Destinations returns a copy of the current map.
func (r *Registry) Destinations() Map {
	return r.Snapshot().m.Clone()
}

// SetDestinations atomically replaces the whole map. Sinks that are already
// open stay open until Reopen or Close.
func (r *Registry) SetDestinations(m Map) error {
	if err := m.Validate(); err != nil {
		return err
	}
	r.update.Lock()
	defer r.update.Unlock()
	r.table.Store(&Table{m: m.Clone(), reg: r})
	return nil
}

// Set adds or replaces a single destination without disturbing the others.
func (r *Registry) Set(name, path string) error {
	if err := NewMap(Destination{Name: name, Path: path}).Validate(); err != nil {
		return err
	}
	r.update.Lock()
	defer r.update.Unlock()
	next := r.Snapshot().m.Clone()
	next.Set(name, path)
	r.table.Store(&Table{m: next, reg: r})
	return nil
}

// Resolve returns the sink for name in the current map, opening it if needed.
func (r *Registry) Resolve(name string) (*Sink, error) {
	return r.Snapshot().Resolve(name)
}

// Write writes line to name in the current map.
func (r *Registry) Write(name string, line []byte) (int, error) {
	return r.Snapshot().Write(name, line)
}

// OpenPaths returns the paths of the currently open sinks, sorted.
func (r *Registry) OpenPaths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	paths := make([]string, 0, len(r.sinks))
	for p := range r.sinks {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Reopen closes every open sink. The next write to each destination opens
// the path of the map current at that time.
func (r *Registry) Reopen() error {
	r.mu.Lock()
	sinks := r.sinks
	r.sinks = make(map[string]*Sink)
	r.mu.Unlock()
	return closeAll(sinks)
}

// Close syncs and closes every sink. Later writes fail with ErrRegistryClosed.
func (r *Registry) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	sinks := r.sinks
	r.sinks = make(map[string]*Sink)
	r.mu.Unlock()
	return closeAll(sinks)
}

func closeAll(sinks map[string]*Sink) error {
	var errs []error
	for path, s := range sinks {
		if err := s.close(); err != nil {
			errs = append(errs, apperrors.DestinationError{Path: path, Op: "close", Cause: err})
		}
	}
	return errors.Join(errs...)
}

func (r *Registry) streamName(path string) (string, bool) {
	switch path {
	case StreamStdout, "-":
		return StreamStdout, true
	case StreamStderr:
		return StreamStderr, true
	}
	return "", false
}

// sink returns the open sink for a raw destination path, opening it on
// first use.
func (r *Registry) sink(name, rawPath string) (*Sink, error) {
	st, isStream := r.streamName(rawPath)
	key := st
	if !isStream {
		resolved, err := fsys.ExpandPath(rawPath, r.baseDir)
		if err != nil {
			return nil, apperrors.DestinationError{Destination: name, Path: rawPath, Op: "open", Cause: err}
		}
		key = resolved
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, apperrors.DestinationError{Destination: name, Path: key, Op: "open", Cause: apperrors.ErrRegistryClosed}
	}
	if s, ok := r.sinks[key]; ok {
		return s, nil
	}

	var s *Sink
	if isStream {
		str := r.streams[st]
		s = &Sink{path: key, w: str.w, colour: str.colour}
	} else {
		if err := r.fs.EnsureFolderExists(filepath.Dir(key)); err != nil {
			return nil, apperrors.DestinationError{Destination: name, Path: key, Op: "open", Cause: err}
		}
		f, err := r.fs.OpenAppend(key)
		if err != nil {
			return nil, apperrors.DestinationError{Destination: name, Path: key, Op: "open", Cause: err}
		}
		s = &Sink{path: key, w: f, file: f}
	}
	r.sinks[key] = s
	return s, nil
}

// Table is an immutable snapshot of the name→path map bound to its registry.
// A log call uses one Table for routing and writing so it observes a single
// version of the map.
type Table struct {
	m   Map
	reg *Registry
}

// Names returns the destination names in insertion order.
func (t *Table) Names() []string { return t.m.Names() }

// Path returns the configured path of name.
func (t *Table) Path(name string) (string, bool) { return t.m.Get(name) }

// Has reports whether name is in the table.
func (t *Table) Has(name string) bool { return t.m.Has(name) }

// Resolve returns the sink for name, opening it if needed.
func (t *Table) Resolve(name string) (*Sink, error) {
	path, ok := t.m.Get(name)
	if !ok {
		return nil, apperrors.DestinationError{Destination: name, Op: "resolve", Cause: apperrors.ErrUnknownDestination}
	}
	return t.reg.sink(name, path)
}

// Write writes line to name.
func (t *Table) Write(name string, line []byte) (int, error) {
	return t.WriteFunc(name, func(bool) []byte { return line })
}

// WriteFunc resolves name and writes the bytes returned by render, which is
// told whether the sink accepts coloured output. A sink closed by a
// concurrent Reopen is resolved again; once the registry is closed the
// resolve fails with ErrRegistryClosed.
func (t *Table) WriteFunc(name string, render func(colour bool) []byte) (int, error) {
	for {
		s, err := t.Resolve(name)
		if err != nil {
			return 0, err
		}
		n, err := s.Write(render(s.Colour()))
		if errors.Is(err, errSinkClosed) {
			continue
		}
		if err != nil {
			return n, apperrors.DestinationError{Destination: name, Path: s.Path(), Op: "write", Cause: err}
		}
		return n, nil
	}
}
