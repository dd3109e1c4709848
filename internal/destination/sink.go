package destination

import (
	"errors"
	"io"
	"sync"

	"github.com/agbru/catlog/internal/fsys"
)

var errSinkClosed = errors.New("sink closed")

// Sink is an open output. Writes are serialized by the sink's mutex.
type Sink struct {
	mu     sync.Mutex
	path   string
	w      io.Writer
	file   fsys.File
	colour bool
	closed bool
}

// Path returns the resolved path, or the stream name for stdout/stderr.
func (s *Sink) Path() string { return s.path }

// Colour reports whether the sink is a terminal that accepts styled output.
func (s *Sink) Colour() bool { return s.colour }

// IsStream reports whether the sink is a process stream rather than a file.
func (s *Sink) IsStream() bool { return s.file == nil }

// Write writes p in a single call under the sink lock.
func (s *Sink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, errSinkClosed
	}
	return s.w.Write(p)
}

// close syncs and closes file sinks. Streams are only marked closed.
func (s *Sink) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.file == nil {
		return nil
	}
	syncErr := s.file.Sync()
	closeErr := s.file.Close()
	return errors.Join(syncErr, closeErr)
}
