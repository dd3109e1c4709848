package app

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/agbru/catlog/internal/catlog"
	"github.com/agbru/catlog/internal/colour"
	"github.com/agbru/catlog/internal/config"
	"github.com/agbru/catlog/internal/destination"
	"github.com/agbru/catlog/internal/format"
	"github.com/agbru/catlog/internal/fsys"
	"github.com/agbru/catlog/internal/layout"
	"github.com/agbru/catlog/internal/metrics"
	"github.com/agbru/catlog/internal/router"
	"github.com/agbru/catlog/internal/ui"
)

// sessionPlaceholder in a destination path is replaced by the short session id.
const sessionPlaceholder = "{session}"

// runEnv is shared by the scenarios of one run.
type runEnv struct {
	app      *Application
	out      io.Writer
	renderer *lipgloss.Renderer
	colour   bool
	printer  *printer

	scenarios atomic.Int64
	calls     atomic.Int64
	failed    atomic.Int64
	memory    string
	elapsed   time.Duration
}

func (e *runEnv) shortSession() string {
	id := e.app.SessionID
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// destinations returns m with session placeholders expanded.
func (e *runEnv) destinations(m destination.Map) destination.Map {
	var out destination.Map
	for _, d := range m.Entries() {
		out.Set(d.Name, strings.ReplaceAll(d.Path, sessionPlaceholder, e.shortSession()))
	}
	return out
}

// newLogger builds an engine for r using the run's settings.
func (e *runEnv) newLogger(r config.Routing) (*catlog.Logger, error) {
	cfg := e.app.Config

	palette := colour.DefaultPalette(ui.GetCurrentTheme())
	palette = append(palette, r.Colours...)
	colourOpts := []colour.Option{colour.WithRenderer(e.renderer)}
	if !e.colour {
		colourOpts = append(colourOpts, colour.WithNoColor())
	}
	colours := colour.New(palette, colourOpts...)

	reg, err := destination.NewRegistry(e.destinations(r.LogFiles), fsys.NewOS(),
		destination.WithBaseDir(cfg.LogDir),
		destination.WithStream(destination.StreamStdout, e.out, e.colour),
		destination.WithStream(destination.StreamStderr, e.app.ErrWriter, false),
	)
	if err != nil {
		return nil, err
	}

	mode := r.AllMode
	if cfg.AllMode != "" {
		if mode, err = router.ParseAllMode(cfg.AllMode); err != nil {
			return nil, err
		}
	}
	routes, err := router.New(r.Categories, reg, router.WithAllMode(mode))
	if err != nil {
		return nil, err
	}

	lay, err := layout.Compile(cfg.Layout)
	if err != nil {
		return nil, err
	}
	defaultCategory := r.DefaultCategory
	if cfg.DefaultCategory != "" {
		defaultCategory = cfg.DefaultCategory
	}

	opts := []catlog.Option{
		catlog.WithDefaultCategory(defaultCategory),
		catlog.WithLayout(lay),
		catlog.WithDiagnostics(e.app.diag),
	}
	if !cfg.Quiet {
		opts = append(opts, catlog.WithConsole(e.out, e.colour))
	}
	if e.app.metrics != nil {
		opts = append(opts, catlog.WithObserver(e.app.metrics))
	}
	return catlog.New(colours, reg, routes, opts...), nil
}

// summary returns the closing lines of a run.
func (e *runEnv) summary() []string {
	lines := []string{
		fmt.Sprintf("Scenarios run: %d", e.scenarios.Load()),
		fmt.Sprintf("Log calls: %d (%d with failed destinations)", e.calls.Load(), e.failed.Load()),
	}
	if e.memory != "" {
		lines = append(lines, e.memory)
	}
	lines = append(lines, "Elapsed: "+format.Duration(e.elapsed))
	return append(lines, fmt.Sprintf("Check %s for output files.", e.app.Config.LogDir))
}

// memoryLine formats the runtime memory change across a scenario.
func memoryLine(before, after metrics.MemorySnapshot) string {
	return fmt.Sprintf("Memory: heap %s, %d GC cycles, %d goroutines",
		format.Bytes(after.HeapAlloc), after.GCsSince(before), after.Goroutines)
}

// session is one scenario's logger plus the failures of its calls.
type session struct {
	env    *runEnv
	logger *catlog.Logger

	mu   sync.Mutex
	errs []error
}

func (e *runEnv) open(r config.Routing) (*session, error) {
	l, err := e.newLogger(r)
	if err != nil {
		return nil, err
	}
	e.scenarios.Add(1)
	return &session{env: e, logger: l}, nil
}

func (s *session) record(err error) {
	s.env.calls.Add(1)
	if err != nil {
		s.env.failed.Add(1)
		s.fail(err)
	}
}

func (s *session) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, err)
}

func (s *session) log(style, msg, category string) {
	s.record(s.logger.Log(style, msg, category))
}

func (s *session) colourLog(category string, args ...string) {
	s.record(s.logger.ColourLog(category, args...))
}

// abort closes the logger after err stopped the scenario and returns err
// joined with every failure seen.
func (s *session) abort(err error) error {
	return errors.Join(err, s.close())
}

// close closes the logger and returns every failure seen.
func (s *session) close() error {
	closeErr := s.logger.Close()
	s.mu.Lock()
	defer s.mu.Unlock()
	return errors.Join(append(s.errs, closeErr)...)
}
