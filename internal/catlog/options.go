package catlog

import (
	"io"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/agbru/catlog/internal/layout"
	"github.com/agbru/catlog/internal/logging"
)

// DefaultCategory is the fallback for unknown categories.
const DefaultCategory = "default"

// Observer receives delivery events. Implementations must be safe for
// concurrent use.
type Observer interface {
	// Delivered is called after n bytes were written to destination.
	Delivered(category, destination string, n int)
	// Failed is called when writing to destination failed.
	Failed(category, destination string, err error)
	// FellBack is called when category was unknown and fallback was used.
	FellBack(category, fallback string)
}

type nopObserver struct{}

func (nopObserver) Delivered(string, string, int) {}
func (nopObserver) Failed(string, string, error) {}
func (nopObserver) FellBack(string, string) {}

// Option configures a Logger.
type Option func(*Logger)

// WithDefaultCategory sets the category used when a call names an unknown
// one.
func WithDefaultCategory(name string) Option {
	return func(l *Logger) { l.defaultCategory = name }
}

// WithLayout sets the line template for every destination.
func WithLayout(lay *layout.Layout) Option {
	return func(l *Logger) { l.layout = lay }
}

// WithConsole echoes each call's decorated message to w once, styled when
// colour is true, regardless of how many destinations receive it.
func WithConsole(w io.Writer, colour bool) Option {
	return func(l *Logger) {
		l.console = w
		l.consoleColour = colour
	}
}

// WithClock replaces time.Now for entry timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Logger) { l.now = now }
}

// WithObserver registers o for delivery events.
func WithObserver(o Observer) Option {
	return func(l *Logger) { l.observer = o }
}

// WithDiagnostics sets the logger for meta-errors about the engine itself.
func WithDiagnostics(d logging.Logger) Option {
	return func(l *Logger) { l.diag = d }
}

// WithTracer sets the tracer used by LogContext.
func WithTracer(t trace.Tracer) Option {
	return func(l *Logger) { l.tracer = t }
}
