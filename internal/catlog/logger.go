package catlog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/agbru/catlog/internal/colour"
	"github.com/agbru/catlog/internal/destination"
	apperrors "github.com/agbru/catlog/internal/errors"
	"github.com/agbru/catlog/internal/layout"
	"github.com/agbru/catlog/internal/logging"
	"github.com/agbru/catlog/internal/router"
)

const tracerName = "github.com/agbru/catlog/internal/catlog"

// Logger routes decorated entries to the destinations of their category.
type Logger struct {
	colours *colour.Manager
	dests   *destination.Registry
	routes  *router.Router

	defaultCategory string
	layout          *layout.Layout
	now             func() time.Time
	observer        Observer
	diag            logging.Logger
	tracer          trace.Tracer

	consoleMu     sync.Mutex
	console       io.Writer
	consoleColour bool
}

// New creates a Logger over its three collaborators.
//
// Parameters:
//   - colours: Resolves style tokens to decorations.
//   - dests: Destination registry; the Logger owns it and closes it in Close.
//   - routes: Category router.
//   - opts: Functional options.
//
// Returns:
//   - *Logger: A logger ready for concurrent use.
func New(colours *colour.Manager, dests *destination.Registry, routes *router.Router, opts ...Option) *Logger {
	l := &Logger{
		colours:         colours,
		dests:           dests,
		routes:          routes,
		defaultCategory: DefaultCategory,
		layout:          layout.MustCompile(layout.Default),
		now:             time.Now,
		observer:        nopObserver{},
		diag:            logging.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.tracer == nil {
		l.tracer = otel.Tracer(tracerName)
	}
	return l
}

// message is a decorated body in both renderings.
type message struct {
	plain    string
	rendered string
}

func (m message) body(colour bool) string {
	if colour {
		return m.rendered
	}
	return m.plain
}

// Log writes message, decorated by style, to every destination of category.
// An unknown category falls back to the default category. It returns nil
// when every destination received the line, or a *apperrors.DeliveryError
// listing the destinations that failed.
func (l *Logger) Log(style, msg, category string) error {
	return l.LogContext(context.Background(), style, msg, category)
}

// LogContext is Log inside a "catlog.Log" span started from ctx.
func (l *Logger) LogContext(ctx context.Context, style, msg, category string) error {
	deco := l.colours.Decorate(style)
	m := message{plain: deco.Plain(msg), rendered: deco.Render(msg)}
	return l.emit(ctx, layout.Entry{Time: l.now(), Style: style, Category: category, Message: msg}, m)
}

// ColourLog writes a multi-segment message to category. Arguments naming a
// palette token ("!calc") switch the style for the text that follows.
//
//	log.ColourLog("payment", "!info", "Module", "!calc", "payment", "!done", "initialized")
func (l *Logger) ColourLog(category string, args ...string) error {
	segs := l.colours.Segments(args...)
	m := message{plain: segs.Plain(), rendered: segs.Render()}
	entry := layout.Entry{Time: l.now(), Style: segs.Lead(), Category: category, Message: m.plain}
	return l.emit(context.Background(), entry, m)
}

// Info logs msg with the "!info" style.
func (l *Logger) Info(msg, category string) error { return l.Log("!info", msg, category) }

// Warn logs msg with the "!warn" style.
func (l *Logger) Warn(msg, category string) error { return l.Log("!warn", msg, category) }

// Error logs msg with the "!error" style.
func (l *Logger) Error(msg, category string) error { return l.Log("!error", msg, category) }

// Logf formats its arguments and logs the result.
func (l *Logger) Logf(style, category, format string, args ...any) error {
	return l.Log(style, fmt.Sprintf(format, args...), category)
}

func (l *Logger) emit(ctx context.Context, entry layout.Entry, m message) error {
	_, span := l.tracer.Start(ctx, "catlog.Log", trace.WithAttributes(
		attribute.String("catlog.category", entry.Category),
		attribute.String("catlog.style", entry.Style),
	))
	defer span.End()

	err := l.deliver(entry, m)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		var de *apperrors.DeliveryError
		if errors.As(err, &de) {
			span.SetAttributes(
				attribute.StringSlice("catlog.delivered", de.Delivered),
				attribute.StringSlice("catlog.failed", de.FailedDestinations()),
			)
		}
		return err
	}
	return nil
}

func (l *Logger) deliver(entry layout.Entry, m message) error {
	table := l.dests.Snapshot()
	names, routed, err := l.resolve(entry.Category, table)
	if err != nil {
		l.diag.Error("category resolution failed", err, logging.String("category", entry.Category))
		return &apperrors.DeliveryError{Category: entry.Category, Cause: err}
	}

	l.echo(m)

	var (
		delivered []string
		failures  []apperrors.DestinationError
	)
	for _, name := range names {
		n, err := table.WriteFunc(name, func(colour bool) []byte {
			return []byte(l.layout.Format(entry, name, m.body(colour)) + "\n")
		})
		if err != nil {
			de := asDestinationError(name, err)
			failures = append(failures, de)
			l.observer.Failed(entry.Category, name, err)
			l.diag.Warn("destination write failed",
				logging.String("category", entry.Category),
				logging.String("destination", name),
				logging.Err(err))
			continue
		}
		delivered = append(delivered, name)
		l.observer.Delivered(entry.Category, name, n)
	}

	if len(failures) == 0 {
		return nil
	}
	return &apperrors.DeliveryError{
		Category:       entry.Category,
		RoutedCategory: routed,
		Delivered:      delivered,
		Failures:       failures,
	}
}

// resolve returns the destinations of category in table and the category
// they belong to, substituting the default category for an unknown one.
func (l *Logger) resolve(category string, table *destination.Table) ([]string, string, error) {
	names, err := l.routes.ResolveWith(category, table.Names())
	var unknown apperrors.UnknownCategoryError
	if err == nil {
		return names, category, nil
	}
	if !errors.As(err, &unknown) || category == l.defaultCategory {
		return nil, "", err
	}
	l.observer.FellBack(category, l.defaultCategory)
	l.diag.Warn("unknown category, using default",
		logging.String("category", category),
		logging.String("default", l.defaultCategory))
	names, err = l.routes.ResolveWith(l.defaultCategory, table.Names())
	if err != nil {
		return nil, "", err
	}
	return names, l.defaultCategory, nil
}

func (l *Logger) echo(m message) {
	if l.console == nil {
		return
	}
	l.consoleMu.Lock()
	defer l.consoleMu.Unlock()
	if _, err := io.WriteString(l.console, m.body(l.consoleColour)+"\n"); err != nil {
		l.diag.Warn("console echo failed", logging.Err(err))
	}
}

func asDestinationError(name string, err error) apperrors.DestinationError {
	var de apperrors.DestinationError
	if errors.As(err, &de) {
		return de
	}
	return apperrors.DestinationError{Destination: name, Op: "write", Cause: err}
}

// ─────────────────────────────────────────────────────────────────────────────
// Runtime reconfiguration
// ─────────────────────────────────────────────────────────────────────────────

// SetDestinations replaces the whole destination map.
func (l *Logger) SetDestinations(m destination.Map) error {
	return l.dests.SetDestinations(m)
}

// AddDestination adds or replaces one destination.
func (l *Logger) AddDestination(name, path string) error {
	return l.dests.Set(name, path)
}

// SetCategories replaces the whole category map.
func (l *Logger) SetCategories(m router.CategoryMap) error {
	return l.routes.SetCategories(m)
}

// AddCategory adds or replaces one category.
func (l *Logger) AddCategory(name string, dests []string) error {
	return l.routes.AddCategory(name, dests)
}

// Destinations returns a copy of the current destination map.
func (l *Logger) Destinations() destination.Map { return l.dests.Destinations() }

// Categories returns a copy of the current category map.
func (l *Logger) Categories() router.CategoryMap { return l.routes.Categories() }

// Reopen closes every open sink so the next write reopens its path. It is
// meant for log rotation and for releasing files left open by a swapped map.
func (l *Logger) Reopen() error { return l.dests.Reopen() }

// Close flushes and closes every sink. Later calls fail with
// apperrors.ErrRegistryClosed.
func (l *Logger) Close() error { return l.dests.Close() }
