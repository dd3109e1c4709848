package catlog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/agbru/catlog/internal/colour"
	"github.com/agbru/catlog/internal/destination"
	apperrors "github.com/agbru/catlog/internal/errors"
	"github.com/agbru/catlog/internal/layout"
	"github.com/agbru/catlog/internal/logging"
	"github.com/agbru/catlog/internal/router"
)

var fixedTime = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

func testColours() *colour.Manager {
	r := lipgloss.NewRenderer(&bytes.Buffer{})
	r.SetColorProfile(termenv.ANSI256)
	return colour.New(colour.Palette{
		{Token: "!info", Spec: colour.Spec{Colour: "cyan"}},
		{Token: "!warn", Spec: colour.Spec{Colour: "yellow", Prefix: "WARN: "}},
		{Token: "!error", Spec: colour.Spec{Colour: "red", Bold: true}},
		{Token: "!calc", Spec: colour.Spec{Colour: "magenta"}},
	}, colour.WithRenderer(r))
}

type fixture struct {
	dir    string
	logger *Logger
	dests  *destination.Registry
	routes *router.Router
}

func newFixture(t *testing.T, dests destination.Map, cats router.CategoryMap, opts ...Option) *fixture {
	t.Helper()
	dir := t.TempDir()
	reg, err := destination.NewRegistry(dests, nil, destination.WithBaseDir(dir))
	if err != nil {
		t.Fatalf("NewRegistry error = %v", err)
	}
	routes, err := router.New(cats, reg)
	if err != nil {
		t.Fatalf("router.New error = %v", err)
	}
	opts = append([]Option{WithLayout(layout.MustCompile(layout.Bare)), WithClock(func() time.Time { return fixedTime })}, opts...)
	l := New(testColours(), reg, routes, opts...)
	t.Cleanup(func() { l.Close() })
	return &fixture{dir: dir, logger: l, dests: reg, routes: routes}
}

func (f *fixture) read(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(f.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return ""
		}
		t.Fatalf("read %s: %v", name, err)
	}
	return string(data)
}

func standardDests() destination.Map {
	return destination.NewMap(
		destination.Destination{Name: "MASTER", Path: "master.log"},
		destination.Destination{Name: "SESSION", Path: "session.log"},
		destination.Destination{Name: "ERROR", Path: "error.log"},
		destination.Destination{Name: "API", Path: "api.log"},
	)
}

func standardCategories() router.CategoryMap {
	return router.CategoryMap{
		"default": {"MASTER", "SESSION"},
		"error":   {"MASTER", "SESSION", "ERROR"},
		"api":     {"API", "SESSION", "MASTER"},
	}
}

func TestLogWritesToEveryDestinationInOrder(t *testing.T) {
	t.Parallel()
	rec := &recordingObserver{}
	f := newFixture(t, standardDests(), standardCategories(), WithObserver(rec))

	if err := f.logger.Log("!info", "ping", "api"); err != nil {
		t.Fatalf("Log error = %v", err)
	}
	for _, file := range []string{"api.log", "session.log", "master.log"} {
		if got := f.read(t, file); got != "ping\n" {
			t.Errorf("%s = %q, want %q", file, got, "ping\n")
		}
	}
	if got := f.read(t, "error.log"); got != "" {
		t.Errorf("error.log should be untouched, got %q", got)
	}
	if want := []string{"API", "SESSION", "MASTER"}; !reflect.DeepEqual(rec.delivered(), want) {
		t.Errorf("delivery order = %v, want %v", rec.delivered(), want)
	}
}

func TestLogAppliesPrefixAndLayout(t *testing.T) {
	t.Parallel()
	lay := layout.MustCompile("%date [%category] %dest: %message")
	f := newFixture(t, standardDests(), standardCategories(), WithLayout(lay))

	if err := f.logger.Log("!warn", "disk almost full", "default"); err != nil {
		t.Fatal(err)
	}
	want := "2024-05-01 09:30:00 [default] MASTER: WARN: disk almost full\n"
	if got := f.read(t, "master.log"); got != want {
		t.Errorf("master.log = %q, want %q", got, want)
	}
	if got := f.read(t, "session.log"); !strings.Contains(got, "SESSION: WARN: disk almost full") {
		t.Errorf("session.log = %q", got)
	}
}

func TestLogFilesAreNeverStyled(t *testing.T) {
	t.Parallel()
	f := newFixture(t, standardDests(), standardCategories())
	if err := f.logger.Log("!error", "boom", "error"); err != nil {
		t.Fatal(err)
	}
	if got := f.read(t, "error.log"); strings.Contains(got, "\x1b[") || got != "boom\n" {
		t.Errorf("error.log = %q, want plain text", got)
	}
}

func TestLogUnknownCategoryFallsBack(t *testing.T) {
	t.Parallel()
	rec := &recordingObserver{}
	var diag bytes.Buffer
	f := newFixture(t, standardDests(), standardCategories(),
		WithObserver(rec), WithDiagnostics(logging.NewLogger(&diag, "test")))

	if err := f.logger.Log("!info", "who am i", "unknown_category"); err != nil {
		t.Fatalf("Log error = %v, want nil", err)
	}
	for _, file := range []string{"master.log", "session.log"} {
		if got := f.read(t, file); got != "who am i\n" {
			t.Errorf("%s = %q", file, got)
		}
	}
	if got := f.read(t, "api.log"); got != "" {
		t.Errorf("api.log = %q, want empty", got)
	}
	if len(rec.fallbacks) != 1 || rec.fallbacks[0] != "unknown_category->default" {
		t.Errorf("fallbacks = %v", rec.fallbacks)
	}
	if !strings.Contains(diag.String(), "unknown_category") {
		t.Errorf("diagnostics should mention the unknown category, got %q", diag.String())
	}
}

func TestLogCustomDefaultCategory(t *testing.T) {
	t.Parallel()
	f := newFixture(t, standardDests(), standardCategories(), WithDefaultCategory("error"))
	if err := f.logger.Log("!info", "x", "missing"); err != nil {
		t.Fatal(err)
	}
	if got := f.read(t, "error.log"); got != "x\n" {
		t.Errorf("error.log = %q", got)
	}
}

func TestLogDefaultCategoryMissing(t *testing.T) {
	t.Parallel()
	f := newFixture(t, standardDests(), router.CategoryMap{"api": {"API"}})

	err := f.logger.Log("!info", "lost", "nope")
	var de *apperrors.DeliveryError
	if !errors.As(err, &de) {
		t.Fatalf("error = %v, want DeliveryError", err)
	}
	var unknown apperrors.UnknownCategoryError
	if !errors.As(err, &unknown) || unknown.Category != "default" {
		t.Errorf("cause = %v, want unknown default category", de.Cause)
	}
	if de.Category != "nope" || de.RoutedCategory != "" {
		t.Errorf("Category = %q RoutedCategory = %q, want nope and empty", de.Category, de.RoutedCategory)
	}
	if got := f.read(t, "master.log"); got != "" {
		t.Errorf("nothing should be written, master.log = %q", got)
	}
}

func TestDeliveryErrorRecordsFallbackCategory(t *testing.T) {
	t.Parallel()
	f := newFixture(t, standardDests(), router.CategoryMap{
		"default": {"MASTER", "GHOST"},
		"api":     {"API", "GHOST"},
	})

	tests := []struct {
		category string
		routed   string
	}{
		{"api", "api"},
		{"billing", "default"},
		{"default", "default"},
	}
	for _, tt := range tests {
		err := f.logger.Log("!info", "x", tt.category)
		var de *apperrors.DeliveryError
		if !errors.As(err, &de) {
			t.Fatalf("Log(%q) error = %v, want DeliveryError", tt.category, err)
		}
		if de.Category != tt.category {
			t.Errorf("Log(%q): Category = %q", tt.category, de.Category)
		}
		if de.RoutedCategory != tt.routed {
			t.Errorf("Log(%q): RoutedCategory = %q, want %q", tt.category, de.RoutedCategory, tt.routed)
		}
	}
}

func TestLogPartialFailure(t *testing.T) {
	t.Parallel()
	f := newFixture(t, destination.NewMap(
		destination.Destination{Name: "MASTER", Path: "blocked/master.log"},
		destination.Destination{Name: "SESSION", Path: "session.log"},
	), router.CategoryMap{"default": {"MASTER", "SESSION"}})

	// A regular file where the folder should be makes MASTER unwritable.
	if err := os.WriteFile(filepath.Join(f.dir, "blocked"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	rec := &recordingObserver{}
	f.logger.observer = rec

	err := f.logger.Log("!info", "still here", "default")
	var de *apperrors.DeliveryError
	if !errors.As(err, &de) {
		t.Fatalf("error = %v, want DeliveryError", err)
	}
	if got := de.FailedDestinations(); !reflect.DeepEqual(got, []string{"MASTER"}) {
		t.Errorf("failed = %v, want [MASTER]", got)
	}
	if !reflect.DeepEqual(de.Delivered, []string{"SESSION"}) {
		t.Errorf("delivered = %v, want [SESSION]", de.Delivered)
	}
	if de.Failures[0].Op != "open" {
		t.Errorf("failure op = %q, want open", de.Failures[0].Op)
	}
	if got := f.read(t, "session.log"); got != "still here\n" {
		t.Errorf("session.log = %q", got)
	}
	if len(rec.failed) != 1 {
		t.Errorf("observer failures = %v", rec.failed)
	}
}

func TestLogUnknownDestinationIsReported(t *testing.T) {
	t.Parallel()
	f := newFixture(t, standardDests(), router.CategoryMap{
		"default": {"MASTER", "DEBUG", "SESSION"},
	})
	err := f.logger.Log("!info", "x", "default")
	if !errors.Is(err, apperrors.ErrUnknownDestination) {
		t.Fatalf("error = %v, want ErrUnknownDestination", err)
	}
	for _, file := range []string{"master.log", "session.log"} {
		if got := f.read(t, file); got != "x\n" {
			t.Errorf("%s = %q", file, got)
		}
	}
}

func TestLogUnknownStyleIsNeutral(t *testing.T) {
	t.Parallel()
	var console bytes.Buffer
	f := newFixture(t, standardDests(), standardCategories(), WithConsole(&console, true))
	if err := f.logger.Log("!nope", "plain", "default"); err != nil {
		t.Fatal(err)
	}
	if console.String() != "plain\n" {
		t.Errorf("console = %q, want unstyled text", console.String())
	}
}

func TestSetCategoriesTakesEffect(t *testing.T) {
	t.Parallel()
	f := newFixture(t, standardDests(), standardCategories())

	if err := f.logger.SetCategories(router.CategoryMap{"default": {"ERROR"}}); err != nil {
		t.Fatal(err)
	}
	if err := f.logger.Log("!info", "after", "api"); err != nil {
		t.Fatal(err)
	}
	if got := f.read(t, "error.log"); got != "after\n" {
		t.Errorf("error.log = %q", got)
	}
	if got := f.read(t, "api.log"); got != "" {
		t.Errorf("api is gone from the new map, api.log = %q", got)
	}
}

func TestInFlightCallKeepsItsSnapshot(t *testing.T) {
	t.Parallel()
	f := newFixture(t, standardDests(), standardCategories())

	swap := &swapObserver{fn: func() {
		f.logger.SetCategories(router.CategoryMap{"default": {"ERROR"}, "api": {"ERROR"}})
		f.logger.SetDestinations(destination.NewMap(destination.Destination{Name: "ERROR", Path: "error.log"}))
	}}
	f.logger.observer = swap

	if err := f.logger.Log("!info", "first", "api"); err != nil {
		t.Fatalf("in-flight call error = %v", err)
	}
	for _, file := range []string{"api.log", "session.log", "master.log"} {
		if got := f.read(t, file); got != "first\n" {
			t.Errorf("%s = %q, the call must finish on its original maps", file, got)
		}
	}
	if got := f.read(t, "error.log"); got != "" {
		t.Errorf("error.log = %q, want untouched by the in-flight call", got)
	}

	if err := f.logger.Log("!info", "second", "api"); err != nil {
		t.Fatal(err)
	}
	if got := f.read(t, "error.log"); got != "second\n" {
		t.Errorf("error.log = %q", got)
	}
}

func TestAllCategoryFollowsDestinations(t *testing.T) {
	t.Parallel()
	f := newFixture(t, standardDests(), standardCategories())

	if err := f.logger.Log("!info", "one", "all"); err != nil {
		t.Fatal(err)
	}
	for _, file := range []string{"master.log", "session.log", "error.log", "api.log"} {
		if got := f.read(t, file); got != "one\n" {
			t.Errorf("%s = %q", file, got)
		}
	}

	if err := f.logger.AddDestination("USER_MGMT", "user_mgmt.log"); err != nil {
		t.Fatal(err)
	}
	if err := f.logger.Log("!info", "two", "all"); err != nil {
		t.Fatal(err)
	}
	if got := f.read(t, "user_mgmt.log"); got != "two\n" {
		t.Errorf("user_mgmt.log = %q, all must include new destinations", got)
	}
}

func TestColourLog(t *testing.T) {
	t.Parallel()
	var console bytes.Buffer
	f := newFixture(t, standardDests(), standardCategories(), WithConsole(&console, false))

	if err := f.logger.ColourLog("default", "!warn", "Module", "!calc", "payment", "ready"); err != nil {
		t.Fatal(err)
	}
	want := "WARN: Module payment ready\n"
	if got := f.read(t, "master.log"); got != want {
		t.Errorf("master.log = %q, want %q", got, want)
	}
	if console.String() != want {
		t.Errorf("console = %q, want %q", console.String(), want)
	}
}

func TestConvenienceMethods(t *testing.T) {
	t.Parallel()
	f := newFixture(t, standardDests(), standardCategories(), WithLayout(layout.MustCompile("%style %message")))
	f.logger.Info("a", "default")
	f.logger.Warn("b", "default")
	f.logger.Error("c", "default")
	f.logger.Logf("!calc", "default", "n=%d", 42)

	want := "!info a\n!warn WARN: b\n!error c\n!calc n=42\n"
	if got := f.read(t, "master.log"); got != want {
		t.Errorf("master.log = %q, want %q", got, want)
	}
}

func TestConsoleEchoOncePerCall(t *testing.T) {
	t.Parallel()
	var console bytes.Buffer
	f := newFixture(t, standardDests(), standardCategories(), WithConsole(&console, true))
	f.logger.Log("!info", "hello", "api")

	lines := strings.Split(strings.TrimSuffix(console.String(), "\n"), "\n")
	if len(lines) != 1 {
		t.Fatalf("console lines = %d, want 1", len(lines))
	}
	if !strings.Contains(lines[0], "\x1b[") || !strings.Contains(lines[0], "hello") {
		t.Errorf("console line = %q, want styled hello", lines[0])
	}
}

func TestLogContext(t *testing.T) {
	t.Parallel()
	f := newFixture(t, standardDests(), standardCategories(),
		WithTracer(noop.NewTracerProvider().Tracer("test")))
	if err := f.logger.LogContext(context.Background(), "!info", "traced", "default"); err != nil {
		t.Fatal(err)
	}
	if got := f.read(t, "master.log"); got != "traced\n" {
		t.Errorf("master.log = %q", got)
	}
}

func TestLogAfterClose(t *testing.T) {
	t.Parallel()
	f := newFixture(t, standardDests(), standardCategories())
	if err := f.logger.Close(); err != nil {
		t.Fatal(err)
	}
	err := f.logger.Log("!info", "late", "default")
	if !errors.Is(err, apperrors.ErrRegistryClosed) {
		t.Errorf("error = %v, want ErrRegistryClosed", err)
	}
}

func TestConcurrentLogging(t *testing.T) {
	t.Parallel()
	f := newFixture(t, standardDests(), standardCategories())

	const goroutines, calls = 16, 50
	barrier := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(goroutines + 1)
	for g := 0; g < goroutines; g++ {
		go func(id int) {
			defer wg.Done()
			<-barrier
			for i := 0; i < calls; i++ {
				if err := f.logger.Log("!info", fmt.Sprintf("worker-%02d call-%03d", id, i), "api"); err != nil {
					t.Errorf("Log error = %v", err)
					return
				}
			}
		}(g)
	}
	go func() {
		defer wg.Done()
		<-barrier
		for i := 0; i < calls; i++ {
			f.logger.AddCategory(fmt.Sprintf("extra%d", i), []string{"MASTER"})
		}
	}()
	close(barrier)
	wg.Wait()

	for _, file := range []string{"api.log", "session.log", "master.log"} {
		lines := strings.Split(strings.TrimSuffix(f.read(t, file), "\n"), "\n")
		if len(lines) != goroutines*calls {
			t.Errorf("%s lines = %d, want %d", file, len(lines), goroutines*calls)
		}
		for _, l := range lines {
			if !strings.HasPrefix(l, "worker-") || len(l) != len("worker-00 call-000") {
				t.Fatalf("%s has a broken line %q", file, l)
			}
		}
	}
}

type recordingObserver struct {
	mu        sync.Mutex
	order     []string
	failed    []string
	fallbacks []string
}

func (r *recordingObserver) Delivered(_, dest string, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = append(r.order, dest)
}

func (r *recordingObserver) Failed(_, dest string, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed = append(r.failed, dest)
}

func (r *recordingObserver) FellBack(category, fallback string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallbacks = append(r.fallbacks, category+"->"+fallback)
}

func (r *recordingObserver) delivered() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.order...)
}

// swapObserver runs fn once, after the first delivery.
type swapObserver struct {
	once sync.Once
	fn   func()
}

func (s *swapObserver) Delivered(string, string, int) { s.once.Do(s.fn) }
func (s *swapObserver) Failed(string, string, error) {}
func (s *swapObserver) FellBack(string, string) {}
