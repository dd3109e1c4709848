package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/muesli/termenv"
	"github.com/rs/zerolog"
	"github.com/sirupsen/logrus"

	"github.com/agbru/catlog/internal/config"
	apperrors "github.com/agbru/catlog/internal/errors"
	"github.com/agbru/catlog/internal/logging"
	"github.com/agbru/catlog/internal/metrics"
	"github.com/agbru/catlog/internal/ui"
)

// Application represents the catlog application instance.
type Application struct {
	Config    config.AppConfig
	Routing   config.Routing
	SessionID string
	ErrWriter io.Writer

	diag    logging.Logger
	metrics *metrics.Collector
}

// AppOption configures an Application during construction.
type AppOption func(*Application)

// WithSessionID fixes the session id instead of generating one.
func WithSessionID(id string) AppOption {
	return func(a *Application) { a.SessionID = id }
}

// WithDiagnostics replaces the diagnostics logger chosen by --diag.
func WithDiagnostics(l logging.Logger) AppOption {
	return func(a *Application) { a.diag = l }
}

// New creates a new Application instance by parsing command-line arguments
// and loading the routing document.
func New(args []string, errWriter io.Writer, opts ...AppOption) (*Application, error) {
	app := &Application{ErrWriter: errWriter}
	for _, opt := range opts {
		opt(app)
	}

	programName := "catlog"
	var cmdArgs []string
	if len(args) > 0 {
		programName = args[0]
		cmdArgs = args[1:]
	}

	cfg, err := config.ParseConfig(programName, cmdArgs, errWriter)
	if err != nil {
		return nil, err
	}
	app.Config = cfg

	routing, err := loadRouting(cfg)
	if err != nil {
		fmt.Fprintf(errWriter, "Error: %v\n", err)
		return nil, err
	}
	app.Routing = routing

	if app.SessionID == "" {
		app.SessionID = uuid.NewString()
	}
	if app.diag == nil {
		app.diag = newDiagnostics(cfg, errWriter)
	}
	if cfg.Metrics {
		app.metrics = metrics.NewCollector()
	}
	return app, nil
}

func loadRouting(cfg config.AppConfig) (config.Routing, error) {
	if cfg.ConfigFile == "" {
		return config.DefaultRouting()
	}
	return config.LoadRouting(cfg.ConfigFile)
}

// newDiagnostics builds the engine's meta-logger for the configured backend.
func newDiagnostics(cfg config.AppConfig, w io.Writer) logging.Logger {
	switch cfg.DiagBackend {
	case config.DiagLogrus:
		level := logrus.InfoLevel
		if cfg.Verbose {
			level = logrus.DebugLevel
		}
		return logging.NewLogrusLogger(w, "catlog", level)
	case config.DiagStd:
		return logging.NewStdLoggerAdapter(log.New(w, "catlog ", log.LstdFlags))
	default:
		return logging.NewConsoleLogger(w, "catlog", cfg.NoColor)
	}
}

// Run executes the configured scenarios and returns the process exit code.
func (a *Application) Run(ctx context.Context, out io.Writer) int {
	if a.Config.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	ui.InitTheme(a.Config.Theme, a.Config.NoColor)

	ctx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	renderer := lipgloss.NewRenderer(out)
	colour := ui.ColorsEnabled() && renderer.ColorProfile() != termenv.Ascii
	printer := newPrinter(out, renderer, colour)

	printer.banner(fmt.Sprintf("catlog session %s", a.SessionID))
	a.diag.Info("session started",
		logging.String("session", a.SessionID),
		logging.String("scenario", a.Config.Scenario),
		logging.String("log_dir", a.Config.LogDir))

	env := &runEnv{app: a, out: out, renderer: renderer, colour: colour, printer: printer}
	start := time.Now()
	code := apperrors.ExitSuccess
	for _, sc := range selectScenarios(a.Config.Scenario) {
		if ctx.Err() != nil {
			break
		}
		printer.header(sc.title)
		if err := sc.run(ctx, env); err != nil {
			code = worseExitCode(code, a.exitCode(err))
		}
	}
	if ctx.Err() != nil {
		code = apperrors.ExitErrorCanceled
	}

	env.elapsed = time.Since(start)
	printer.footer(env.summary())
	if a.metrics != nil {
		if err := a.metrics.WriteText(out); err != nil {
			a.diag.Error("write metrics", err)
		}
	}
	return code
}

// exitCode reports err and maps it to an exit code.
func (a *Application) exitCode(err error) int {
	var de *apperrors.DeliveryError
	switch {
	case apperrors.IsContextError(err):
		a.diag.Warn("run canceled")
		return apperrors.ExitErrorCanceled
	case errors.As(err, &de):
		a.diag.Error("delivery failed", err,
			logging.String("category", de.Category),
			logging.Strings("failed", de.FailedDestinations()))
		return apperrors.ExitErrorDelivery
	default:
		a.diag.Error("scenario failed", err)
		return apperrors.ExitErrorGeneric
	}
}

// IsHelpError checks if the error is a help flag error (--help was used).
func IsHelpError(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}

// worseExitCode returns the code that should win when a run hits both.
// Cancellation always wins; otherwise the higher code does.
func worseExitCode(a, b int) int {
	if a == apperrors.ExitErrorCanceled || b == apperrors.ExitErrorCanceled {
		return apperrors.ExitErrorCanceled
	}
	return max(a, b)
}

// ExitCodeFor maps a construction error from New to an exit code. New only
// fails on the command line or the routing document.
func ExitCodeFor(err error) int {
	if err == nil || IsHelpError(err) {
		return apperrors.ExitSuccess
	}
	return apperrors.ExitErrorConfig
}
