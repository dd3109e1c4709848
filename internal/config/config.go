// Package config parses the command line and environment into an AppConfig
// and loads the routing document that defines colours, destinations and
// categories.
package config

import (
	"flag"
	"fmt"
	"io"
	"slices"
	"strings"

	apperrors "github.com/agbru/catlog/internal/errors"
	"github.com/agbru/catlog/internal/layout"
	"github.com/agbru/catlog/internal/router"
	"github.com/agbru/catlog/internal/ui"
)

// EnvPrefix is prepended to every environment override key.
const EnvPrefix = "CATLOG_"

// Diagnostic backends.
const (
	DiagZerolog = "zerolog"
	DiagLogrus  = "logrus"
	DiagStd     = "std"
)

// Scenarios lists the runnable demonstrations in execution order for "all".
var Scenarios = []string{"global", "runtime", "inheritance", "dynamic", "burst"}

// AppConfig holds the settings of one run.
type AppConfig struct {
	// ConfigFile is a JSON or YAML routing document; empty uses the embedded default.
	ConfigFile string
	// LogDir is the base directory for relative destination paths.
	LogDir string
	// DefaultCategory overrides the document's fallback category when set.
	DefaultCategory string
	// AllMode overrides the document's "all" resolution when set.
	AllMode string
	// Layout is the line template for file destinations.
	Layout string
	// Scenario is one of Scenarios or "all".
	Scenario string
	// DiagBackend selects the diagnostics logger.
	DiagBackend string
	// Theme names the colour theme for the built-in palette.
	Theme string
	// Workers bounds the goroutines of the burst scenario; 0 picks a value
	// from the CPU count.
	Workers int
	// Calls is the number of log calls each burst worker makes.
	Calls   int
	NoColor bool
	Quiet   bool
	Verbose bool
	// Metrics prints the Prometheus exposition after the run.
	Metrics bool
}

// Validate checks the configuration for consistency.
//
// Returns:
//   - error: A ConfigError describing the first problem, or nil.
func (c AppConfig) Validate() error {
	if c.Scenario != "all" && !slices.Contains(Scenarios, c.Scenario) {
		return apperrors.NewConfigError("unknown scenario %q (want one of %s, all)", c.Scenario, strings.Join(Scenarios, ", "))
	}
	switch c.DiagBackend {
	case DiagZerolog, DiagLogrus, DiagStd:
	default:
		return apperrors.NewConfigError("unknown diagnostics backend %q (want zerolog, logrus or std)", c.DiagBackend)
	}
	if c.AllMode != "" {
		if _, err := router.ParseAllMode(c.AllMode); err != nil {
			return err
		}
	}
	if _, err := layout.Compile(c.Layout); err != nil {
		return apperrors.NewConfigError("invalid layout: %v", err)
	}
	if _, ok := ui.LookupTheme(c.Theme); !ok {
		return apperrors.NewConfigError("unknown theme %q (want one of %s)", c.Theme, strings.Join(ui.ThemeNames(), ", "))
	}
	if c.Workers < 0 {
		return apperrors.NewConfigError("workers must be >= 0, got %d", c.Workers)
	}
	if c.Calls < 1 {
		return apperrors.NewConfigError("calls must be >= 1, got %d", c.Calls)
	}
	return nil
}

// ParseConfig parses args (without the program name) into an AppConfig.
// Flags win over CATLOG_* environment variables, which win over defaults.
//
// Parameters:
//   - programName: Name shown in usage output.
//   - args: Command-line arguments.
//   - errWriter: Destination for usage and parse errors.
//
// Returns:
//   - AppConfig: The parsed configuration.
//   - error: flag.ErrHelp for -h, a parse error, or a ConfigError.
func ParseConfig(programName string, args []string, errWriter io.Writer) (AppConfig, error) {
	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	fs.SetOutput(errWriter)
	fs.Usage = func() {
		fmt.Fprintf(errWriter, "Usage: %s [options]\n\nRuns category-routed logging scenarios.\n\nOptions:\n", programName)
		fs.PrintDefaults()
	}

	config := AppConfig{}
	fs.StringVar(&config.ConfigFile, "config", "", "Routing document (JSON or YAML). Empty uses the built-in default.")
	fs.StringVar(&config.LogDir, "log-dir", ".", "Base directory for relative destination paths.")
	fs.StringVar(&config.DefaultCategory, "default-category", "", "Fallback category for unknown categories.")
	fs.StringVar(&config.AllMode, "all-mode", "", "How the 'all' category resolves: computed or explicit.")
	fs.StringVar(&config.Layout, "layout", layout.Default, "Line template for file destinations.")
	fs.StringVar(&config.Scenario, "scenario", "all", "Scenario to run: "+strings.Join(Scenarios, ", ")+" or all.")
	fs.StringVar(&config.Scenario, "s", "all", "Shorthand for --scenario.")
	fs.StringVar(&config.DiagBackend, "diag", DiagZerolog, "Diagnostics backend: zerolog, logrus or std.")
	fs.StringVar(&config.Theme, "theme", "dark", "Colour theme: "+strings.Join(ui.ThemeNames(), ", ")+".")
	fs.IntVar(&config.Workers, "workers", 0, "Burst scenario goroutines (0 picks from CPU count).")
	fs.IntVar(&config.Calls, "calls", 25, "Log calls per burst worker.")
	fs.BoolVar(&config.NoColor, "no-color", false, "Disable coloured console output.")
	fs.BoolVar(&config.Quiet, "quiet", false, "Suppress console echo.")
	fs.BoolVar(&config.Quiet, "q", false, "Shorthand for --quiet.")
	fs.BoolVar(&config.Verbose, "verbose", false, "Log engine diagnostics at debug level.")
	fs.BoolVar(&config.Verbose, "v", false, "Shorthand for --verbose.")
	fs.BoolVar(&config.Metrics, "metrics", false, "Print Prometheus metrics after the run.")

	if err := fs.Parse(args); err != nil {
		return AppConfig{}, err
	}
	if fs.NArg() > 0 {
		return AppConfig{}, apperrors.NewConfigError("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	applyEnvOverrides(&config, fs)
	config = ApplyAdaptiveWorkers(config)

	if err := config.Validate(); err != nil {
		fmt.Fprintln(errWriter, "Error:", err)
		return AppConfig{}, err
	}
	return config, nil
}
