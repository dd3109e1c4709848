// This file contains environment variable utilities for configuration override.

package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
)

// ─────────────────────────────────────────────────────────────────────────────
// Environment Variable Utilities
// ─────────────────────────────────────────────────────────────────────────────

// isFlagSet checks if a flag was explicitly set on the command line.
// This is used to determine whether to apply environment variable overrides.
func isFlagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// isFlagSetAny checks if any of the specified flags were explicitly set.
// This is useful for aliased flags where either the short or long form may be used.
func isFlagSetAny(fs *flag.FlagSet, names ...string) bool {
	for _, name := range names {
		if isFlagSet(fs, name) {
			return true
		}
	}
	return false
}

// envOverride declares a single environment variable override.
// Each entry maps an env key (without the CATLOG_ prefix) to the CLI flag
// name(s) it corresponds to and a function that applies the env value.
type envOverride struct {
	envKey string
	flags  []string
	apply  func(*AppConfig, string)
}

// envOverrides is the declarative table of all environment variable overrides.
var envOverrides = []envOverride{
	// Numeric overrides
	{"WORKERS", []string{"workers"}, func(c *AppConfig, v string) {
		if parsed, err := strconv.Atoi(v); err == nil {
			c.Workers = parsed
		}
	}},
	{"CALLS", []string{"calls"}, func(c *AppConfig, v string) {
		if parsed, err := strconv.Atoi(v); err == nil {
			c.Calls = parsed
		}
	}},

	// String overrides
	{"CONFIG", []string{"config"}, func(c *AppConfig, v string) {
		c.ConfigFile = v
	}},
	{"LOG_DIR", []string{"log-dir"}, func(c *AppConfig, v string) {
		c.LogDir = v
	}},
	{"DEFAULT_CATEGORY", []string{"default-category"}, func(c *AppConfig, v string) {
		c.DefaultCategory = v
	}},
	{"ALL_MODE", []string{"all-mode"}, func(c *AppConfig, v string) {
		c.AllMode = v
	}},
	{"LAYOUT", []string{"layout"}, func(c *AppConfig, v string) {
		c.Layout = v
	}},
	{"SCENARIO", []string{"scenario", "s"}, func(c *AppConfig, v string) {
		c.Scenario = v
	}},
	{"DIAG", []string{"diag"}, func(c *AppConfig, v string) {
		c.DiagBackend = strings.ToLower(v)
	}},
	{"THEME", []string{"theme"}, func(c *AppConfig, v string) {
		c.Theme = strings.ToLower(v)
	}},

	// Boolean overrides
	{"NO_COLOR", []string{"no-color"}, func(c *AppConfig, v string) {
		c.NoColor = parseBoolEnv(v, c.NoColor)
	}},
	{"QUIET", []string{"quiet", "q"}, func(c *AppConfig, v string) {
		c.Quiet = parseBoolEnv(v, c.Quiet)
	}},
	{"VERBOSE", []string{"verbose", "v"}, func(c *AppConfig, v string) {
		c.Verbose = parseBoolEnv(v, c.Verbose)
	}},
	{"METRICS", []string{"metrics"}, func(c *AppConfig, v string) {
		c.Metrics = parseBoolEnv(v, c.Metrics)
	}},
}

// parseBoolEnv parses a boolean environment variable value.
// Accepts "true", "1", "yes" as true; "false", "0", "no" as false (case-insensitive).
// Returns defaultVal if the value is not recognized.
func parseBoolEnv(val string, defaultVal bool) bool {
	switch strings.ToLower(val) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	return defaultVal
}

// applyEnvOverrides applies environment variable values to the configuration
// for any flags that were not explicitly set on the command line.
// This implements the priority: CLI flags > Environment variables > Defaults.
//
// Supported environment variables (all prefixed with CATLOG_):
//   - CONFIG, LOG_DIR, DEFAULT_CATEGORY, ALL_MODE, LAYOUT, SCENARIO, DIAG,
//     THEME, WORKERS, CALLS, NO_COLOR, QUIET, VERBOSE, METRICS
func applyEnvOverrides(config *AppConfig, fs *flag.FlagSet) {
	for _, o := range envOverrides {
		if isFlagSetAny(fs, o.flags...) {
			continue
		}
		if val := os.Getenv(EnvPrefix + o.envKey); val != "" {
			o.apply(config, val)
		}
	}
}
