package config

import (
	"bytes"
	"errors"
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/agbru/catlog/internal/errors"
	"github.com/agbru/catlog/internal/layout"
)

func TestParseConfig_Defaults(t *testing.T) {
	var errBuf bytes.Buffer
	cfg, err := ParseConfig("catlog", nil, &errBuf)
	require.NoError(t, err)

	assert.Equal(t, "all", cfg.Scenario)
	assert.Equal(t, ".", cfg.LogDir)
	assert.Equal(t, layout.Default, cfg.Layout)
	assert.Equal(t, DiagZerolog, cfg.DiagBackend)
	assert.Equal(t, "dark", cfg.Theme)
	assert.Equal(t, 25, cfg.Calls)
	assert.GreaterOrEqual(t, cfg.Workers, 2, "workers should be estimated when left at 0")
	assert.False(t, cfg.Metrics)
	assert.Empty(t, errBuf.String())
}

func TestParseConfig_Flags(t *testing.T) {
	cfg, err := ParseConfig("catlog", []string{
		"--config", "routes.yaml",
		"--log-dir", "/tmp/x",
		"-s", "burst",
		"--workers", "3",
		"--calls", "10",
		"--diag", "logrus",
		"--all-mode", "explicit",
		"--layout", "%message",
		"--theme", "light",
		"-q", "-v", "--no-color", "--metrics",
	}, &bytes.Buffer{})
	require.NoError(t, err)

	assert.Equal(t, AppConfig{
		ConfigFile:  "routes.yaml",
		LogDir:      "/tmp/x",
		AllMode:     "explicit",
		Layout:      "%message",
		Scenario:    "burst",
		DiagBackend: DiagLogrus,
		Theme:       "light",
		Workers:     3,
		Calls:       10,
		NoColor:     true,
		Quiet:       true,
		Verbose:     true,
		Metrics:     true,
	}, cfg)
}

func TestParseConfig_EnvOverrides(t *testing.T) {
	t.Setenv("CATLOG_SCENARIO", "dynamic")
	t.Setenv("CATLOG_WORKERS", "7")
	t.Setenv("CATLOG_QUIET", "yes")
	t.Setenv("CATLOG_DIAG", "STD")
	t.Setenv("CATLOG_DEFAULT_CATEGORY", "error")

	cfg, err := ParseConfig("catlog", nil, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "dynamic", cfg.Scenario)
	assert.Equal(t, 7, cfg.Workers)
	assert.True(t, cfg.Quiet)
	assert.Equal(t, DiagStd, cfg.DiagBackend)
	assert.Equal(t, "error", cfg.DefaultCategory)
}

func TestParseConfig_FlagBeatsEnv(t *testing.T) {
	t.Setenv("CATLOG_SCENARIO", "dynamic")
	t.Setenv("CATLOG_WORKERS", "not-a-number")

	cfg, err := ParseConfig("catlog", []string{"--scenario", "global", "--workers", "5"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "global", cfg.Scenario)
	assert.Equal(t, 5, cfg.Workers)
}

func TestParseConfig_InvalidEnvIgnored(t *testing.T) {
	t.Setenv("CATLOG_CALLS", "lots")
	t.Setenv("CATLOG_METRICS", "maybe")

	cfg, err := ParseConfig("catlog", nil, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.Calls)
	assert.False(t, cfg.Metrics)
}

func TestParseConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown scenario", []string{"--scenario", "chaos"}},
		{"unknown backend", []string{"--diag", "slog"}},
		{"bad all mode", []string{"--all-mode", "union"}},
		{"bad layout", []string{"--layout", "%bogus"}},
		{"bad theme", []string{"--theme", "neon"}},
		{"negative workers", []string{"--workers", "-1"}},
		{"zero calls", []string{"--calls", "0"}},
		{"stray argument", []string{"extra"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig("catlog", tt.args, &bytes.Buffer{})
			var cfgErr apperrors.ConfigError
			require.Error(t, err)
			assert.True(t, errors.As(err, &cfgErr), "want ConfigError, got %T: %v", err, err)
		})
	}
}

func TestParseConfig_Help(t *testing.T) {
	var errBuf bytes.Buffer
	_, err := ParseConfig("catlog", []string{"-h"}, &errBuf)
	require.ErrorIs(t, err, flag.ErrHelp)
	assert.Contains(t, errBuf.String(), "Usage: catlog")
	assert.Contains(t, errBuf.String(), "-scenario")
}

func TestEstimateWorkers(t *testing.T) {
	tests := []struct {
		cpus, want int
	}{
		{0, 2},
		{1, 2},
		{4, 8},
		{16, 32},
		{64, 32},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EstimateWorkers(tt.cpus), "cpus=%d", tt.cpus)
	}
	assert.Equal(t, 9, ApplyAdaptiveWorkers(AppConfig{Workers: 9}).Workers)
}
