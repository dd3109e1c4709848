package config

import "runtime"

// Worker resolution chain (highest priority first):
//   1. CLI flag (--workers)
//   2. Environment variable (CATLOG_WORKERS)
//   3. CPU-based estimate (this file)

// ApplyAdaptiveWorkers fills Workers from the CPU count when it was left at
// zero. Explicit values are kept.
func ApplyAdaptiveWorkers(cfg AppConfig) AppConfig {
	if cfg.Workers == 0 {
		cfg.Workers = EstimateWorkers(runtime.NumCPU())
	}
	return cfg
}

// EstimateWorkers returns a burst worker count for a machine with numCPU
// cores: twice the cores, clamped to [2, 32].
func EstimateWorkers(numCPU int) int {
	n := numCPU * 2
	switch {
	case n < 2:
		return 2
	case n > 32:
		return 32
	default:
		return n
	}
}
