// Package logging provides the diagnostic logging interface for catlog.
// It covers messages about the engine itself (fallbacks, failed sinks,
// configuration reloads), never the routed log entries, and abstracts the
// underlying backend so components can log consistently whether the host
// application uses zerolog, logrus or the standard library logger.
package logging
