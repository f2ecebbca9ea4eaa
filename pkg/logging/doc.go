// Package logging provides structured logging defaults for fairshared
// components.
//
// It wraps the standard library slog package with shared conventions: JSON
// output to stderr, module and version context on every record, LOG_LEVEL
// environment configuration, and source location tracking for debug logs.
//
// Set the default logger early in main:
//
//	logging.SetDefaultStructuredLogger("fairshared", version)
//	slog.Info("starting", "interval", cfg.Interval)
//
// Components receive loggers by reference rather than reaching into ambient
// global state; the default installed here is only the fallback.
package logging
