// Package logging assembles structured slog loggers and formatting helpers used
// across factcheck components.
//
// It owns the console and JSON handlers, centralizes level and output plumbing,
// and exposes context-aware helpers so pipeline code can tag log lines with
// owner keys, stages, and correlation IDs. When a log directory is configured a
// JSON copy of every record is appended to factcheck.log alongside the console
// output. The package also provides a no-op logger for tests and for the
// disabled logging toggle.
package logging
