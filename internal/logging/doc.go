// Package logging assembles structured slog loggers and formatting helpers used
// across twix.
//
// It owns the console and JSON handlers, centralizes level and output plumbing,
// and exposes context-aware helpers so the client and task monitor tag log lines
// with task IDs, panel names, and correlation IDs. Logs default to stderr; the
// console handler colours levels only when writing to a terminal.
package logging
