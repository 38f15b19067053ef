// Package logging assembles structured slog loggers and formatting helpers used
// by the mvnd client and daemons.
//
// It owns the console and JSON handlers, routes output to stderr or log files,
// and exposes field helpers so warnings carry an event type, a hint, and an
// impact. The client never logs to the terminal it renders progress on; its
// logger is pointed at a file instead.
package logging
