// Package terminal wraps the client's standard output: buffered writes, size
// and TTY detection, and the lipgloss styles used for user-facing text.
package terminal
