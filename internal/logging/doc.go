// Package logging builds slog loggers with the repository's console and JSON
// handlers, plus shared attribute helpers and field name constants so every
// component logs with the same keys.
package logging
