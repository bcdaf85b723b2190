// Package logging provides structured, file-based logging with rotation
// for sentryscreen: a rotating writer behind a slog JSON handler.
// When the --debug flag is set, comprehensive logs are written to
// ~/.sentryscreen/logs/ for debugging ingestion runs and request traces.
//
// Without --debug, the serve command logs at the configured log_level to
// the same rotating file and to stderr; other commands log to stderr
// only.
package logging
