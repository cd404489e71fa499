// Package logger provides structured JSON logging on top of log/slog,
// plus helpers for carrying a request-scoped logger in a context.
package logger
