// Package logger provides structured logging for sqld services.
//
// It wraps log/slog with a small Logger interface, a process-wide level
// that can be changed at runtime (config reload), and helpers to carry a
// logger and request ID through a context.Context.
//
// Storage packages take a plain *slog.Logger; use Logger.Slog to hand
// them the same handler.
package logger
