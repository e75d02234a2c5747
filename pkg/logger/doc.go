// Package logger builds configured slog.Logger instances with sensible
// environment presets: JSON at info level for production, text at debug
// level for development. Components receive a *slog.Logger by injection;
// nothing in this module logs through a package-level global except as a
// fallback default.
package logger
