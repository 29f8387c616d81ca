// Package logger is the process-wide structured log. WILLOW_DEBUG=true
// lowers the level, WILLOW_LOG=json switches to machine-readable output
// for collected deployments.
package logger

import (
	"log/slog"
	"os"
)

var log = slog.New(newHandler())

func newHandler() slog.Handler {
	opts := &slog.HandlerOptions{Level: levelFromEnv()}
	if os.Getenv("WILLOW_LOG") == "json" {
		return slog.NewJSONHandler(os.Stderr, opts)
	}
	return slog.NewTextHandler(os.Stderr, opts)
}

func levelFromEnv() slog.Level {
	if os.Getenv("WILLOW_DEBUG") == "true" {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func Debug(msg string, args ...any) {
	log.Debug(msg, args...)
}

func Info(msg string, args ...any) {
	log.Info(msg, args...)
}

func Warn(msg string, args ...any) {
	log.Warn(msg, args...)
}

func Error(msg string, args ...any) {
	log.Error(msg, args...)
}

// Fatal logs at error level and exits. Startup wiring only.
func Fatal(msg string, args ...any) {
	log.Error(msg, args...)
	os.Exit(1)
}
