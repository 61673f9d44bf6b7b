// Package logging configures the process-wide slog logger for binaries.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options override the environment. Verbose wins over Quiet.
type Options struct {
	Verbose bool
	Quiet   bool
	Output  io.Writer // defaults to stderr
}

// Init installs the default logger. HSCAN_LOG_FORMAT=json selects JSON
// output; HSCAN_LOG_LEVEL sets the level (debug, info, warn, error).
func Init(service string, opts Options) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	level := levelFromEnv()
	switch {
	case opts.Verbose:
		level = slog.LevelDebug
	case opts.Quiet:
		level = slog.LevelError
	}

	ho := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isJSON(os.Getenv("HSCAN_LOG_FORMAT")) {
		handler = slog.NewJSONHandler(out, ho)
	} else {
		handler = slog.NewTextHandler(out, ho)
	}
	logger := slog.New(handler).With("service", service)
	slog.SetDefault(logger)
	return logger
}

func isJSON(format string) bool {
	switch strings.ToLower(format) {
	case "json", "1", "true":
		return true
	}
	return false
}

func levelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv("HSCAN_LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
