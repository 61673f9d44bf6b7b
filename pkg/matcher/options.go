package matcher

import (
	"io"
	"log/slog"
	"time"
)

type config struct {
	contextLines   int
	prefilter      bool
	captureTimeout time.Duration
	dedupe         DedupeMode
	logger         *slog.Logger
}

func defaultConfig() config {
	return config{
		prefilter:      true,
		captureTimeout: 5 * time.Second,
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// Option configures New.
type Option func(*config)

// WithContextLines attaches n lines of context before and after each match.
func WithContextLines(n int) Option {
	return func(c *config) { c.contextLines = n }
}

// WithPrefilter toggles the keyword prefilter. It is on by default.
func WithPrefilter(on bool) Option {
	return func(c *config) { c.prefilter = on }
}

// WithCaptureTimeout bounds the time spent extracting captures for one rule
// on one input.
func WithCaptureTimeout(d time.Duration) Option {
	return func(c *config) { c.captureTimeout = d }
}

// WithDedupe selects how duplicate results are collapsed.
func WithDedupe(mode DedupeMode) Option {
	return func(c *config) { c.dedupe = mode }
}

// WithLogger sets the logger for compile diagnostics and capture timeouts.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}
