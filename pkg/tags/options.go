package tags

import "log/slog"

// Option configures a Dispatcher before construction.
type Option func(*config)

type config struct {
	logger    *slog.Logger
	sanitizer Sanitizer
	newID     func() string
}

// WithLogger sets the structured logger dispatch events are written to.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithSanitizer applies a sanitizer to every foreign render fragment before
// it reaches the native output stream.
func WithSanitizer(s Sanitizer) Option {
	return func(cfg *config) {
		cfg.sanitizer = s
	}
}

// WithIDGenerator overrides the per-invocation id source. Useful for
// deterministic test logs.
func WithIDGenerator(fn func() string) Option {
	return func(cfg *config) {
		if fn != nil {
			cfg.newID = fn
		}
	}
}
