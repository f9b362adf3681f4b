package scoring

import "github.com/okian/healthrix/pkg/logger"

// Option configures an Engine.
type Option func(*Engine)

// WithConfig replaces the default formula parameters.
func WithConfig(cfg Config) Option {
	return func(e *Engine) {
		e.cfg = cfg
	}
}

// WithLogger sets the engine logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}
