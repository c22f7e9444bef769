package runtime

import (
	"time"

	"github.com/vaultpass/servicekit/di"
	"github.com/vaultpass/servicekit/logger"
)

// Option configures the Runtime during creation. Options are non-generic so
// they can be used with any config type.
type Option func(*runtimeOptions)

type runtimeOptions struct {
	logger          *logger.Logger
	container       *di.Container
	gracefulTimeout *time.Duration
}

func resolveOptions(opts []Option) *runtimeOptions {
	o := &runtimeOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets a custom logger. If not set, the logger is initialized
// from the config's Logging section.
func WithLogger(l *logger.Logger) Option {
	return func(o *runtimeOptions) {
		o.logger = l
	}
}

// WithContainer sets a custom DI container.
func WithContainer(c *di.Container) Option {
	return func(o *runtimeOptions) {
		o.container = c
	}
}

// WithGracefulTimeout sets the maximum duration for graceful shutdown.
func WithGracefulTimeout(d time.Duration) Option {
	return func(o *runtimeOptions) {
		o.gracefulTimeout = &d
	}
}
