package common

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// GuardedFunc defines a single attempt to be executed in isolation.
// It receives a context that carries the per-attempt deadline.
type GuardedFunc func(ctx context.Context) error

// Config holds the configuration for guarded execution.
type Config struct {
	timeout time.Duration
	name    string
}

// Option is a functional option for configuring guarded execution.
type Option func(*Config)

// WithTimeout sets the per-attempt timeout.
// Default is 15 seconds.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithName sets a label used in error messages.
// Default is "attempt".
func WithName(name string) Option {
	return func(c *Config) {
		if name != "" {
			c.name = name
		}
	}
}

// defaultConfig returns the default guard configuration.
func defaultConfig() *Config {
	return &Config{
		timeout: 15 * time.Second,
		name:    "attempt",
	}
}

// Guard executes the provided function exactly once, isolated from the caller:
// a panic inside the function is recovered and returned as an error, and the
// attempt is abandoned once the per-attempt timeout (or the parent context)
// expires. Guard never retries — callers that want resilience chain several
// guarded attempts instead.
//
// The function will:
// - Execute exactly once, with a context carrying the attempt deadline
// - Return nil if the attempt succeeds
// - Return the attempt's error if it fails
// - Convert a panic inside the attempt into an error
// - Return early with the context error if the deadline expires first
//
// Example usage:
//
//	err := common.Guard(ctx, func(ctx context.Context) error {
//	    return strategy.Evaluate(ctx, project)
//	},
//	    common.WithTimeout(15*time.Second),
//	    common.WithName("gemini-direct"),
//	)
func Guard(ctx context.Context, fn GuardedFunc, opts ...Option) error {
	if fn == nil {
		return errors.New("guard: function cannot be nil")
	}

	// Apply default config
	cfg := defaultConfig()

	// Apply custom options
	for _, opt := range opts {
		opt(cfg)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("guard: %s panicked: %v", cfg.name, r)
			}
		}()
		done <- fn(attemptCtx)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("guard: %s failed: %w", cfg.name, err)
		}
		return nil
	case <-attemptCtx.Done():
		// The attempt goroutine is abandoned; if it eventually finishes, its
		// result is dropped on the buffered channel.
		return fmt.Errorf("guard: %s aborted: %w", cfg.name, attemptCtx.Err())
	}
}
