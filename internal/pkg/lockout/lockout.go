package lockout

import (
	"context"
	"time"
)

const (
	DefaultMaxFailures = 6
	DefaultWindow      = 15 * time.Minute
)

// Limiter tracks consecutive failures per key. A slot is reserved before the
// guarded check runs, so parallel attempts cannot all slip past the
// allowance.
type Limiter interface {
	// Reserve atomically counts one attempt against key and reports whether
	// it fits the allowance. A refused attempt is not counted.
	Reserve(ctx context.Context, key string) (bool, error)
	// Release gives back a reserved slot for an attempt that ended without
	// evaluating a code.
	Release(ctx context.Context, key string) error
	// Reset clears the failures for key.
	Reset(ctx context.Context, key string) error
}

// Config holds the allowance shared by all stores.
type Config struct {
	MaxFailures int
	Window      time.Duration
}

func (c Config) normalize() Config {
	if c.MaxFailures <= 0 {
		c.MaxFailures = DefaultMaxFailures
	}
	if c.Window <= 0 {
		c.Window = DefaultWindow
	}
	return c
}
