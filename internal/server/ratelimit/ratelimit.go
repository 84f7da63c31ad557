// Package ratelimit counts requests per key against a fixed budget. The
// Redis limiter shares its counters between replicas; the local limiter is
// used when the service runs without Redis.
package ratelimit

import (
	"context"
	"time"
)

// Rule allows Requests calls per Window.
type Rule struct {
	Requests int
	Window   time.Duration
}

// Limiter reports whether one more request under key fits rule. A non-nil
// error means the backing store could not be reached.
type Limiter interface {
	Allow(ctx context.Context, key string, rule Rule) (bool, error)
}
