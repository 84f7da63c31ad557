// Package cache is the key/value store with per-entry TTL shared by the
// revocation list and the search result cache.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque values. Get reports a miss with ok == false and a nil
// error; a non-nil error always means the backend could not be reached.
type Cache interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}
