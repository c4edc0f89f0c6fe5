// Package cache stores encoded API responses for a bounded time.
package cache

import "context"

// Cache is a byte-oriented response cache. Implementations treat backend
// failures as misses so callers always fall through to the origin.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte)
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, bool) { return nil, false }
func (Nop) Set(context.Context, string, []byte)        {}
