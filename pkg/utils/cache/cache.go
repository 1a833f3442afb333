package cache

import (
	"context"
	"errors"
)

// based on github.com/kittpat1413/go-common/framework/cache/cache.go

// ErrCacheMiss is returned by Get if the key is unknown or expired.
var ErrCacheMiss = errors.New("cache miss")

// Cache stores pointers to values. Implementations must be safe for
// concurrent use.
type Cache[K comparable, V any] interface {
	Get(ctx context.Context, key K) (*V, error)
	Set(ctx context.Context, key K, value *V)
	Invalidate(ctx context.Context, key K)
	// Len reports the number of entries including not yet evicted expired ones.
	Len() int
}
