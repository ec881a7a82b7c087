package keyindex

import (
	"context"
	"time"
)

// Index abstracts where the ordered set of cache keys lives.
// Providers cannot enumerate their keys, so prefix sweeps go through the index.
// Use Local (default) for in-process keys, or Redis when processes share a provider.
type Index interface {
	// Add records key. An existing key keeps its position.
	Add(ctx context.Context, key string) error
	// Remove forgets keys; missing keys are ignored.
	Remove(ctx context.Context, keys ...string) error
	// Keys returns keys starting with prefix, oldest first.
	Keys(ctx context.Context, prefix string) ([]string, error)
	// Cleanup prunes keys not touched within retention (no-op for Redis).
	Cleanup(retention time.Duration)
	// Close releases resources (no-op ok).
	Close(context.Context) error
}
