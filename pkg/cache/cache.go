// Package cache stores computed layouts so identical runs skip the simulation.
//
// # Overview
//
// A layout is fully determined by the graph it runs on (topology, starting
// positions, sizes) and by the layout parameters. [GraphHash] fingerprints the
// first, a [Keyer] combines it with the second, and a [Cache] backend stores
// the resulting positions under that key.
//
// # Backends
//
//   - [FileCache]: one file per entry under a directory, for the CLI
//   - [RedisCache]: shared cache for multi-instance servers
//   - [NullCache]: never stores anything, for --no-cache and tests
//
// # Usage
//
//	c, err := cache.NewFileCache(dir)
//	key := cache.NewDefaultKeyer().LayoutKey(cache.GraphHash(view), opts)
//	data, hit, err := c.Get(ctx, key)
//
// All backends are safe for concurrent use.
package cache

import (
	"context"
	"time"
)

// DefaultTTL is how long layout entries are kept.
const DefaultTTL = 7 * 24 * time.Hour

// Cache is a byte-oriented key-value store with expiration.
type Cache interface {
	// Get returns the value for key. A miss is reported as hit=false with a
	// nil error; errors are reserved for backend failures.
	Get(ctx context.Context, key string) (data []byte, hit bool, err error)

	// Set stores data under key. A ttl <= 0 stores without expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}
