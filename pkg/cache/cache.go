// Package cache stores rendered diagram scenes keyed by their source text.
//
// Rendering is the only slow step between opening a document and
// interacting with it: the in-process renderer lays the graph out with
// Graphviz, and the Mermaid CLI renderer launches a headless browser. A
// cache lets re-opening an unchanged diagram (or reloading a watched file
// whose diagram block did not change) skip that work.
//
// # Backends
//
//   - [FileCache]: one JSON file per entry under the XDG cache directory (CLI default)
//   - [RedisCache]: shared cache for several `mdview serve` instances
//   - [NullCache]: caching disabled
//
// # Keys
//
// Keys are produced by a [Keyer] so that the renderer name, the diagram
// language and the identifier grammar version all take part in the key.
// A renderer upgrade that changes the element identifier grammar must bump
// the grammar version, otherwise scenes rendered under the old grammar
// would be served to a parser expecting the new one.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry expiry.
type Cache interface {
	// Get returns the cached value and whether it was present.
	// A miss is reported as (nil, false, nil), not as an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// TTLScene is how long rendered scene markup stays cached.
const TTLScene = 7 * 24 * time.Hour

// NullCache never stores anything. It backs --no-cache and the "none"
// backend so that the render path does not special-case a missing cache.
type NullCache struct{}

// NewNullCache returns a cache on which every Get misses.
func NewNullCache() Cache { return &NullCache{} }

func (*NullCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (*NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (*NullCache) Delete(context.Context, string) error { return nil }

func (*NullCache) Close() error { return nil }
