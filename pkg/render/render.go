package render

import (
	"bytes"
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mdview/pkg/cache"
	"github.com/matzehuels/mdview/pkg/observability"
)

// Renderer converts diagram source into SVG markup. Malformed source fails
// with an errors.ErrCodeSyntax error.
type Renderer interface {
	// Name identifies the renderer in cache keys, logs and metrics.
	Name() string
	Render(ctx context.Context, source string) ([]byte, error)
}

// Func adapts a function to [Renderer].
type Func struct {
	ID string
	Fn func(ctx context.Context, source string) ([]byte, error)
}

// Name returns f.ID.
func (f Func) Name() string { return f.ID }

// Render calls f.Fn.
func (f Func) Render(ctx context.Context, source string) ([]byte, error) {
	return f.Fn(ctx, source)
}

// Cached wraps a renderer with a cache.
//
// Cached is stateless apart from its collaborators; several goroutines may
// render through the same value.
type Cached struct {
	Next    Renderer
	Cache   cache.Cache
	Keyer   cache.Keyer
	Logger  *log.Logger
	KeyOpts cache.SceneKeyOpts
	TTL     time.Duration

	// Refresh bypasses lookups but still stores fresh results.
	Refresh bool
}

// NewCached creates a cached renderer.
// If keyer is nil, a DefaultKeyer is used.
// If c is nil, a NullCache is used (caching disabled).
func NewCached(next Renderer, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Cached {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Cached{
		Next:   next,
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
		TTL:    cache.TTLScene,
	}
}

// Name returns the wrapped renderer's name.
func (r *Cached) Name() string { return r.Next.Name() }

// Render implements [Renderer].
func (r *Cached) Render(ctx context.Context, source string) ([]byte, error) {
	svg, _, err := r.RenderWithCacheInfo(ctx, source)
	return svg, err
}

// RenderWithCacheInfo renders source, serving from the cache when it can,
// and reports whether the result was a cache hit. Cache failures are
// logged and otherwise ignored.
func (r *Cached) RenderWithCacheInfo(ctx context.Context, source string) ([]byte, bool, error) {
	key := r.Keyer.SceneKey(r.Next.Name(), source, r.KeyOpts)

	if !r.Refresh {
		data, hit, err := r.Cache.Get(ctx, key)
		switch {
		case err != nil:
			r.Logger.Warn("cache lookup failed", "error", err)
		case hit && bytes.Contains(data, []byte("<svg")):
			observability.Cache().OnCacheHit(ctx, "scene")
			r.Logger.Debug("scene cache hit", "renderer", r.Next.Name(), "bytes", len(data))
			return data, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, "scene")
	}

	start := time.Now()
	svg, err := r.Next.Render(ctx, source)
	if err != nil {
		return nil, false, err
	}
	r.Logger.Debug("rendered scene", "renderer", r.Next.Name(), "bytes", len(svg), "duration", time.Since(start))

	if err := r.Cache.Set(ctx, key, svg, r.TTL); err != nil {
		r.Logger.Warn("cache store failed", "error", err)
	} else {
		observability.Cache().OnCacheSet(ctx, "scene", len(svg))
	}
	return svg, false, nil
}

// Close releases the cache.
func (r *Cached) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
