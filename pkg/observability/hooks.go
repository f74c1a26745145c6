// Package observability carries instrumentation hooks for the engine.
//
// The engine packages report events through small hook interfaces and never
// import a metrics backend. Every hook starts as a no-op; [Prometheus]
// implements all of them and is what `mdview serve --metrics` registers.
// The terminal viewer and the one-shot render command keep the no-ops.
//
//	prom := observability.NewPrometheus(nil)
//	observability.Register(prom)
//
// Engine code fetches the current hook at the call site:
//
//	observability.Load().OnRenderStart(ctx, "flowchart")
//	observability.Interaction().OnTransform("wheel", 1.25)
package observability

import (
	"context"
	"sync"
	"time"
)

// LoadHooks receives events from opening and rendering documents.
type LoadHooks interface {
	// OnExtract records the outcome of locating the diagram block.
	OnExtract(ctx context.Context, err error)
	OnRenderStart(ctx context.Context, renderer string)
	OnRenderComplete(ctx context.Context, renderer string, nodeCount int, duration time.Duration, err error)
	// OnStale records a render result dropped because a newer load
	// superseded it.
	OnStale(ctx context.Context, generation uint64)
}

// CacheHooks receives events from the scene cache.
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// InteractionHooks receives events from the viewport and selection engine.
// They run inside the owning event loop and must not block.
type InteractionHooks interface {
	// OnTransform records one transform propagation. cause is one of
	// "zoom", "pan", "wheel", "drag", "fit" or "reset".
	OnTransform(cause string, scale float64)
	// OnSelect records a selection change. connections is zero when the
	// selection was cleared.
	OnSelect(selected bool, connections int)
}

// HTTPHooks receives events from the session API.
type HTTPHooks interface {
	OnRequest(ctx context.Context, method, route string, statusCode int, duration time.Duration)
}

// NoopLoadHooks ignores load events.
type NoopLoadHooks struct{}

func (NoopLoadHooks) OnExtract(context.Context, error)                                    {}
func (NoopLoadHooks) OnRenderStart(context.Context, string)                               {}
func (NoopLoadHooks) OnRenderComplete(context.Context, string, int, time.Duration, error) {}
func (NoopLoadHooks) OnStale(context.Context, uint64)                                     {}

// NoopCacheHooks ignores cache events.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopInteractionHooks ignores interaction events.
type NoopInteractionHooks struct{}

func (NoopInteractionHooks) OnTransform(string, float64) {}
func (NoopInteractionHooks) OnSelect(bool, int)          {}

// NoopHTTPHooks ignores requests.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, int, time.Duration) {}

// slot holds the current implementation of one hook interface.
type slot[T any] struct {
	mu   sync.RWMutex
	hook T
	noop T
}

func newSlot[T any](noop T) *slot[T] { return &slot[T]{hook: noop, noop: noop} }

func (s *slot[T]) get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hook
}

func (s *slot[T]) set(h T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hook = h
}

func (s *slot[T]) reset() { s.set(s.noop) }

var (
	loadSlot        = newSlot[LoadHooks](NoopLoadHooks{})
	cacheSlot       = newSlot[CacheHooks](NoopCacheHooks{})
	interactionSlot = newSlot[InteractionHooks](NoopInteractionHooks{})
	httpSlot        = newSlot[HTTPHooks](NoopHTTPHooks{})
)

// SetLoadHooks installs h. A nil h is ignored.
func SetLoadHooks(h LoadHooks) {
	if h != nil {
		loadSlot.set(h)
	}
}

// SetCacheHooks installs h. A nil h is ignored.
func SetCacheHooks(h CacheHooks) {
	if h != nil {
		cacheSlot.set(h)
	}
}

// SetInteractionHooks installs h. A nil h is ignored.
func SetInteractionHooks(h InteractionHooks) {
	if h != nil {
		interactionSlot.set(h)
	}
}

// SetHTTPHooks installs h. A nil h is ignored.
func SetHTTPHooks(h HTTPHooks) {
	if h != nil {
		httpSlot.set(h)
	}
}

// Load returns the current load hooks.
func Load() LoadHooks { return loadSlot.get() }

// Cache returns the current cache hooks.
func Cache() CacheHooks { return cacheSlot.get() }

// Interaction returns the current interaction hooks.
func Interaction() InteractionHooks { return interactionSlot.get() }

// HTTP returns the current HTTP hooks.
func HTTP() HTTPHooks { return httpSlot.get() }

// Reset restores every hook to its no-op. Tests call it in cleanup.
func Reset() {
	loadSlot.reset()
	cacheSlot.reset()
	interactionSlot.reset()
	httpSlot.reset()
}
