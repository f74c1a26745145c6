package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Load hooks
	l := NoopLoadHooks{}
	l.OnExtract(ctx, nil)
	l.OnRenderStart(ctx, "flowchart")
	l.OnRenderComplete(ctx, "flowchart", 4, time.Second, nil)
	l.OnStale(ctx, 7)

	// Cache hooks
	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "scene")
	c.OnCacheMiss(ctx, "scene")
	c.OnCacheSet(ctx, "scene", 1024)

	// Interaction hooks
	i := NoopInteractionHooks{}
	i.OnTransform("zoom", 1.2)
	i.OnSelect(true, 2)

	// HTTP hooks
	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "GET", "/healthz", 200, time.Millisecond)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Load().(NoopLoadHooks); !ok {
		t.Error("Load() should return NoopLoadHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := Interaction().(NoopInteractionHooks); !ok {
		t.Error("Interaction() should return NoopInteractionHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	customLoad := &testLoadHooks{}
	SetLoadHooks(customLoad)
	if Load() != customLoad {
		t.Error("SetLoadHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	Reset()
	if _, ok := Load().(NoopLoadHooks); !ok {
		t.Error("Reset() should restore NoopLoadHooks")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Reset() should restore NoopCacheHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testLoadHooks{}
	SetLoadHooks(custom)
	SetLoadHooks(nil)
	if Load() != custom {
		t.Error("SetLoadHooks(nil) should be ignored")
	}
	Reset()
}

func TestCustomHooksReceiveEvents(t *testing.T) {
	Reset()
	defer Reset()

	custom := &testLoadHooks{}
	SetLoadHooks(custom)

	ctx := context.Background()
	Load().OnRenderStart(ctx, "flowchart")
	Load().OnRenderComplete(ctx, "flowchart", 3, time.Millisecond, nil)
	Load().OnStale(ctx, 2)

	if custom.renderStarts != 1 || custom.renderCompletes != 1 || custom.stale != 1 {
		t.Errorf("events = %d/%d/%d, want 1/1/1", custom.renderStarts, custom.renderCompletes, custom.stale)
	}
}

func TestPrometheusCounts(t *testing.T) {
	p := NewPrometheus(nil)
	ctx := context.Background()

	p.OnExtract(ctx, nil)
	p.OnExtract(ctx, errors.New("no block"))
	p.OnRenderComplete(ctx, "flowchart", 4, 10*time.Millisecond, nil)
	p.OnRenderComplete(ctx, "flowchart", 0, time.Millisecond, errors.New("bad"))
	p.OnStale(ctx, 3)
	p.OnCacheHit(ctx, "scene")
	p.OnCacheMiss(ctx, "scene")
	p.OnCacheMiss(ctx, "scene")
	p.OnTransform("zoom", 1.5)
	p.OnSelect(true, 2)
	p.OnSelect(false, 0)
	p.OnRequest(ctx, "GET", "/healthz", 200, time.Millisecond)

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"extract ok", testutil.ToFloat64(p.ExtractTotal.WithLabelValues("ok")), 1},
		{"extract error", testutil.ToFloat64(p.ExtractTotal.WithLabelValues("error")), 1},
		{"render ok", testutil.ToFloat64(p.RenderTotal.WithLabelValues("flowchart", "ok")), 1},
		{"render error", testutil.ToFloat64(p.RenderTotal.WithLabelValues("flowchart", "error")), 1},
		{"stale", testutil.ToFloat64(p.StaleRendersTotal), 1},
		{"cache hit", testutil.ToFloat64(p.CacheRequestsTotal.WithLabelValues("scene", "hit")), 1},
		{"cache miss", testutil.ToFloat64(p.CacheRequestsTotal.WithLabelValues("scene", "miss")), 2},
		{"zoom", testutil.ToFloat64(p.TransformsTotal.WithLabelValues("zoom")), 1},
		{"select", testutil.ToFloat64(p.SelectionsTotal.WithLabelValues("select")), 1},
		{"clear", testutil.ToFloat64(p.SelectionsTotal.WithLabelValues("clear")), 1},
		{"http", testutil.ToFloat64(p.HTTPRequestsTotal.WithLabelValues("GET", "/healthz", "200")), 1},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestPrometheusHandler(t *testing.T) {
	p := NewPrometheus(nil)
	p.OnStale(context.Background(), 1)

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "mdview_stale_renders_total 1") {
		t.Errorf("exposition missing stale counter:\n%s", rec.Body.String())
	}
}

func TestRegisterInstallsPrometheus(t *testing.T) {
	Reset()
	defer Reset()

	p := NewPrometheus(nil)
	Register(p)
	if Load() != LoadHooks(p) || Cache() != CacheHooks(p) || Interaction() != InteractionHooks(p) || HTTP() != HTTPHooks(p) {
		t.Error("Register should install the collector for every hook category")
	}
}

type testLoadHooks struct {
	NoopLoadHooks
	renderStarts    int
	renderCompletes int
	stale           int
}

func (h *testLoadHooks) OnRenderStart(context.Context, string) { h.renderStarts++ }
func (h *testLoadHooks) OnRenderComplete(context.Context, string, int, time.Duration, error) {
	h.renderCompletes++
}
func (h *testLoadHooks) OnStale(context.Context, uint64) { h.stale++ }

type testCacheHooks struct{ NoopCacheHooks }
