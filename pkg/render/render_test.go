package render

import (
	"context"
	stderrors "errors"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mdview/pkg/cache"
	"github.com/matzehuels/mdview/pkg/errors"
)

type memCache struct {
	data   map[string][]byte
	sets   int
	getErr error
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	d, ok := c.data[key]
	return d, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, data []byte, _ time.Duration) error {
	c.sets++
	c.data[key] = data
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	delete(c.data, key)
	return nil
}

func (c *memCache) Close() error { return nil }

var _ cache.Cache = (*memCache)(nil)

func counting(svg string, calls *int) Renderer {
	return Func{ID: "fake", Fn: func(context.Context, string) ([]byte, error) {
		*calls++
		return []byte(svg), nil
	}}
}

func quietLogger() *log.Logger { return log.New(io.Discard) }

func TestCachedHitAndMiss(t *testing.T) {
	calls := 0
	store := newMemCache()
	r := NewCached(counting("<svg/>", &calls), store, nil, quietLogger())
	ctx := context.Background()

	svg, hit, err := r.RenderWithCacheInfo(ctx, "graph TD\nA-->B")
	if err != nil || hit || string(svg) != "<svg/>" {
		t.Fatalf("first render = %q, %v, %v", svg, hit, err)
	}
	svg, hit, err = r.RenderWithCacheInfo(ctx, "graph TD\nA-->B")
	if err != nil || !hit || string(svg) != "<svg/>" {
		t.Fatalf("second render = %q, %v, %v", svg, hit, err)
	}
	if calls != 1 {
		t.Errorf("renderer called %d times, want 1", calls)
	}
	if _, hit, _ := r.RenderWithCacheInfo(ctx, "graph TD\nA-->C"); hit {
		t.Error("different source should miss")
	}
	if r.Name() != "fake" {
		t.Errorf("Name() = %q", r.Name())
	}
}

func TestCachedKeyIncludesGrammarVersion(t *testing.T) {
	calls := 0
	store := newMemCache()
	r := NewCached(counting("<svg/>", &calls), store, nil, quietLogger())
	ctx := context.Background()

	_, _ = r.Render(ctx, "src")
	r.KeyOpts.GrammarVersion = "v2"
	if _, hit, _ := r.RenderWithCacheInfo(ctx, "src"); hit {
		t.Error("grammar version change should invalidate the key")
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestCachedRefresh(t *testing.T) {
	calls := 0
	store := newMemCache()
	r := NewCached(counting("<svg/>", &calls), store, nil, quietLogger())
	ctx := context.Background()

	_, _ = r.Render(ctx, "src")
	r.Refresh = true
	if _, hit, _ := r.RenderWithCacheInfo(ctx, "src"); hit {
		t.Error("refresh should bypass lookup")
	}
	if store.sets != 2 {
		t.Errorf("sets = %d, want 2", store.sets)
	}
}

func TestCachedIgnoresCorruptEntries(t *testing.T) {
	calls := 0
	store := newMemCache()
	r := NewCached(counting("<svg/>", &calls), store, nil, quietLogger())
	key := r.Keyer.SceneKey("fake", "src", r.KeyOpts)
	store.data[key] = []byte("not markup")

	svg, hit, err := r.RenderWithCacheInfo(context.Background(), "src")
	if err != nil || hit || string(svg) != "<svg/>" || calls != 1 {
		t.Errorf("corrupt entry served: %q, %v, %v (calls %d)", svg, hit, err, calls)
	}
}

func TestCachedCacheFailureFallsThrough(t *testing.T) {
	calls := 0
	store := newMemCache()
	store.getErr = stderrors.New("backend down")
	r := NewCached(counting("<svg/>", &calls), store, nil, quietLogger())

	if _, err := r.Render(context.Background(), "src"); err != nil {
		t.Errorf("cache failure should not fail the render: %v", err)
	}
}

func TestCachedPropagatesRenderErrors(t *testing.T) {
	failing := Func{ID: "bad", Fn: func(context.Context, string) ([]byte, error) {
		return nil, errors.New(errors.ErrCodeSyntax, "Parse error on line 2")
	}}
	store := newMemCache()
	r := NewCached(failing, store, nil, quietLogger())

	_, err := r.Render(context.Background(), "src")
	if !errors.Is(err, errors.ErrCodeSyntax) {
		t.Errorf("error = %v, want SYNTAX_ERROR", err)
	}
	if store.sets != 0 {
		t.Error("failed renders must not be cached")
	}
}

func TestNewCachedDefaults(t *testing.T) {
	r := NewCached(Func{ID: "x"}, nil, nil, nil)
	if r.Cache == nil || r.Keyer == nil || r.Logger == nil {
		t.Error("NewCached should fill nil collaborators")
	}
	if r.TTL != cache.TTLScene {
		t.Errorf("TTL = %v", r.TTL)
	}
}

func TestConvertMissingBinary(t *testing.T) {
	old := RSVGConvert
	RSVGConvert = "mdview-no-such-converter"
	defer func() { RSVGConvert = old }()

	if _, err := ToPNG(context.Background(), []byte("<svg/>"), 2); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("ToPNG() error = %v, want UNSUPPORTED", err)
	}
}
