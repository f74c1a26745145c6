package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/mdview/pkg/cache"
	"github.com/matzehuels/mdview/pkg/config"
	"github.com/matzehuels/mdview/pkg/graphmodel"
	"github.com/matzehuels/mdview/pkg/render/mermaidcli"
)

func TestResolveCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg")

	dir, err := resolveCacheDir(config.Default())
	if err != nil {
		t.Fatalf("resolveCacheDir() error: %v", err)
	}
	if want := filepath.Join("/tmp/xdg", appName); dir != want {
		t.Errorf("resolveCacheDir() = %q, want %q", dir, want)
	}

	cfg := config.Default()
	cfg.Cache.Dir = "/srv/cache"
	if dir, _ := resolveCacheDir(cfg); dir != "/srv/cache" {
		t.Errorf("resolveCacheDir() with cache.dir = %q, want /srv/cache", dir)
	}
}

func TestNewCacheBackends(t *testing.T) {
	c := New(io.Discard, LogInfo)
	ctx := context.Background()

	tests := []struct {
		name    string
		backend string
		noCache bool
		addr    string
		want    string
	}{
		{"file", config.BackendFile, false, "", "file"},
		{"no-cache flag", config.BackendFile, true, "", "null"},
		{"none", config.BackendNone, false, "", "null"},
		{"redis unavailable", config.BackendRedis, false, "", "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Cache.Backend = tt.backend
			cfg.Cache.Dir = t.TempDir()
			cfg.Cache.RedisAddr = tt.addr

			store, err := c.newCache(ctx, cfg, tt.noCache)
			if err != nil {
				t.Fatalf("newCache() error: %v", err)
			}
			defer store.Close()

			got := "other"
			switch store.(type) {
			case *cache.FileCache:
				got = "file"
			case *cache.NullCache:
				got = "null"
			}
			if got != tt.want {
				t.Errorf("newCache() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestBaseRenderer(t *testing.T) {
	cfg := config.Default()

	r, err := baseRenderer(cfg, "")
	if err != nil {
		t.Fatalf("baseRenderer() error: %v", err)
	}
	if r.Name() != "flowchart" {
		t.Errorf("default engine = %q, want flowchart", r.Name())
	}

	cfg.Render.Timeout = "5s"
	r, err = baseRenderer(cfg, config.EngineMermaidCLI)
	if err != nil {
		t.Fatalf("baseRenderer(mermaid-cli) error: %v", err)
	}
	mr, ok := r.(*mermaidcli.Renderer)
	if !ok {
		t.Fatalf("baseRenderer(mermaid-cli) = %T", r)
	}
	if mr.Theme != "dark" {
		t.Errorf("Theme = %q, want dark", mr.Theme)
	}
	if mr.Timeout.Seconds() != 5 {
		t.Errorf("Timeout = %v, want 5s", mr.Timeout)
	}

	if _, err := baseRenderer(cfg, "graphviz"); err == nil {
		t.Error("baseRenderer(graphviz) should fail")
	}
}

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	if want := filepath.Join(home, ".cache", appName); dir != want {
		t.Errorf("cacheDir() = %q, want %q", dir, want)
	}

	t.Setenv("XDG_CACHE_HOME", "/tmp/custom-cache")
	if dir, _ := cacheDir(); dir != filepath.Join("/tmp/custom-cache", appName) {
		t.Errorf("cacheDir() with XDG_CACHE_HOME = %q", dir)
	}
}

func TestNewRendererKeyOpts(t *testing.T) {
	c := New(io.Discard, LogInfo)
	cfg := config.Default()
	cfg.Cache.Backend = config.BackendRedis
	cfg.Cache.RedisAddr = ""

	r, err := c.newRenderer(context.Background(), cfg, renderOptions{})
	if err != nil {
		t.Fatalf("newRenderer() error: %v", err)
	}
	defer r.Close()

	if r.KeyOpts.GrammarVersion != graphmodel.DefaultGrammar.Version {
		t.Errorf("GrammarVersion = %q, want %q", r.KeyOpts.GrammarVersion, graphmodel.DefaultGrammar.Version)
	}
	if r.KeyOpts.Language != cfg.Render.Language {
		t.Errorf("Language = %q, want %q", r.KeyOpts.Language, cfg.Render.Language)
	}
	if _, ok := r.Keyer.(*cache.ScopedKeyer); !ok {
		t.Errorf("Keyer = %T, want scoped keyer for redis key_prefix", r.Keyer)
	}
}
