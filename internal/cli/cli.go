// Package cli implements the mdview command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mdview/pkg/cache"
	"github.com/matzehuels/mdview/pkg/config"
	"github.com/matzehuels/mdview/pkg/graphmodel"
	"github.com/matzehuels/mdview/pkg/render"
	"github.com/matzehuels/mdview/pkg/render/flowchart"
	"github.com/matzehuels/mdview/pkg/render/mermaidcli"
	"github.com/matzehuels/mdview/pkg/viewer"
	"github.com/matzehuels/mdview/pkg/viewport"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "mdview"

	// cellWidth and cellHeight are the nominal pixel size of one terminal
	// cell. Terminal coordinates are scaled by them before they reach the
	// viewer so that zoom and pan behave as they would on a screen.
	cellWidth  = 8
	cellHeight = 16
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
	LogWarn  = log.WarnLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// config loads the configuration once, from --config or the default path.
func (c *CLI) config() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	path := c.configPath
	if path == "" {
		path = config.Path()
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("loaded config", "path", path, "engine", cfg.Render.Engine, "cache", cfg.Cache.Backend)
	c.cfg = cfg
	return cfg, nil
}

// =============================================================================
// Renderer Factory
// =============================================================================

// renderOptions are the flags shared by every command that renders.
type renderOptions struct {
	engine  string
	noCache bool
	refresh bool
}

// newRenderer builds the configured renderer behind the render cache.
// The caller closes it.
func (c *CLI) newRenderer(ctx context.Context, cfg *config.Config, opts renderOptions) (*render.Cached, error) {
	base, err := baseRenderer(cfg, opts.engine)
	if err != nil {
		return nil, err
	}
	store, err := c.newCache(ctx, cfg, opts.noCache)
	if err != nil {
		return nil, err
	}
	var keyer cache.Keyer
	if cfg.Cache.Backend == config.BackendRedis && cfg.Cache.KeyPrefix != "" {
		keyer = cache.NewScopedKeyer(cache.NewDefaultKeyer(), cfg.Cache.KeyPrefix)
	}
	r := render.NewCached(base, store, keyer, c.Logger)
	r.KeyOpts = cache.SceneKeyOpts{
		Language:       cfg.Render.Language,
		GrammarVersion: graphmodel.DefaultGrammar.Version,
	}
	if mc, ok := base.(*mermaidcli.Renderer); ok {
		r.KeyOpts.Theme = mc.Theme
	}
	if ttl, err := cfg.CacheTTL(); err == nil {
		r.TTL = ttl
	}
	r.Refresh = opts.refresh
	return r, nil
}

func baseRenderer(cfg *config.Config, engine string) (render.Renderer, error) {
	if engine == "" {
		engine = cfg.Render.Engine
	}
	switch engine {
	case config.EngineFlowchart:
		return flowchart.New(), nil
	case config.EngineMermaidCLI:
		r := mermaidcli.New(cfg.Render.MMDCPath)
		if d, err := cfg.RenderTimeout(); err == nil {
			r.Timeout = d
		}
		if cfg.UI.Theme == viewer.ThemeDark {
			r.Theme = "dark"
		}
		return r, nil
	}
	probe := *cfg
	probe.Render.Engine = engine
	return nil, probe.Validate()
}

// newCache opens the configured cache backend. A Redis server that cannot
// be reached degrades to no caching.
func (c *CLI) newCache(ctx context.Context, cfg *config.Config, noCache bool) (cache.Cache, error) {
	if noCache || cfg.Cache.Backend == config.BackendNone {
		return cache.NewNullCache(), nil
	}
	if cfg.Cache.Backend == config.BackendRedis {
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.Cache.RedisAddr,
			Password: os.Getenv("MDVIEW_REDIS_PASSWORD"),
			DB:       cfg.Cache.RedisDB,
		})
		if err != nil {
			c.Logger.Warn("redis cache unavailable, caching disabled", "err", err)
			return cache.NewNullCache(), nil
		}
		return rc, nil
	}
	dir, err := resolveCacheDir(cfg)
	if err != nil {
		return cache.NewNullCache(), nil
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return nil, err
	}
	return fc, nil
}

// viewerOptions maps the configuration onto viewer options.
func viewerOptions(cfg *config.Config) viewer.Options {
	v := cfg.Viewport
	return viewer.Options{
		Viewport: viewport.Options{
			MinScale:      v.MinScale,
			MaxScale:      v.MaxScale,
			SnapTolerance: v.SnapTolerance,
			FitMargin:     v.FitMargin,
		},
		ZoomStep: v.ZoomStep,
		Language: cfg.Render.Language,
		Theme:    cfg.UI.Theme,
	}
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/mdview/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// resolveCacheDir prefers the configured cache.dir.
func resolveCacheDir(cfg *config.Config) (string, error) {
	if cfg != nil && cfg.Cache.Dir != "" {
		return cfg.Cache.Dir, nil
	}
	return cacheDir()
}
