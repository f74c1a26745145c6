// Package config loads and saves the mdview TOML configuration.
//
// The file lives at $XDG_CONFIG_HOME/mdview/config.toml (falling back to
// ~/.config/mdview). A missing file yields [Default]; a malformed file is an
// error. Command-line flags override whatever is loaded here.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/mdview/pkg/errors"
)

// Render engines.
const (
	EngineFlowchart  = "flowchart"
	EngineMermaidCLI = "mermaid-cli"
)

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Config holds mdview configuration.
type Config struct {
	Viewport ViewportConfig `toml:"viewport"`
	Render   RenderConfig   `toml:"render"`
	Cache    CacheConfig    `toml:"cache"`
	Server   ServerConfig   `toml:"server"`
	UI       UIConfig       `toml:"ui"`
}

// ViewportConfig bounds pan and zoom.
type ViewportConfig struct {
	MinScale      float64 `toml:"min_scale"`
	MaxScale      float64 `toml:"max_scale"`
	SnapTolerance float64 `toml:"snap_tolerance"`
	FitMargin     float64 `toml:"fit_margin"`
	ZoomStep      float64 `toml:"zoom_step"`
}

// RenderConfig selects and tunes the scene renderer.
type RenderConfig struct {
	Engine   string `toml:"engine"`   // "flowchart", "mermaid-cli"
	Language string `toml:"language"` // fenced block tag
	MMDCPath string `toml:"mmdc_path"`
	Timeout  string `toml:"timeout"`
}

// CacheConfig selects the render cache backend.
type CacheConfig struct {
	Backend   string `toml:"backend"` // "file", "redis", "none"
	Dir       string `toml:"dir"`
	RedisAddr string `toml:"redis_addr"`
	RedisDB   int    `toml:"redis_db"`
	KeyPrefix string `toml:"key_prefix"` // namespaces keys on a shared Redis
	TTL       string `toml:"ttl"`
}

// ServerConfig controls `mdview serve`.
type ServerConfig struct {
	Addr   string `toml:"addr"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
}

// UIConfig controls display options.
type UIConfig struct {
	Theme string `toml:"theme"` // "dark", "light"
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Viewport: ViewportConfig{
			MinScale:      0.5,
			MaxScale:      5.0,
			SnapTolerance: 0.08,
			FitMargin:     15,
			ZoomStep:      0.2,
		},
		Render: RenderConfig{
			Engine:   EngineFlowchart,
			Language: "mermaid",
			MMDCPath: "mmdc",
			Timeout:  "30s",
		},
		Cache: CacheConfig{
			Backend:   BackendFile,
			RedisAddr: "localhost:6379",
			KeyPrefix: "mdview:",
			TTL:       "168h",
		},
		Server: ServerConfig{
			Addr:   "127.0.0.1:8080",
			Width:  1280,
			Height: 800,
		},
		UI: UIConfig{Theme: "dark"},
	}
}

// Dir returns the mdview config directory path.
func Dir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "mdview")
}

// Path returns the config file path.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// Load reads the config file at [Path], returning defaults if it doesn't exist.
func Load() (*Config, error) {
	return LoadFile(Path())
}

// LoadFile reads the config file at path. Keys absent from the file keep
// their default values.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config")
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to [Path].
func Save(cfg *Config) error {
	return SaveFile(Path(), cfg)
}

// SaveFile writes the config to path, creating parent directories.
func SaveFile(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// EnsureExists creates the config file with defaults if it doesn't exist.
// It reports whether a file was written.
func EnsureExists() (bool, error) {
	if _, err := os.Stat(Path()); err == nil {
		return false, nil
	}
	return true, Save(Default())
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	v := c.Viewport
	if v.MinScale <= 0 || v.MinScale > 1 || v.MaxScale < v.MinScale {
		return invalid("viewport scale bounds [%g, %g]: want 0 < min_scale <= 1 and max_scale >= min_scale", v.MinScale, v.MaxScale)
	}
	if v.SnapTolerance < 0 || v.FitMargin < 0 || v.ZoomStep <= 0 {
		return invalid("viewport snap_tolerance and fit_margin must be non-negative, zoom_step positive")
	}
	switch c.Render.Engine {
	case EngineFlowchart, EngineMermaidCLI:
	default:
		return invalid("unknown render engine %q", c.Render.Engine)
	}
	if c.Render.Language == "" {
		return invalid("render language must not be empty")
	}
	switch c.Cache.Backend {
	case BackendFile, BackendRedis, BackendNone:
	default:
		return invalid("unknown cache backend %q", c.Cache.Backend)
	}
	if _, err := c.RenderTimeout(); err != nil {
		return err
	}
	if _, err := c.CacheTTL(); err != nil {
		return err
	}
	switch c.UI.Theme {
	case "dark", "light":
	default:
		return invalid("unknown theme %q", c.UI.Theme)
	}
	return nil
}

// RenderTimeout parses Render.Timeout.
func (c *Config) RenderTimeout() (time.Duration, error) {
	return parseDuration("render.timeout", c.Render.Timeout)
}

// CacheTTL parses Cache.TTL.
func (c *Config) CacheTTL() (time.Duration, error) {
	return parseDuration("cache.ttl", c.Cache.TTL)
}

func parseDuration(key, s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, invalid("%s: want a positive duration, got %q", key, s)
	}
	return d, nil
}

func invalid(format string, args ...any) error {
	return errors.New(errors.ErrCodeInvalidConfig, format, args...)
}
