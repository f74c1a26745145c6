package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Hash returns the hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashKey returns "kind:<sha256>" over the JSON encoding of parts.
func hashKey(kind string, parts ...any) string {
	data, _ := json.Marshal(parts)
	return kind + ":" + Hash(data)
}

// Keyer builds cache keys for rendered scenes.
type Keyer interface {
	// SceneKey returns the key for the markup produced by renderer from source.
	SceneKey(renderer, source string, opts SceneKeyOpts) string
}

// SceneKeyOpts are the render inputs besides the source that change the
// produced markup. A new GrammarVersion invalidates every cached scene.
type SceneKeyOpts struct {
	Language       string `json:"language"`
	GrammarVersion string `json:"grammar_version"`
	Theme          string `json:"theme,omitempty"`
}

// DefaultKeyer builds unscoped "scene:<sha256>" keys.
type DefaultKeyer struct{}

func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) SceneKey(renderer, source string, opts SceneKeyOpts) string {
	return hashKey("scene", renderer, opts, Hash([]byte(source)))
}

// ScopedKeyer prefixes every key of an inner keyer, so that several
// `mdview serve` deployments can share one Redis database.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "mdview:staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or the default keyer when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) SceneKey(renderer, source string, opts SceneKeyOpts) string {
	return k.prefix + k.inner.SceneKey(renderer, source, opts)
}
