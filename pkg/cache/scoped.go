package cache

import "github.com/matzehuels/nestgraph/pkg/config"

// ScopedKeyer wraps a Keyer with a prefix so that several tenants, or
// several servers sharing one Redis, keep separate namespaces.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "team-a:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// KeyerFor returns the keyer selected by cfg: scoped by key_prefix when one
// is set, the default keyer otherwise.
func KeyerFor(cfg config.CacheConfig) Keyer {
	if cfg.KeyPrefix == "" {
		return NewDefaultKeyer()
	}
	return NewScopedKeyer(nil, cfg.KeyPrefix)
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// RenderKey generates a prefixed render key.
func (k *ScopedKeyer) RenderKey(docHash string, opts RenderKeyOpts) string {
	return k.prefix + k.inner.RenderKey(docHash, opts)
}

