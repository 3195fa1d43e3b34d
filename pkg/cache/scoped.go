package cache

// ScopedKeyer wraps a Keyer with a prefix. Teams sharing one Redis or Mongo
// backend across projects or registries use it to keep entries apart:
//
//	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "ci:frontend:")
//	keyer.HTTPKey("npm:", "react") // "ci:frontend:http:npm::react"
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer falls back
// to [DefaultKeyer].
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// HTTPKey generates a prefixed key for registry response caching.
func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.inner.HTTPKey(namespace, key)
}
