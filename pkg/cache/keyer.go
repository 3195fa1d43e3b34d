package cache

// Keyer builds cache keys.
type Keyer interface {
	// HTTPKey returns the key for a registry response. namespace identifies
	// the registry (e.g. "npm:") and key the package.
	HTTPKey(namespace, key string) string
}

// DefaultKeyer produces keys of the form "http:<namespace>:<key>".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// HTTPKey implements Keyer.
func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}
