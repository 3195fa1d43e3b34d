package deps

import (
	"context"

	"github.com/matzehuels/bumper/pkg/errors"
	"github.com/matzehuels/bumper/pkg/version"
)

const (
	DefaultConcurrency = 10 // Default number of lookup workers per section

	SectionDependencies    = "dependencies"
	SectionDevDependencies = "devDependencies"
	SectionOverrides       = "overrides"
)

// Options configures a single check run.
type Options struct {
	Section     string               // Section label carried into the ChangeSet
	Concurrency int                  // Number of workers; must be > 0
	KeepGoing   bool                 // Record failed lookups instead of aborting
	Refresh     bool                 // Bypass cache for fresh data
	Logger      func(string, ...any) // Progress/error callback (optional)
}

// WithDefaults returns a copy of Options with a zero Concurrency replaced by
// DefaultConcurrency and a nil Logger replaced by a no-op.
func (o Options) WithDefaults() Options {
	opts := o
	if opts.Concurrency == 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Logger == nil {
		opts.Logger = func(string, ...any) {}
	}
	return opts
}

// Validate reports an INVALID_CONFIG error when the options cannot run.
func (o Options) Validate() error {
	if o.Concurrency <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "concurrency must be positive, got %d", o.Concurrency)
	}
	return nil
}

// Fetcher looks up the latest published version of a package.
type Fetcher interface {
	// FetchLatest returns the latest version of name. If refresh is true,
	// cached data is bypassed.
	FetchLatest(ctx context.Context, name string, refresh bool) (string, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, name string, refresh bool) (string, error)

// FetchLatest calls f.
func (f FetcherFunc) FetchLatest(ctx context.Context, name string, refresh bool) (string, error) {
	return f(ctx, name, refresh)
}

// Change is a dependency whose declared version differs from the latest one.
type Change struct {
	Name     string       // Package name
	Declared version.Spec // Version as declared in the manifest
	Latest   string       // Latest version published on the registry
}

// Target returns the declared spec updated to Latest, keeping its prefix.
func (c Change) Target() version.Spec {
	return c.Declared.With(c.Latest)
}

// Failure is a lookup that failed during a run with KeepGoing set.
type Failure struct {
	Name string
	Err  error
}

// ChangeSet is the outcome of checking one section of a manifest.
type ChangeSet struct {
	Section  string    // Manifest section the changes came from
	Changes  []Change  // Outdated packages, sorted by name
	Failures []Failure // Failed lookups, sorted by name (KeepGoing only)
}

// Empty reports whether the set holds no changes.
func (cs ChangeSet) Empty() bool { return len(cs.Changes) == 0 }

// Lookup returns the change for name, if any.
func (cs ChangeSet) Lookup(name string) (Change, bool) {
	for _, c := range cs.Changes {
		if c.Name == name {
			return c, true
		}
	}
	return Change{}, false
}

// Filter returns a copy of cs holding only the changes keep accepts.
func (cs ChangeSet) Filter(keep func(Change) bool) ChangeSet {
	out := ChangeSet{Section: cs.Section, Failures: cs.Failures}
	for _, c := range cs.Changes {
		if keep(c) {
			out.Changes = append(out.Changes, c)
		}
	}
	return out
}
