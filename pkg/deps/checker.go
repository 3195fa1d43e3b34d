package deps

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/bumper/pkg/errors"
	"github.com/matzehuels/bumper/pkg/observability"
	"github.com/matzehuels/bumper/pkg/version"
)

// Checker compares declared versions against a registry using a fixed pool
// of workers.
type Checker struct {
	name    string
	fetcher Fetcher
}

// NewChecker creates a Checker that looks up versions with the given Fetcher.
func NewChecker(name string, fetcher Fetcher) *Checker {
	return &Checker{name: name, fetcher: fetcher}
}

// Name returns the registry name.
func (c *Checker) Name() string { return c.name }

// Check looks up every resolvable entry of declared and returns the entries
// whose latest version differs from the declared one.
//
// Exactly opts.Concurrency workers share a queue of lookups. Unless
// opts.KeepGoing is set, the first failed lookup cancels the remaining ones
// and Check returns a FETCH_FAILED error with no partial result.
func (c *Checker) Check(ctx context.Context, declared map[string]string, opts Options) (ChangeSet, error) {
	if err := opts.Validate(); err != nil {
		return ChangeSet{}, err
	}
	opts = opts.WithDefaults()

	pending := plan(declared, opts.Logger)
	hooks := observability.Fetch()
	hooks.OnCheckStart(ctx, opts.Section, len(pending))

	start := time.Now()
	cs, err := c.run(ctx, newQueue(pending), opts)
	hooks.OnCheckComplete(ctx, opts.Section, len(cs.Changes), time.Since(start), err)
	return cs, err
}

// plan builds the lookups for declared in name order, dropping entries that
// cannot be looked up.
func plan(declared map[string]string, logf func(string, ...any)) []lookup {
	names := slices.Sorted(maps.Keys(declared))
	out := make([]lookup, 0, len(names))
	for _, name := range names {
		raw := declared[name]
		spec, err := version.Parse(raw)
		if err != nil || !spec.Resolvable() {
			logf("skipping %s: %q is not a version", name, raw)
			continue
		}
		out = append(out, lookup{name: name, spec: spec})
	}
	return out
}

func (c *Checker) run(ctx context.Context, q *queue, opts Options) (ChangeSet, error) {
	g, gctx := errgroup.WithContext(ctx)

	changes := make([][]Change, opts.Concurrency)
	failures := make([][]Failure, opts.Concurrency)

	for i := range opts.Concurrency {
		g.Go(func() error {
			for {
				if err := gctx.Err(); err != nil {
					return err
				}
				l, ok := q.tryPop()
				if !ok {
					return nil
				}
				latest, err := c.fetch(gctx, l.name, opts)
				if err != nil {
					if opts.KeepGoing && gctx.Err() == nil {
						opts.Logger("fetch failed: %s: %v", l.name, err)
						failures[i] = append(failures[i], Failure{Name: l.name, Err: err})
						continue
					}
					return errors.Wrap(errors.ErrCodeFetchFailed, err, "check %s", l.name)
				}
				if latest != l.spec.Numeric {
					changes[i] = append(changes[i], Change{Name: l.name, Declared: l.spec, Latest: latest})
				}
			}
		})
	}

	if err := g.Wait(); err != nil {
		return ChangeSet{}, err
	}

	cs := ChangeSet{
		Section:  opts.Section,
		Changes:  slices.Concat(changes...),
		Failures: slices.Concat(failures...),
	}
	slices.SortFunc(cs.Changes, func(a, b Change) int { return cmp.Compare(a.Name, b.Name) })
	slices.SortFunc(cs.Failures, func(a, b Failure) int { return cmp.Compare(a.Name, b.Name) })
	return cs, nil
}

func (c *Checker) fetch(ctx context.Context, name string, opts Options) (string, error) {
	opts.Logger("Fetching %s", name)
	start := time.Now()
	latest, err := c.fetcher.FetchLatest(ctx, name, opts.Refresh)
	observability.Fetch().OnLookup(ctx, name, time.Since(start), err)
	return latest, err
}
