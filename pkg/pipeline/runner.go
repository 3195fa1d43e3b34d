package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/bumper/pkg/cache"
	"github.com/matzehuels/bumper/pkg/config"
	"github.com/matzehuels/bumper/pkg/deps"
	"github.com/matzehuels/bumper/pkg/integrations/npm"
	"github.com/matzehuels/bumper/pkg/manifest"
	"github.com/matzehuels/bumper/pkg/observability"
)

// Runner encapsulates check execution with caching.
// Both CLI and API use it to avoid duplicating wiring and failure handling.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Checker *deps.Checker
	Cache   cache.Cache
	Logger  *log.Logger
}

// NewRunner creates a runner around an existing checker.
// If cache is nil, a NullCache is used. If logger is nil, log.Default is used.
func NewRunner(checker *deps.Checker, c cache.Cache, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Checker: checker, Cache: c, Logger: logger}
}

// New opens the cache described by cfg and builds a runner that checks
// against cfg.Registry. The returned runner owns the cache; call Close.
func New(ctx context.Context, cfg config.Config, logger *log.Logger) (*Runner, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c, err := cache.Open(ctx, cfg.CacheOptions())
	if err != nil {
		return nil, err
	}
	return NewRunner(NewChecker(cfg, c), c, logger), nil
}

// NewChecker builds the npm checker for cfg on top of cache c.
func NewChecker(cfg config.Config, c cache.Cache) *deps.Checker {
	cfg = cfg.WithDefaults()
	client := npm.NewClient(c, cfg.Cache.TTL.Duration).WithRegistry(cfg.Registry)
	client.SetTimeout(cfg.Timeout.Duration)
	if cfg.Cache.Prefix != "" && cfg.Cache.Backend != cache.BackendRedis {
		client.SetKeyer(cache.NewScopedKeyer(nil, cfg.Cache.Prefix))
	}
	return deps.NewChecker("npm", client)
}

// Check runs every selected section concurrently. It returns an error only
// for invalid options; per-section failures are reported in the Result.
func (r *Runner) Check(ctx context.Context, decl manifest.Declared, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)

	names := opts.sections()
	result := &Result{Sections: make([]SectionResult, len(names))}

	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result.Sections[i] = r.checkSection(ctx, name, decl.Section(name), opts)
		}()
	}
	wg.Wait()

	return result, nil
}

func (r *Runner) checkSection(ctx context.Context, name string, declared map[string]string, opts Options) SectionResult {
	logger := opts.Logger.With("section", name)
	start := time.Now()

	cs, err := r.Checker.Check(ctx, declared, deps.Options{
		Section:     name,
		Concurrency: opts.Concurrency,
		KeepGoing:   opts.KeepGoing,
		Refresh:     opts.Refresh,
		Logger: func(format string, args ...any) {
			logger.Debugf(format, args...)
		},
	})
	res := SectionResult{
		Section:   name,
		Declared:  len(declared),
		ChangeSet: cs,
		Err:       err,
		Duration:  time.Since(start),
	}

	if err != nil {
		logger.Error("check failed", "error", err)
		return res
	}
	for _, f := range cs.Failures {
		logger.Warn("lookup failed", "package", f.Name, "error", f.Err)
	}
	logger.Debug("checked dependencies",
		"declared", res.Declared,
		"outdated", len(cs.Changes),
		"duration", res.Duration)
	return res
}

// Apply patches doc with the change sets of every successful section and
// returns the number of values changed.
func (r *Runner) Apply(ctx context.Context, doc *manifest.Document, result *Result) (int, error) {
	n, err := manifest.Apply(doc, result.Successful()...)
	observability.Fetch().OnApply(ctx, n, err)
	if err != nil {
		return 0, err
	}
	r.Logger.Debug("patched manifest", "updated", n)
	return n, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
