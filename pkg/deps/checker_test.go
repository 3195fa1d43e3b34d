package deps

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/bumper/pkg/errors"
)

type stubFetcher struct {
	latest map[string]string
	fail   map[string]bool
	delay  time.Duration

	mu       sync.Mutex
	calls    []string
	inflight atomic.Int32
	peak     atomic.Int32
}

func (f *stubFetcher) FetchLatest(ctx context.Context, name string, _ bool) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()

	n := f.inflight.Add(1)
	defer f.inflight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.fail[name] {
		return "", errors.New(errors.ErrCodeRegistry, "%s: status 500", name)
	}
	v, ok := f.latest[name]
	if !ok {
		return "", errors.New(errors.ErrCodeRegistry, "%s: not found", name)
	}
	return v, nil
}

func (f *stubFetcher) called() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Sorted(slices.Values(f.calls))
}

func TestCheckFindsChanges(t *testing.T) {
	f := &stubFetcher{latest: map[string]string{
		"left-pad":   "1.3.0",
		"typescript": "5.6.3",
		"react":      "19.0.0",
	}}
	c := NewChecker("npm", f)

	cs, err := c.Check(context.Background(), map[string]string{
		"left-pad":   "^1.0.0",
		"typescript": "5.6.3",
		"react":      "~18.2.0",
	}, Options{Section: SectionDependencies, Concurrency: 4})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}

	if cs.Section != SectionDependencies {
		t.Errorf("Section = %q, want %q", cs.Section, SectionDependencies)
	}
	if len(cs.Changes) != 2 {
		t.Fatalf("got %d changes, want 2: %+v", len(cs.Changes), cs.Changes)
	}
	if cs.Changes[0].Name != "left-pad" || cs.Changes[1].Name != "react" {
		t.Errorf("changes not sorted by name: %+v", cs.Changes)
	}
	if got := cs.Changes[0].Target().String(); got != "^1.3.0" {
		t.Errorf("Target() = %q, want ^1.3.0", got)
	}
	if got := cs.Changes[1].Target().String(); got != "~19.0.0" {
		t.Errorf("Target() = %q, want ~19.0.0", got)
	}
	if _, ok := cs.Lookup("typescript"); ok {
		t.Error("up-to-date package should not produce a change")
	}
}

func TestCheckSkipsUnresolvable(t *testing.T) {
	f := &stubFetcher{latest: map[string]string{"left-pad": "1.3.0"}}
	c := NewChecker("npm", f)

	var logged []string
	cs, err := c.Check(context.Background(), map[string]string{
		"left-pad": "^1.0.0",
		"shared":   "workspace:*",
		"local":    "file:../local",
		"forked":   "git+https://example.com/forked.git",
		"any":      "*",
		"empty":    "",
	}, Options{Concurrency: 2, Logger: func(format string, args ...any) {
		logged = append(logged, fmt.Sprintf(format, args...))
	}})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}

	if got := f.called(); !slices.Equal(got, []string{"left-pad"}) {
		t.Errorf("fetched %v, want only left-pad", got)
	}
	if len(cs.Changes) != 1 || cs.Changes[0].Name != "left-pad" {
		t.Errorf("changes = %+v", cs.Changes)
	}
	if len(logged) < 5 {
		t.Errorf("expected skip messages to be logged, got %v", logged)
	}
}

func TestCheckWorkspaceOnly(t *testing.T) {
	f := &stubFetcher{}
	c := NewChecker("npm", f)

	cs, err := c.Check(context.Background(), map[string]string{"x": "workspace:*"}, Options{Concurrency: 10})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !cs.Empty() {
		t.Errorf("expected empty change set, got %+v", cs.Changes)
	}
	if len(f.called()) != 0 {
		t.Errorf("registry should not be contacted, got %v", f.called())
	}
	if Render(cs) != "" {
		t.Errorf("Render = %q, want empty", Render(cs))
	}
}

func TestCheckInvalidConcurrency(t *testing.T) {
	f := &stubFetcher{latest: map[string]string{"left-pad": "1.3.0"}}
	c := NewChecker("npm", f)

	for _, n := range []int{0, -1} {
		_, err := c.Check(context.Background(), map[string]string{"left-pad": "^1.0.0"}, Options{Concurrency: n})
		if !errors.Is(err, errors.ErrCodeInvalidConfig) {
			t.Errorf("Concurrency=%d: expected INVALID_CONFIG, got %v", n, err)
		}
	}
	if len(f.called()) != 0 {
		t.Errorf("no lookup should happen on invalid config, got %v", f.called())
	}
}

func TestCheckFailFast(t *testing.T) {
	f := &stubFetcher{
		latest: map[string]string{"left-pad": "1.3.0"},
		fail:   map[string]bool{"broken-pkg": true},
	}
	c := NewChecker("npm", f)

	cs, err := c.Check(context.Background(), map[string]string{
		"left-pad":   "^1.0.0",
		"broken-pkg": "1.0.0",
	}, Options{Concurrency: 1})
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, errors.ErrCodeFetchFailed) {
		t.Errorf("expected FETCH_FAILED, got %v", err)
	}
	if !errors.Is(err, errors.ErrCodeRegistry) {
		t.Errorf("expected wrapped REGISTRY_ERROR, got %v", err)
	}
	if len(cs.Changes) != 0 {
		t.Errorf("no partial result expected, got %+v", cs.Changes)
	}
}

func TestCheckFailFastCancelsOthers(t *testing.T) {
	declared := map[string]string{"broken-pkg": "1.0.0"}
	latest := map[string]string{}
	for i := range 50 {
		name := fmt.Sprintf("pkg-%02d", i)
		declared[name] = "1.0.0"
		latest[name] = "2.0.0"
	}
	f := &stubFetcher{latest: latest, fail: map[string]bool{"broken-pkg": true}, delay: 5 * time.Millisecond}
	c := NewChecker("npm", f)

	_, err := c.Check(context.Background(), declared, Options{Concurrency: 2})
	if !errors.Is(err, errors.ErrCodeFetchFailed) {
		t.Fatalf("expected FETCH_FAILED, got %v", err)
	}
	if n := len(f.called()); n >= len(declared) {
		t.Errorf("expected remaining lookups to be cancelled, got %d calls", n)
	}
}

func TestCheckKeepGoing(t *testing.T) {
	f := &stubFetcher{
		latest: map[string]string{"left-pad": "1.3.0"},
		fail:   map[string]bool{"broken-pkg": true},
	}
	c := NewChecker("npm", f)

	cs, err := c.Check(context.Background(), map[string]string{
		"left-pad":   "^1.0.0",
		"broken-pkg": "1.0.0",
	}, Options{Concurrency: 3, KeepGoing: true})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(cs.Changes) != 1 || cs.Changes[0].Name != "left-pad" {
		t.Errorf("changes = %+v", cs.Changes)
	}
	if len(cs.Failures) != 1 || cs.Failures[0].Name != "broken-pkg" {
		t.Fatalf("failures = %+v", cs.Failures)
	}
	if !errors.Is(cs.Failures[0].Err, errors.ErrCodeRegistry) {
		t.Errorf("failure error = %v", cs.Failures[0].Err)
	}
}

func TestCheckConcurrencyDoesNotChangeResult(t *testing.T) {
	declared := map[string]string{}
	latest := map[string]string{}
	for i := range 40 {
		name := fmt.Sprintf("pkg-%02d", i)
		declared[name] = "^1.0.0"
		if i%3 == 0 {
			latest[name] = "1.0.0"
		} else {
			latest[name] = fmt.Sprintf("1.%d.0", i)
		}
	}

	run := func(n int) ChangeSet {
		c := NewChecker("npm", &stubFetcher{latest: latest})
		cs, err := c.Check(context.Background(), declared, Options{Concurrency: n})
		if err != nil {
			t.Fatalf("Concurrency=%d: %v", n, err)
		}
		return cs
	}

	one, ten := run(1), run(10)
	if !slices.Equal(one.Changes, ten.Changes) {
		t.Errorf("results differ:\n1:  %+v\n10: %+v", one.Changes, ten.Changes)
	}
	if Render(one) != Render(ten) {
		t.Error("renderings differ between concurrency levels")
	}
}

func TestCheckBoundsInFlight(t *testing.T) {
	declared := map[string]string{}
	latest := map[string]string{}
	for i := range 30 {
		name := fmt.Sprintf("pkg-%02d", i)
		declared[name] = "1.0.0"
		latest[name] = "1.0.0"
	}
	f := &stubFetcher{latest: latest, delay: 2 * time.Millisecond}
	c := NewChecker("npm", f)

	if _, err := c.Check(context.Background(), declared, Options{Concurrency: 3}); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if p := f.peak.Load(); p > 3 {
		t.Errorf("peak in-flight lookups = %d, want <= 3", p)
	}
	if got := f.called(); !slices.Equal(got, slices.Sorted(maps.Keys(declared))) {
		t.Errorf("each package should be fetched exactly once, got %v", got)
	}
}

func TestCheckContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := &stubFetcher{latest: map[string]string{"left-pad": "1.3.0"}}
	c := NewChecker("npm", f)

	_, err := c.Check(ctx, map[string]string{"left-pad": "^1.0.0"}, Options{Concurrency: 2})
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
	if len(f.called()) != 0 {
		t.Errorf("no lookup expected after cancellation, got %v", f.called())
	}
}

func TestCheckerName(t *testing.T) {
	if got := NewChecker("npm", &stubFetcher{}).Name(); got != "npm" {
		t.Errorf("Name() = %q, want npm", got)
	}
}
