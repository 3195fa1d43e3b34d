package deps

import (
	"fmt"
	"sync"
	"testing"

	"github.com/matzehuels/bumper/pkg/version"
)

func TestQueuePop(t *testing.T) {
	q := newQueue([]lookup{
		{name: "a", spec: version.MustParse("1.0.0")},
		{name: "b", spec: version.MustParse("^2.0.0")},
	})

	if q.empty() {
		t.Fatal("queue should not be empty")
	}
	if q.len() != 2 {
		t.Errorf("len() = %d, want 2", q.len())
	}

	var got []string
	for {
		l, ok := q.tryPop()
		if !ok {
			break
		}
		got = append(got, l.name)
	}
	if len(got) != 2 {
		t.Errorf("popped %v, want 2 items", got)
	}
	if !q.empty() {
		t.Error("queue should be empty")
	}
	if _, ok := q.tryPop(); ok {
		t.Error("tryPop on empty queue should fail")
	}
}

func TestQueueConcurrentPopsAreExclusive(t *testing.T) {
	const n = 500
	items := make([]lookup, n)
	for i := range items {
		items[i] = lookup{name: fmt.Sprintf("pkg-%d", i)}
	}
	q := newQueue(items)

	var (
		mu   sync.Mutex
		seen = make(map[string]int)
		wg   sync.WaitGroup
	)
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				l, ok := q.tryPop()
				if !ok {
					return
				}
				mu.Lock()
				seen[l.name]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != n {
		t.Errorf("popped %d distinct items, want %d", len(seen), n)
	}
	for name, count := range seen {
		if count != 1 {
			t.Errorf("%s popped %d times", name, count)
		}
	}
}
