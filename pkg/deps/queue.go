package deps

import (
	"sync"

	"github.com/matzehuels/bumper/pkg/version"
)

type lookup struct {
	name string
	spec version.Spec
}

// queue hands out pending lookups to workers. It never blocks: a worker that
// finds it empty is done.
type queue struct {
	mu    sync.Mutex
	items []lookup
}

func newQueue(items []lookup) *queue {
	return &queue{items: items}
}

// tryPop removes and returns the last lookup.
func (q *queue) tryPop() (lookup, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.items)
	if n == 0 {
		return lookup{}, false
	}
	l := q.items[n-1]
	q.items = q.items[:n-1]
	return l, true
}

func (q *queue) empty() bool {
	return q.len() == 0
}

func (q *queue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
