package crawler

import (
	"siteharvest/pkg/types"
)

// Frontier is the FIFO queue of pending (address, depth) pairs plus the
// visited set keyed by normalized address. One Frontier belongs to exactly
// one run.
type Frontier struct {
	queue        []types.FrontierEntry
	visited      map[string]struct{}
	visitedOrder []string
}

// NewFrontier returns an empty frontier.
func NewFrontier() *Frontier {
	return &Frontier{visited: make(map[string]struct{})}
}

// Push appends an entry to the back of the queue. Duplicates may be pushed;
// the visited check at dequeue time keeps them from being processed twice.
func (f *Frontier) Push(address string, depth int) {
	f.queue = append(f.queue, types.FrontierEntry{Address: address, Depth: depth})
}

// Pop removes and returns the front entry.
func (f *Frontier) Pop() (types.FrontierEntry, bool) {
	if len(f.queue) == 0 {
		return types.FrontierEntry{}, false
	}
	entry := f.queue[0]
	f.queue = f.queue[1:]
	return entry, true
}

// Len reports the number of queued entries.
func (f *Frontier) Len() int {
	return len(f.queue)
}

// Visited reports whether the normalized key has been dequeued before.
func (f *Frontier) Visited(key string) bool {
	_, ok := f.visited[key]
	return ok
}

// MarkVisited records the key. Idempotent.
func (f *Frontier) MarkVisited(key string) {
	if _, ok := f.visited[key]; ok {
		return
	}
	f.visited[key] = struct{}{}
	f.visitedOrder = append(f.visitedOrder, key)
}

// VisitedAddresses returns the visited keys in visit order.
func (f *Frontier) VisitedAddresses() []string {
	out := make([]string, len(f.visitedOrder))
	copy(out, f.visitedOrder)
	return out
}
