// Package pool provides a resource pool with least-use selection and a
// ceiling-triggered usage reset.
package pool

import "sync"

// LeastUsed hands out the item with the fewest uses since the last reset.
// Once every item has reached the per-item ceiling, all counters reset so the
// rotation starts over.
type LeastUsed[T any] struct {
	mu      sync.Mutex
	items   []T
	uses    []int
	ceiling int
}

// NewLeastUsed creates a pool over the given items. A ceiling of zero or less
// disables the reset.
func NewLeastUsed[T any](items []T, ceiling int) *LeastUsed[T] {
	return &LeastUsed[T]{
		items:   items,
		uses:    make([]int, len(items)),
		ceiling: ceiling,
	}
}

// Len returns the number of pooled items.
func (p *LeastUsed[T]) Len() int {
	return len(p.items)
}

// Acquire returns the least-used item and its index, counting the use.
func (p *LeastUsed[T]) Acquire() (T, int) {
	return p.AcquireExcept(-1)
}

// AcquireExcept behaves like Acquire but skips the item at the given index,
// so a retry can go through a different item. With a single-item pool the
// skip is ignored.
func (p *LeastUsed[T]) AcquireExcept(skip int) (T, int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	best := -1
	for i := range p.items {
		if i == skip && len(p.items) > 1 {
			continue
		}
		if best == -1 || p.uses[i] < p.uses[best] {
			best = i
		}
	}

	p.uses[best]++
	p.maybeReset()
	return p.items[best], best
}

// maybeReset clears all usage counters once every item has hit the ceiling.
func (p *LeastUsed[T]) maybeReset() {
	if p.ceiling <= 0 {
		return
	}
	for _, n := range p.uses {
		if n < p.ceiling {
			return
		}
	}
	for i := range p.uses {
		p.uses[i] = 0
	}
}
