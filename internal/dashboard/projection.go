package dashboard

import "sync"

// Projection is a local copy of one server resource.
//
// Every read request takes a generation from Begin and hands it back to
// Commit with the response. Only the most recently issued generation may
// commit, so a slow response never overwrites the result of a request that
// was issued after it, whatever order the responses arrive in. Mutate also
// issues a generation, which discards every refresh that was in flight when
// the optimistic change was applied.
type Projection[T any] struct {
	mu     sync.RWMutex
	gen    uint64
	value  T
	loaded bool
}

// Begin issues the generation for a new read request
func (p *Projection[T]) Begin() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gen++
	return p.gen
}

// Commit stores v if gen is still the latest generation and reports whether it did
func (p *Projection[T]) Commit(gen uint64, v T) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen {
		return false
	}
	p.value = v
	p.loaded = true
	return true
}

// Mutate applies an optimistic local change. fn must not modify its argument in place.
func (p *Projection[T]) Mutate(fn func(T) T) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gen++
	if p.loaded {
		p.value = fn(p.value)
	}
}

// Invalidate discards every in-flight read without touching the value
func (p *Projection[T]) Invalidate() {
	p.mu.Lock()
	p.gen++
	p.mu.Unlock()
}

// Get returns the current value and whether any response has been committed yet
func (p *Projection[T]) Get() (T, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.value, p.loaded
}

// Generation latest issued generation
func (p *Projection[T]) Generation() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.gen
}
