package main

import "fmt"

// Pool is a recycling allocator for one entity kind. Instances cycle between
// an available stack and an identity-keyed active set; the managed total only
// grows, up to maxSize. Acquire never fails: once the pool is at capacity it
// falls back to plain construction, and those overflow instances are never
// tracked (releasing them is a no-op, the GC reclaims them).
//
// The pool does not reset fields. Acquired instances carry stale state from
// their previous life; callers must fully reinitialize them before use.
type Pool[T comparable] struct {
	factory func() T
	free    []T
	active  map[T]struct{}
	maxSize int
}

// NewPool creates a pool prewarmed with initial instances from factory.
func NewPool[T comparable](factory func() T, initial, maxSize int) (*Pool[T], error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("pool: max size must be positive, got %d", maxSize)
	}
	if initial < 0 || initial > maxSize {
		return nil, fmt.Errorf("pool: initial %d out of range [0, %d]", initial, maxSize)
	}
	p := &Pool[T]{
		factory: factory,
		free:    make([]T, 0, maxSize),
		active:  make(map[T]struct{}, maxSize),
		maxSize: maxSize,
	}
	for i := 0; i < initial; i++ {
		p.free = append(p.free, factory())
	}
	return p, nil
}

// Acquire hands out an instance, reusing an available one when possible.
// The second result is false for overflow instances allocated past the cap;
// those are not pool-managed and their release is a plain destroy.
func (p *Pool[T]) Acquire() (T, bool) {
	if n := len(p.free); n > 0 {
		v := p.free[n-1]
		p.free = p.free[:n-1]
		p.active[v] = struct{}{}
		return v, true
	}
	v := p.factory()
	if p.Total() < p.maxSize {
		p.active[v] = struct{}{}
		return v, true
	}
	return v, false
}

// Release returns an active instance to the available stack. Releasing an
// instance that is not tracked as active (double release, or an overflow
// instance) is a safe no-op. Callers detach the instance from any tracking
// collections before releasing; the pool only manages the partition.
func (p *Pool[T]) Release(v T) {
	if _, ok := p.active[v]; !ok {
		return
	}
	delete(p.active, v)
	if len(p.free) < p.maxSize {
		p.free = append(p.free, v)
	}
}

// Available returns the number of instances ready for reuse.
func (p *Pool[T]) Available() int { return len(p.free) }

// Active returns the number of instances currently checked out.
func (p *Pool[T]) Active() int { return len(p.active) }

// Total returns the number of pool-managed instances.
func (p *Pool[T]) Total() int { return len(p.free) + len(p.active) }
