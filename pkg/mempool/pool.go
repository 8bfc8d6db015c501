// Package mempool implements a slab-style pool of fixed-size objects. Objects
// are carved from slabs allocated in bulk and recycled through a free list,
// keeping allocation cheap for the many short-lived nodes the compiler creates
// and frees per compilation.
package mempool

// slabSize is the number of objects carved from one slab.
const slabSize = 64

// Pool hands out zeroed *T values from internally managed slabs.
//
// Put returns an object to the free list; empty slabs are retained for reuse
// rather than released.
type Pool[T any] struct {
	slabs [][]T
	free  []*T
	next  int // index of the first never-handed-out object in the last slab
	inUse int
}

// New creates an empty pool.
func New[T any]() *Pool[T] {
	return &Pool[T]{}
}

// Get returns a zeroed object, reusing a freed one when available.
func (p *Pool[T]) Get() *T {
	p.inUse++

	if n := len(p.free); n > 0 {
		obj := p.free[n-1]
		p.free = p.free[:n-1]
		var zero T
		*obj = zero
		return obj
	}

	if len(p.slabs) == 0 || p.next == slabSize {
		p.slabs = append(p.slabs, make([]T, slabSize))
		p.next = 0
	}
	slab := p.slabs[len(p.slabs)-1]
	obj := &slab[p.next]
	p.next++
	var zero T
	*obj = zero
	return obj
}

// Put returns an object to the pool. The object must have come from Get and
// must not be used afterwards.
func (p *Pool[T]) Put(obj *T) {
	if obj == nil {
		return
	}
	p.inUse--
	p.free = append(p.free, obj)
}

// Reset returns every object to the pool at once. The first slab is kept for
// reuse; any later slabs are released.
func (p *Pool[T]) Reset() {
	p.free = p.free[:0]
	p.inUse = 0
	if len(p.slabs) > 1 {
		p.slabs = p.slabs[:1]
	}
	p.next = 0
}

// InUse returns the number of objects currently handed out.
func (p *Pool[T]) InUse() int {
	return p.inUse
}

// Slabs returns the number of slabs allocated so far.
func (p *Pool[T]) Slabs() int {
	return len(p.slabs)
}
