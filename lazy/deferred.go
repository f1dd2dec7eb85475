package lazy

import (
	"context"
	"sync"
)

// Deferred is a future with introspection: it can be awaited like a promise,
// and it additionally exposes whether it has settled and, once settled, its
// outcome. Settlement happens exactly once; later Resolve/Reject calls are
// ignored.
type Deferred[T any] struct {
	mu      sync.Mutex
	done    chan struct{}
	settled bool
	value   T
	err     error
}

// NewDeferred creates an unsettled Deferred.
func NewDeferred[T any]() *Deferred[T] {
	return &Deferred[T]{done: make(chan struct{})}
}

// Resolve settles the Deferred with a value.
// It reports whether this call performed the settlement.
func (d *Deferred[T]) Resolve(v T) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.settled {
		return false
	}
	d.settled = true
	d.value = v
	close(d.done)
	return true
}

// Reject settles the Deferred with an error.
// It reports whether this call performed the settlement.
func (d *Deferred[T]) Reject(err error) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.settled {
		return false
	}
	d.settled = true
	d.err = err
	close(d.done)
	return true
}

// Done returns a channel closed once the Deferred settles, for select loops.
func (d *Deferred[T]) Done() <-chan struct{} { return d.done }

// Settled reports whether the Deferred has resolved or rejected.
func (d *Deferred[T]) Settled() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.settled
}

// Value returns the settled outcome without blocking.
// Before settlement it returns ErrNotSettled.
func (d *Deferred[T]) Value() (T, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.settled {
		var zero T
		return zero, ErrNotSettled
	}
	return d.value, d.err
}

// Await blocks until the Deferred settles or the context is cancelled.
func (d *Deferred[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-d.done:
		return d.Value()
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
