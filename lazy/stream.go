package lazy

import "sync"

// Stream is the minimal push-stream contract the lazy layer understands —
// the Observable analogue. A real service exposes observable-shaped members
// either as a Stream-valued property or as a method returning a Stream.
//
// Subscribe registers a consumer and returns a stop function. Each call to
// Subscribe is an independent subscription.
type Stream interface {
	Subscribe(next func(v any)) (stop func())
}

// StreamFunc adapts a plain subscribe function into a Stream.
type StreamFunc func(next func(v any)) (stop func())

func (f StreamFunc) Subscribe(next func(v any)) (stop func()) { return f(next) }

// ── Emitter ───────────────────────────────────────────────────────────────────

// Emitter is a minimal multicast Stream: every value passed to Emit is pushed
// to all current subscribers. It is the Subject analogue, handy for services
// that expose observable-shaped members.
type Emitter struct {
	mu   sync.Mutex
	next int
	subs map[int]func(any)
}

// NewEmitter creates an Emitter with no subscribers.
func NewEmitter() *Emitter {
	return &Emitter{subs: make(map[int]func(any))}
}

// Subscribe implements Stream.
func (e *Emitter) Subscribe(next func(v any)) (stop func()) {
	e.mu.Lock()
	id := e.next
	e.next++
	e.subs[id] = next
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		delete(e.subs, id)
		e.mu.Unlock()
	}
}

// Emit pushes a value to every current subscriber.
func (e *Emitter) Emit(v any) {
	e.mu.Lock()
	subs := make([]func(any), 0, len(e.subs))
	for _, fn := range e.subs {
		subs = append(subs, fn)
	}
	e.mu.Unlock()

	for _, fn := range subs {
		fn(v)
	}
}

// Subscribers returns the current subscriber count.
func (e *Emitter) Subscribers() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.subs)
}
