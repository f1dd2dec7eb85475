package lazy

import (
	"context"
	"sync"
)

// Surrogate is the forwarding handle returned in place of the real service.
// External holders interact only with the surrogate; the real instance never
// escapes it. The supported operation surface is deliberately fixed:
//
//   - Get / Set / Has forward to the real instance (or to safe-member logic)
//   - Invoke is get-then-call sugar for method members
//   - Destroy is the administrative teardown hook
//   - Enumerate / Describe / Delete always fail with OperationNotSupported —
//     answering them would require exposing the real instance's shape before
//     it exists
//
// A surrogate is identity-equal only to itself and never to the real
// instance.
type Surrogate struct {
	loader *Loader
	reg    *registration
}

// ── Core operations ───────────────────────────────────────────────────────────

// Get reads a member.
//
// Declared-safe members come back in deferred form regardless of readiness:
// promise-shaped properties as *Deferred[any], promise-shaped methods as
// func(args ...any) *Deferred[any], observable-shaped members as Stream (or
// func(args ...any) Stream for methods), void-shaped methods as
// func(args ...any). Touching a safe member begins construction when the
// trigger is OnAccess.
//
// Undeclared members forward to the real instance once construction has
// completed; before that they fail with ServiceNotReady, and after a failed
// construction they replay the construction error.
func (s *Surrogate) Get(name string) (any, error) {
	r := s.reg

	r.mu.Lock()
	if r.destroyed {
		r.mu.Unlock()
		return nil, ErrDestroyed
	}
	sm, isSafe := r.safe[name]
	if isSafe {
		shouldBegin := r.trigger == OnAccess && !r.started
		r.mu.Unlock()
		if shouldBegin {
			r.begin()
		}
		return s.safeWrapper(name, sm), nil
	}

	switch {
	case r.failure != nil:
		err := r.failure
		r.mu.Unlock()
		return nil, err
	case r.result != nil:
		instance := r.result.instance
		r.mu.Unlock()
		return memberGet(instance, name)
	default:
		r.mu.Unlock()
		return nil, NotReadyError{Member: name, Detailed: s.loader.debug}
	}
}

// Set writes a member. Safe members are read-only from the outside and fail
// with OperationNotSupported. Undeclared members fail with ServiceNotReady
// before readiness and forward to the real instance after it.
func (s *Surrogate) Set(name string, value any) error {
	r := s.reg

	r.mu.Lock()
	if r.destroyed {
		r.mu.Unlock()
		return ErrDestroyed
	}
	if _, isSafe := r.safe[name]; isSafe {
		r.mu.Unlock()
		return UnsupportedOperationError{Op: "set", Member: name}
	}

	switch {
	case r.failure != nil:
		err := r.failure
		r.mu.Unlock()
		return err
	case r.result != nil:
		instance := r.result.instance
		r.mu.Unlock()
		return memberSet(instance, name, value)
	default:
		r.mu.Unlock()
		return NotReadyError{Member: name, Detailed: s.loader.debug}
	}
}

// Has reports whether the member exists. Declared-safe members always exist.
// Undeclared members follow the same readiness rules as Get.
func (s *Surrogate) Has(name string) (bool, error) {
	r := s.reg

	r.mu.Lock()
	if r.destroyed {
		r.mu.Unlock()
		return false, ErrDestroyed
	}
	if _, isSafe := r.safe[name]; isSafe {
		r.mu.Unlock()
		return true, nil
	}

	switch {
	case r.failure != nil:
		err := r.failure
		r.mu.Unlock()
		return false, err
	case r.result != nil:
		instance := r.result.instance
		r.mu.Unlock()
		return memberHas(instance, name), nil
	default:
		r.mu.Unlock()
		return false, NotReadyError{Member: name, Detailed: s.loader.debug}
	}
}

// Invoke is get-then-call sugar. For a void-shaped member it fires and
// returns (nil, nil); for a promise-shaped method it returns the
// *Deferred[any]; for an observable-shaped method it returns the Stream;
// for an unsafe method it forwards synchronously.
func (s *Surrogate) Invoke(name string, args ...any) (any, error) {
	member, err := s.Get(name)
	if err != nil {
		return nil, err
	}
	switch fn := member.(type) {
	case func(args ...any) (any, error):
		return fn(args...)
	case func(args ...any) *Deferred[any]:
		return fn(args...), nil
	case func(args ...any) Stream:
		return fn(args...), nil
	case func(args ...any):
		fn(args...)
		return nil, nil
	default:
		return nil, UnsupportedOperationError{Op: "invoke", Member: name}
	}
}

// Destroy tears this surrogate down via its loader.
func (s *Surrogate) Destroy() { s.loader.Destroy(s) }

// ── Unsupported structural operations ─────────────────────────────────────────

// Enumerate would list the real instance's members; surrogates refuse it by
// policy, before and after readiness.
func (s *Surrogate) Enumerate() ([]string, error) {
	return nil, UnsupportedOperationError{Op: "enumerate"}
}

// Describe would expose a member's definition; surrogates refuse it.
func (s *Surrogate) Describe(name string) (any, error) {
	return nil, UnsupportedOperationError{Op: "describe", Member: name}
}

// Delete would remove a member; surrogates refuse it.
func (s *Surrogate) Delete(name string) error {
	return UnsupportedOperationError{Op: "delete", Member: name}
}

// ── Safe-member wrappers ──────────────────────────────────────────────────────

// safeWrapper builds the deferred form for a declared-safe member.
// Evaluation always defers past at least one scheduling turn, even when
// construction has already completed: safe accesses are therefore not
// ordered relative to unsafe accesses issued in the same turn. That is the
// documented trade-off, not an accident.
func (s *Surrogate) safeWrapper(name string, sm safeMember) any {
	switch sm.shape {
	case Promise:
		if sm.kind == propertyMember {
			return s.deferredProperty(name)
		}
		return func(args ...any) *Deferred[any] {
			return s.deferredCall(name, args)
		}
	case Observable:
		if sm.kind == propertyMember {
			return Stream(&pendingStream{reg: s.reg, name: name, kind: propertyMember})
		}
		return func(args ...any) Stream {
			return &pendingStream{reg: s.reg, name: name, kind: methodMember, args: args}
		}
	default: // Void
		return s.voidInvoker(name)
	}
}

// deferredProperty resolves with the real property's value once construction
// completes. A property that itself holds a *Deferred[any] is flattened.
func (s *Surrogate) deferredProperty(name string) *Deferred[any] {
	d := NewDeferred[any]()
	r := s.reg
	go func() {
		<-r.ready.Done()
		res, err := r.ready.Value()
		if err != nil {
			d.Reject(err)
			return
		}
		v, err := memberGet(res.instance, name)
		if err != nil {
			d.Reject(err)
			return
		}
		if inner, ok := v.(*Deferred[any]); ok {
			iv, ierr := inner.Await(context.Background())
			if ierr != nil {
				d.Reject(ierr)
				return
			}
			v = iv
		}
		d.Resolve(v)
	}()
	return d
}

// deferredCall invokes the real method after construction completes and
// resolves with its return value.
func (s *Surrogate) deferredCall(name string, args []any) *Deferred[any] {
	d := NewDeferred[any]()
	r := s.reg
	go func() {
		<-r.ready.Done()
		res, err := r.ready.Value()
		if err != nil {
			d.Reject(err)
			return
		}
		fn, err := bindMethod(res.instance, name)
		if err != nil {
			d.Reject(err)
			return
		}
		v, err := fn(args...)
		if err != nil {
			d.Reject(err)
			return
		}
		d.Resolve(v)
	}()
	return d
}

// voidInvoker queues invocations until readiness; each pre-ready call keeps
// its own arguments and is replayed in call order after construction.
// Calls after a failed construction or destroy are dropped.
func (s *Surrogate) voidInvoker(name string) func(args ...any) {
	r := s.reg
	return func(args ...any) {
		r.mu.Lock()
		if r.destroyed || r.failure != nil {
			r.mu.Unlock()
			return
		}
		if r.result == nil {
			r.voidQueue = append(r.voidQueue, pendingCall{name: name, args: args})
			r.mu.Unlock()
			return
		}
		instance := r.result.instance
		r.mu.Unlock()
		go r.invokeDiscard(instance, name, args)
	}
}

// pendingStream is the deferred form of an observable-shaped member: it
// subscribes to the real stream only after construction settles and
// re-subscribes per consumer subscription.
type pendingStream struct {
	reg  *registration
	name string
	kind memberKind
	args []any
}

func (p *pendingStream) Subscribe(next func(v any)) (stop func()) {
	var mu sync.Mutex
	var inner func()
	stopped := false

	go func() {
		<-p.reg.ready.Done()
		res, err := p.reg.ready.Value()
		if err != nil {
			return
		}

		source, err := p.resolveStream(res.instance)
		if err != nil {
			p.reg.loader.log.Warn().Err(err).Str("member", p.name).
				Msg("observable member unavailable")
			return
		}

		mu.Lock()
		defer mu.Unlock()
		if stopped {
			return
		}
		inner = source.Subscribe(next)
	}()

	return func() {
		mu.Lock()
		defer mu.Unlock()
		stopped = true
		if inner != nil {
			inner()
			inner = nil
		}
	}
}

func (p *pendingStream) resolveStream(instance any) (Stream, error) {
	var v any
	var err error
	if p.kind == methodMember {
		var fn func(args ...any) (any, error)
		fn, err = bindMethod(instance, p.name)
		if err == nil {
			v, err = fn(p.args...)
		}
	} else {
		v, err = memberGet(instance, p.name)
	}
	if err != nil {
		return nil, err
	}
	st, ok := v.(Stream)
	if !ok {
		return nil, UnsupportedOperationError{Op: "subscribe", Member: p.name}
	}
	return st, nil
}
