package lazy

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/bgotink/go-lazy/scope"
)

// ── Trigger ───────────────────────────────────────────────────────────────────

// Trigger decides when construction of the real instance begins.
type Trigger int

const (
	// OnInjection constructs as soon as the surrogate is produced.
	// This is the default.
	OnInjection Trigger = iota

	// OnAccess constructs the first time a declared-safe member is used,
	// or when Load is called.
	OnAccess

	// Explicit constructs only via Load.
	Explicit
)

func (t Trigger) String() string {
	switch t {
	case OnInjection:
		return "on-injection"
	case OnAccess:
		return "on-access"
	case Explicit:
		return "explicit"
	default:
		return fmt.Sprintf("trigger(%d)", int(t))
	}
}

// ── Safe-member declarations ──────────────────────────────────────────────────

// Shape describes the deferred form a safe member takes before the real
// instance exists.
type Shape int

const (
	// Promise marks an awaitable-returning property, or a method whose
	// (variadic) invocation yields an awaitable result.
	Promise Shape = iota + 1

	// Observable marks a Stream-returning property or method.
	Observable

	// Void marks a fire-and-forget method.
	Void
)

func (s Shape) String() string {
	switch s {
	case Promise:
		return "promise"
	case Observable:
		return "observable"
	case Void:
		return "void"
	default:
		return fmt.Sprintf("shape(%d)", int(s))
	}
}

type memberKind int

const (
	propertyMember memberKind = iota
	methodMember
)

type safeMember struct {
	shape Shape
	kind  memberKind
}

// ── Loader ────────────────────────────────────────────────────────────────────

// Loader owns every surrogate created in its scope: the registry mapping
// surrogates to their registration records, the trigger state machine, and
// bulk teardown. One loader serves one scope; destroying the scope destroys
// all still-registered surrogates.
type Loader struct {
	mu       sync.Mutex
	scope    *scope.Scope
	registry map[*Surrogate]*registration
	log      zerolog.Logger
	debug    bool
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger used for construction lifecycle events.
func WithLogger(log zerolog.Logger) Option {
	return func(l *Loader) { l.log = log }
}

// WithDebug enables diagnostic detail in ServiceNotReady and
// construction-configuration errors. Leave it off in production.
func WithDebug(debug bool) Option {
	return func(l *Loader) { l.debug = debug }
}

// NewLoader creates a loader bound to the given scope and registers its bulk
// teardown with the scope, so destroying the scope destroys every surrogate
// the loader still tracks.
func NewLoader(s *scope.Scope, opts ...Option) *Loader {
	l := &Loader{
		scope:    s,
		registry: make(map[*Surrogate]*registration),
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	s.OnDestroy(l.DestroyAll)
	return l
}

// Scope returns the scope this loader serves.
func (l *Loader) Scope() *scope.Scope { return l.scope }

// create allocates a registration record and its surrogate. Only builders
// call this; the safe-member table is already a private snapshot.
func (l *Loader) create(trigger Trigger, construct Closure, safe map[string]safeMember) *Surrogate {
	reg := &registration{
		loader:    l,
		trigger:   trigger,
		construct: construct,
		safe:      safe,
		ready:     NewDeferred[*Result](),
	}
	sur := &Surrogate{loader: l, reg: reg}

	l.mu.Lock()
	l.registry[sur] = reg
	l.mu.Unlock()

	l.log.Debug().Stringer("trigger", trigger).Int("safe_members", len(safe)).
		Msg("surrogate created")

	if trigger == OnInjection {
		reg.begin()
	}
	return sur
}

func (l *Loader) lookup(v any) (*Surrogate, *registration, bool) {
	sur, ok := v.(*Surrogate)
	if !ok {
		return nil, nil, false
	}
	l.mu.Lock()
	reg, ok := l.registry[sur]
	l.mu.Unlock()
	return sur, reg, ok
}

// Load begins construction if it has not begun (concurrent calls converge on
// the same attempt) and blocks until the outcome settles. It returns the
// construction error, if any. Values not recognized as live surrogates are a
// no-op.
func (l *Loader) Load(ctx context.Context, v any) error {
	_, reg, ok := l.lookup(v)
	if !ok {
		return nil
	}
	reg.begin()
	_, err := reg.ready.Await(ctx)
	return err
}

// IsReady reports whether the surrogate's construction outcome has settled —
// success and failure both count as ready. Values not recognized as live
// surrogates report true.
func (l *Loader) IsReady(v any) bool {
	_, reg, ok := l.lookup(v)
	if !ok {
		return true
	}
	return reg.ready.Settled()
}

// WhenReady blocks until the surrogate's outcome settles, folding failure
// into completion: a failed construction still counts as ready and returns
// nil. Only context cancellation produces an error. Values not recognized as
// live surrogates return immediately.
func (l *Loader) WhenReady(ctx context.Context, v any) error {
	_, reg, ok := l.lookup(v)
	if !ok {
		return nil
	}
	select {
	case <-reg.ready.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Destroy removes the surrogate's registration and tears down the underlying
// instance, if one was constructed. Destroying a surrogate whose
// construction is in flight lets the attempt finish, discards its result,
// and releases its resources; the readiness future rejects with
// ErrDestroyedBeforeReady. A second Destroy is a no-op.
func (l *Loader) Destroy(v any) {
	sur, reg, ok := l.lookup(v)
	if !ok {
		return
	}
	l.mu.Lock()
	delete(l.registry, sur)
	l.mu.Unlock()
	reg.destroy()
}

// DestroyAll destroys every still-registered surrogate, in no guaranteed
// order. It is hooked into the scope's teardown by NewLoader.
func (l *Loader) DestroyAll() {
	l.mu.Lock()
	regs := lo.Values(l.registry)
	l.registry = make(map[*Surrogate]*registration)
	l.mu.Unlock()

	for _, reg := range regs {
		reg.destroy()
	}
}

// Count returns the number of surrogates currently registered.
func (l *Loader) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.registry)
}

// ── Registration record ───────────────────────────────────────────────────────

type pendingCall struct {
	name string
	args []any
}

// registration is the per-surrogate bookkeeping record. The ready Deferred
// settles exactly once: with the construction Result, the construction
// failure, or ErrDestroyedBeforeReady.
type registration struct {
	mu        sync.Mutex
	loader    *Loader
	trigger   Trigger
	construct Closure
	safe      map[string]safeMember

	ready     *Deferred[*Result]
	started   bool
	destroyed bool

	// exactly one of these is set after a settled construction
	result  *Result
	failure error

	// void-shaped calls issued before readiness, replayed in order
	voidQueue []pendingCall
}

// begin starts construction at most once. Concurrent triggers share the
// in-flight attempt.
func (r *registration) begin() {
	r.mu.Lock()
	if r.started || r.destroyed {
		r.mu.Unlock()
		return
	}
	r.started = true
	r.mu.Unlock()

	r.loader.log.Debug().Stringer("trigger", r.trigger).Msg("construction begun")
	go r.run()
}

// run executes the construction closure and settles the record.
func (r *registration) run() {
	res, err := func() (res *Result, err error) {
		defer func() {
			if rec := recover(); rec != nil {
				err = fmt.Errorf("lazy: construction closure panicked: %v", rec)
			}
		}()
		return r.construct(&Context{scope: r.loader.scope, loader: r.loader})
	}()
	if err == nil && !res.valid() {
		res = nil
		err = InvalidResultError{Detailed: r.loader.debug}
	}
	r.settle(res, err)
}

func (r *registration) settle(res *Result, err error) {
	r.mu.Lock()
	if r.destroyed {
		r.mu.Unlock()
		// Destruction was requested mid-flight: the readiness future has
		// already rejected, so only release what the attempt produced.
		if err == nil {
			res.destroy()
		}
		r.loader.log.Debug().Msg("construction outcome discarded after destroy")
		return
	}

	if err != nil {
		r.failure = err
		r.voidQueue = nil
		r.mu.Unlock()
		r.ready.Reject(err)
		r.loader.log.Debug().Err(err).Msg("construction failed")
		return
	}

	r.result = res
	queue := r.voidQueue
	r.voidQueue = nil
	r.mu.Unlock()

	r.ready.Resolve(res)
	r.loader.log.Debug().Msg("construction completed")

	if len(queue) > 0 {
		go func() {
			for _, call := range queue {
				r.invokeDiscard(res.instance, call.name, call.args)
			}
		}()
	}
}

// destroy marks the record dead, rejects the readiness future if the outcome
// is still outstanding, and releases a completed result. Idempotent.
func (r *registration) destroy() {
	r.mu.Lock()
	if r.destroyed {
		r.mu.Unlock()
		return
	}
	r.destroyed = true
	res := r.result
	r.result = nil
	r.voidQueue = nil
	r.mu.Unlock()

	// A record that never settled leaves its waiters a rejection; an
	// in-flight attempt observes destroyed in settle and self-releases.
	r.ready.Reject(ErrDestroyedBeforeReady)

	if res != nil {
		res.destroy()
	}
	r.loader.log.Debug().Msg("surrogate destroyed")
}

// invokeDiscard runs a void-shaped method on the real instance, dropping the
// return value and logging any invocation error.
func (r *registration) invokeDiscard(instance any, name string, args []any) {
	fn, err := bindMethod(instance, name)
	if err != nil {
		r.loader.log.Warn().Err(err).Str("member", name).Msg("void call dropped")
		return
	}
	if _, err := fn(args...); err != nil {
		r.loader.log.Warn().Err(err).Str("member", name).Msg("void call failed")
	}
}
