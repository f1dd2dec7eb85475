package lazy

import (
	"sync"

	"github.com/bgotink/go-lazy/scope"
)

// ── Context ───────────────────────────────────────────────────────────────────

// Context is the ambient injection context handed to construction closures.
// It is passed explicitly instead of living in call-stack globals, so a
// closure can resolve collaborators and derive child scopes without touching
// package state.
type Context struct {
	scope  *scope.Scope
	loader *Loader
}

// Scope returns the scope the loader lives in.
func (c *Context) Scope() *scope.Scope { return c.scope }

// Loader returns the loader driving this construction.
func (c *Context) Loader() *Loader { return c.loader }

// Resolve resolves a token from the ambient scope.
func (c *Context) Resolve(token string) (any, error) { return c.scope.Make(token) }

// Closure builds the real service. It must return a Result produced by one
// of the creator strategies; anything else fails construction with an
// InvalidResultError.
type Closure func(ctx *Context) (*Result, error)

// ── Result ────────────────────────────────────────────────────────────────────

// Result pairs a constructed service instance with the callback releasing
// whatever resources were used to build it. Results are opaque: only the
// creator strategies in this package can produce a valid one, so callers
// cannot hand the loader an instance that skipped scope bookkeeping.
type Result struct {
	instance any
	release  func()
	once     sync.Once
	sealed   bool
}

func newResult(instance any, release func()) *Result {
	return &Result{instance: instance, release: release, sealed: true}
}

// destroy releases the result's resources at most once.
func (r *Result) destroy() {
	r.once.Do(func() {
		if r.release != nil {
			r.release()
		}
	})
}

func (r *Result) valid() bool { return r != nil && r.sealed }

// ── Creator strategies ────────────────────────────────────────────────────────

// Destroyable is the optional teardown hook FromInstance looks for on the
// constructed service.
type Destroyable interface {
	OnDestroy()
}

// FromInstance instantiates a single unit in a child scope derived from the
// ambient scope. The destroy callback invokes the instance's own OnDestroy
// hook (if present) and tears the child scope down.
func FromInstance(ctx *Context, factory scope.Factory) (*Result, error) {
	child := ctx.Scope().Child()
	instance := factory(child)
	return newResult(instance, func() {
		if d, ok := instance.(Destroyable); ok {
			d.OnDestroy()
		}
		child.Destroy()
	}), nil
}

// FromModule loads a module into a child scope and extracts the designated
// token from it. The destroy callback tears the module's scope down.
func FromModule(ctx *Context, module scope.Module, token string) (*Result, error) {
	child := ctx.Scope().Child()
	scope.Load(child, module)
	instance, err := child.Make(token)
	if err != nil {
		child.Destroy()
		return nil, err
	}
	return newResult(instance, child.Destroy), nil
}

// FromScope creates a child scope from a list of bindings and extracts the
// designated token from it. The destroy callback tears that scope down.
func FromScope(ctx *Context, bindings []scope.Binding, token string) (*Result, error) {
	child := ctx.Scope().Child(bindings...)
	instance, err := child.Make(token)
	if err != nil {
		child.Destroy()
		return nil, err
	}
	return newResult(instance, child.Destroy), nil
}
