package scope

import (
	"errors"
	"fmt"
	"sync"

	"github.com/samber/lo"
)

// ── Binding types ─────────────────────────────────────────────────────────────

// Factory is a function that builds a concrete value inside a scope.
type Factory func(s *Scope) any

// binding holds a registered factory and whether its result is cached.
type binding struct {
	factory   Factory
	singleton bool
}

// Binding is a declarative registration used when spawning a scope from a
// list of providers, e.g. via Child(). It mirrors an Angular provider entry:
// a token plus the recipe for producing its value.
type Binding struct {
	token     string
	factory   Factory
	singleton bool
}

// Provide declares a transient binding: the factory runs on every resolution.
func Provide(token string, factory Factory) Binding {
	return Binding{token: token, factory: factory}
}

// ProvideSingleton declares a cached binding: the factory runs at most once
// per scope.
func ProvideSingleton(token string, factory Factory) Binding {
	return Binding{token: token, factory: factory, singleton: true}
}

// ProvideValue declares a pre-built value.
func ProvideValue(token string, value any) Binding {
	return Binding{token: token, factory: func(*Scope) any { return value }, singleton: true}
}

// ── Errors ────────────────────────────────────────────────────────────────────

var (
	// ErrTokenNotBound is returned by Make when no binding exists for a token
	// anywhere on the scope chain.
	ErrTokenNotBound = errors.New("scope: token not bound")

	// ErrScopeDestroyed is returned when operating on a destroyed scope.
	ErrScopeDestroyed = errors.New("scope: scope has been destroyed")
)

// TokenError carries the offending token alongside the sentinel.
type TokenError struct {
	Token string
}

func (e TokenError) Error() string {
	return "scope: no binding registered for [" + e.Token + "]"
}

func (e TokenError) Unwrap() error { return ErrTokenNotBound }

// ── Scope ─────────────────────────────────────────────────────────────────────

// Scope is a destroyable injection scope. Each scope owns its bindings and
// cached instances, resolves unknown tokens through its parent, and tears
// down children plus registered callbacks when destroyed.
//
// It plays the role Angular's EnvironmentInjector plays for the lazy layer:
//
//	root  := scope.New()
//	child := root.Child(scope.ProvideValue("config", cfg))
//	v, _  := child.Make("config")
//	child.Destroy() // runs OnDestroy callbacks, detaches from root
type Scope struct {
	mu sync.RWMutex

	parent *Scope

	// token → binding
	bindings map[string]*binding

	// token → resolved singleton instance
	instances map[string]any

	// live child scopes, destroyed along with this scope
	children map[*Scope]struct{}

	// teardown callbacks, run LIFO on Destroy
	teardown []func()

	destroyed bool
}

// New creates an empty root scope.
func New() *Scope {
	s := &Scope{
		bindings:  make(map[string]*binding),
		instances: make(map[string]any),
		children:  make(map[*Scope]struct{}),
	}
	// The scope is resolvable from itself.
	s.Instance("scope", s)
	return s
}

// Child creates a scope that inherits this scope's bindings through parent
// lookup and seeds it with the given providers. Destroying the parent
// destroys the child.
func (s *Scope) Child(bindings ...Binding) *Scope {
	child := New()
	child.parent = s
	for _, b := range bindings {
		child.mu.Lock()
		child.bindings[b.token] = &binding{factory: b.factory, singleton: b.singleton}
		child.mu.Unlock()
	}

	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		// A child of a dead scope is born dead.
		child.Destroy()
		return child
	}
	s.children[child] = struct{}{}
	s.mu.Unlock()
	return child
}

// Parent returns the parent scope, or nil for a root scope.
func (s *Scope) Parent() *Scope { return s.parent }

// ── Registration ──────────────────────────────────────────────────────────────

// Bind registers a transient factory: a new value on every Make.
func (s *Scope) Bind(token string, factory Factory) {
	s.register(token, factory, false)
}

// Singleton registers a factory whose result is cached after first resolution.
func (s *Scope) Singleton(token string, factory Factory) {
	s.register(token, factory, true)
}

// Instance registers a pre-built value.
func (s *Scope) Instance(token string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.bindings, token)
	s.instances[token] = value
}

func (s *Scope) register(token string, factory Factory, singleton bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.instances, token)
	s.bindings[token] = &binding{factory: factory, singleton: singleton}
}

// ── Resolution ────────────────────────────────────────────────────────────────

// Make resolves a token, walking up the parent chain when this scope has no
// binding for it.
func (s *Scope) Make(token string) (any, error) {
	s.mu.RLock()
	if s.destroyed {
		s.mu.RUnlock()
		return nil, ErrScopeDestroyed
	}
	if inst, ok := s.instances[token]; ok {
		s.mu.RUnlock()
		return inst, nil
	}
	b, ok := s.bindings[token]
	s.mu.RUnlock()

	if !ok {
		if s.parent != nil {
			return s.parent.Make(token)
		}
		return nil, TokenError{Token: token}
	}

	value := b.factory(s)

	if b.singleton {
		s.mu.Lock()
		s.instances[token] = value
		s.mu.Unlock()
	}
	return value, nil
}

// MustMake resolves a token or panics.
func (s *Scope) MustMake(token string) any {
	v, err := s.Make(token)
	if err != nil {
		panic(err)
	}
	return v
}

// Has reports whether a token is resolvable from this scope or any ancestor.
func (s *Scope) Has(token string) bool {
	s.mu.RLock()
	_, hasBinding := s.bindings[token]
	_, hasInstance := s.instances[token]
	s.mu.RUnlock()
	if hasBinding || hasInstance {
		return true
	}
	if s.parent != nil {
		return s.parent.Has(token)
	}
	return false
}

// Bindings returns the tokens registered directly on this scope.
func (s *Scope) Bindings() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lo.Uniq(append(lo.Keys(s.bindings), lo.Keys(s.instances)...))
}

// ── Lifecycle ─────────────────────────────────────────────────────────────────

// OnDestroy registers a callback run when the scope is destroyed.
// Callbacks run LIFO, after all child scopes have been destroyed.
func (s *Scope) OnDestroy(fn func()) {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		fn()
		return
	}
	s.teardown = append(s.teardown, fn)
	s.mu.Unlock()
}

// Destroy tears the scope down: children first, then teardown callbacks in
// LIFO order, then all bindings. Destroying twice is a no-op.
func (s *Scope) Destroy() {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	s.destroyed = true
	children := lo.Keys(s.children)
	callbacks := s.teardown
	s.teardown = nil
	s.children = make(map[*Scope]struct{})
	s.mu.Unlock()

	for _, child := range children {
		child.Destroy()
	}
	for i := len(callbacks) - 1; i >= 0; i-- {
		callbacks[i]()
	}

	if s.parent != nil {
		s.parent.forget(s)
	}

	s.mu.Lock()
	s.bindings = make(map[string]*binding)
	s.instances = make(map[string]any)
	s.mu.Unlock()
}

// Destroyed reports whether Destroy has been called.
func (s *Scope) Destroyed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.destroyed
}

func (s *Scope) forget(child *Scope) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.children, child)
}

// ── Generics helper ───────────────────────────────────────────────────────────

// Resolve is a generic helper that calls Make and type-asserts the result.
//
//	cfg, err := scope.Resolve[*config.Config](s, "config")
func Resolve[T any](s *Scope, token string) (T, error) {
	var zero T
	v, err := s.Make(token)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("scope: Resolve[%T]: [%s] resolved to %T", zero, token, v)
	}
	return typed, nil
}
