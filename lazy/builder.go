package lazy

import (
	"fmt"
	"sync"

	"github.com/bgotink/go-lazy/scope"
)

// Builder accumulates trigger and safe-member configuration before any
// surrogate exists, then delegates creation to the loader. It is mutable and
// chainable; every Build call takes a snapshot of the current configuration,
// so later changes never affect surrogates already produced.
//
//	reports := loader.NewBuilder(buildReports).
//	    CreateOn(lazy.OnAccess).
//	    MarkSafeMethod("Generate", lazy.Promise).
//	    MarkSafeMethod("Warm", lazy.Void)
//
//	a := reports.Build() // independent surrogate
//	b := reports.Build() // another one
type Builder struct {
	mu        sync.Mutex
	loader    *Loader
	construct Closure
	trigger   Trigger
	safe      map[string]safeMember
}

// NewBuilder creates a builder for the given construction closure.
// The trigger defaults to OnInjection.
func (l *Loader) NewBuilder(construct Closure) *Builder {
	return &Builder{
		loader:    l,
		construct: construct,
		trigger:   OnInjection,
		safe:      make(map[string]safeMember),
	}
}

// CreateOn overwrites the configured trigger.
func (b *Builder) CreateOn(t Trigger) *Builder {
	b.mu.Lock()
	b.trigger = t
	b.mu.Unlock()
	return b
}

// MarkSafeProperty declares a property usable before readiness, in Promise
// or Observable shape. The last declaration for a name wins.
// It panics on the Void shape: a property cannot be fire-and-forget.
func (b *Builder) MarkSafeProperty(name string, shape Shape) *Builder {
	if shape != Promise && shape != Observable {
		panic(fmt.Sprintf("lazy: safe property %q cannot take shape %s", name, shape))
	}
	b.mu.Lock()
	b.safe[name] = safeMember{shape: shape, kind: propertyMember}
	b.mu.Unlock()
	return b
}

// MarkSafeMethod declares a method usable before readiness, in Promise,
// Observable or Void shape. The last declaration for a name wins.
func (b *Builder) MarkSafeMethod(name string, shape Shape) *Builder {
	if shape != Promise && shape != Observable && shape != Void {
		panic(fmt.Sprintf("lazy: safe method %q cannot take shape %s", name, shape))
	}
	b.mu.Lock()
	b.safe[name] = safeMember{shape: shape, kind: methodMember}
	b.mu.Unlock()
	return b
}

// Build produces one new, independent surrogate from the builder's current
// configuration snapshot.
func (b *Builder) Build() *Surrogate {
	b.mu.Lock()
	snapshot := make(map[string]safeMember, len(b.safe))
	for name, sm := range b.safe {
		snapshot[name] = sm
	}
	trigger := b.trigger
	construct := b.construct
	b.mu.Unlock()

	return b.loader.create(trigger, construct, snapshot)
}

// Factory adapts the builder into a scope factory, so a lazy service plugs
// into the scope's provider mechanism like any other binding:
//
//	root.Singleton("reports", reports.Factory())
func (b *Builder) Factory() scope.Factory {
	return func(*scope.Scope) any { return b.Build() }
}
