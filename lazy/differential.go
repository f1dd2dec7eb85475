package lazy

import "sync"

// Determinant computes the run-time value that selects among registered
// construction closures. It runs fresh for every surrogate's construction,
// so different scopes (a test, a feature flag cohort) can take different
// branches.
type Determinant func(ctx *Context) (any, error)

// DifferentialBuilder layers implementation selection on top of Builder:
// at construction time the determinant is evaluated once and the matching
// closure runs. With no match and no default, construction fails with an
// UnexpectedDeterminantError carrying the offending value.
//
//	payments := loader.NewDifferentialBuilder(func(ctx *lazy.Context) (any, error) {
//	    return ctx.Resolve("payment.provider")
//	}).
//	    SetImplementation("stripe", buildStripe).
//	    SetImplementation("mollie", buildMollie).
//	    SetDefault(buildSandbox)
type DifferentialBuilder struct {
	*Builder

	mu          sync.Mutex
	determinant Determinant
	impls       map[any]Closure
	fallback    Closure
}

// NewDifferentialBuilder creates a differential builder driven by the given
// determinant function.
func (l *Loader) NewDifferentialBuilder(determinant Determinant) *DifferentialBuilder {
	d := &DifferentialBuilder{
		determinant: determinant,
		impls:       make(map[any]Closure),
	}
	d.Builder = l.NewBuilder(d.choose)
	return d
}

// SetImplementation registers a closure for a determinant value. A later
// registration for the same value overwrites the former.
func (d *DifferentialBuilder) SetImplementation(determinant any, construct Closure) *DifferentialBuilder {
	d.mu.Lock()
	d.impls[determinant] = construct
	d.mu.Unlock()
	return d
}

// SetDefault registers the fallback closure used when no registered
// determinant value matches.
func (d *DifferentialBuilder) SetDefault(construct Closure) *DifferentialBuilder {
	d.mu.Lock()
	d.fallback = construct
	d.mu.Unlock()
	return d
}

// CreateOn overwrites the configured trigger.
func (d *DifferentialBuilder) CreateOn(t Trigger) *DifferentialBuilder {
	d.Builder.CreateOn(t)
	return d
}

// MarkSafeProperty declares a safe property, as on Builder.
func (d *DifferentialBuilder) MarkSafeProperty(name string, shape Shape) *DifferentialBuilder {
	d.Builder.MarkSafeProperty(name, shape)
	return d
}

// MarkSafeMethod declares a safe method, as on Builder.
func (d *DifferentialBuilder) MarkSafeMethod(name string, shape Shape) *DifferentialBuilder {
	d.Builder.MarkSafeMethod(name, shape)
	return d
}

// choose is the construction closure handed to the embedded Builder.
func (d *DifferentialBuilder) choose(ctx *Context) (*Result, error) {
	key, err := d.determinant(ctx)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	construct, ok := d.impls[key]
	if !ok {
		construct = d.fallback
	}
	d.mu.Unlock()

	if construct == nil {
		return nil, UnexpectedDeterminantError{Determinant: key}
	}
	return construct(ctx)
}
