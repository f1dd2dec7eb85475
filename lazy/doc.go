// Package lazy provides transparent lazy instantiation for services living
// in an injection scope — an Angular-style lazy-service layer for Go.
//
// A consumer receives a Surrogate immediately; the real (possibly expensive)
// implementation is constructed later, according to a trigger policy:
//
//   - OnInjection — construct as soon as the surrogate is produced (default)
//   - OnAccess    — construct on first use of a declared-safe member, or Load
//   - Explicit    — construct only via Loader.Load
//
// # Creating a lazy service
//
//	root   := scope.New()
//	loader := lazy.NewLoader(root)
//
//	reports := loader.NewBuilder(func(ctx *lazy.Context) (*lazy.Result, error) {
//	    return lazy.FromInstance(ctx, func(s *scope.Scope) any {
//	        return NewReportService()
//	    })
//	}).
//	    CreateOn(lazy.OnAccess).
//	    MarkSafeMethod("Generate", lazy.Promise).
//	    MarkSafeProperty("Updates", lazy.Observable).
//	    MarkSafeMethod("Warm", lazy.Void)
//
//	sur := reports.Build()
//
// # Using the surrogate
//
// Members declared safe are usable before the implementation exists; they
// come back in deferred form and settle after construction:
//
//	d, _ := sur.Get("Generate")                   // func(...any) *lazy.Deferred[any]
//	out, err := d.(func(...any) *lazy.Deferred[any])("q4").Await(ctx)
//
// Undeclared members forward to the real instance once it is ready and fail
// with ServiceNotReady before that:
//
//	v, err := sur.Get("Summary")
//
// # Loader service
//
//	err := loader.Load(ctx, sur)     // begin + await construction
//	ok  := loader.IsReady(sur)       // settled, success or failure
//	err  = loader.WhenReady(ctx, sur) // await settlement, failure folded in
//	loader.Destroy(sur)
//
// Construction happens at most once per surrogate, no matter how many
// triggers race. A failed construction settles the surrogate permanently:
// IsReady reports true and every unsafe access replays the failure.
//
// # Construction closures
//
// Closures receive the ambient injection Context and must return a Result
// built by one of three creator strategies: FromInstance (one unit in a
// fresh child scope), FromModule (load a module, extract a token), or
// FromScope (build a scope from bindings, extract a token). Each Result
// carries the teardown releasing the resources used to build it.
package lazy
