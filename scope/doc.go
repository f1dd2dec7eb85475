// Package scope provides destroyable, hierarchical injection scopes.
//
// A Scope is the small slice of a dependency-injection container that the
// lazy layer consumes: register a binding, resolve a token, spawn a child
// scope, tear everything down. It deliberately omits the heavier container
// features (tags, decoration, contextual bindings) — the lazy loader only
// needs a place to build services in and a destroy cascade to hook into.
//
// # Scopes
//
//	root := scope.New()
//	root.Singleton("db", func(s *scope.Scope) any { return openDB() })
//
//	child := root.Child(
//	    scope.ProvideValue("tenant", "acme"),
//	)
//	db, err := child.Make("db")       // resolved through the parent
//	tenant, err := child.Make("tenant")
//
// # Teardown
//
//	child.OnDestroy(func() { conn.Close() })
//	child.Destroy()   // children first, callbacks LIFO
//	root.Destroy()    // cascades to any remaining children
//
// # Modules
//
// A Module groups bindings so a whole feature can be loaded into a fresh
// scope in one call:
//
//	scope.Load(child, ReportModule{})
package scope
