package scope

// ── Module ────────────────────────────────────────────────────────────────────

// Module is a bundle of bindings loadable into a scope — the counterpart of
// an Angular NgModule's provider list, or a Laravel service provider's
// Register phase.
//
//	type ReportModule struct{}
//
//	func (ReportModule) Register(s *scope.Scope) {
//	    s.Singleton("reports", func(s *scope.Scope) any { return NewReportService() })
//	}
type Module interface {
	// Register binds services into the scope. It must not resolve tokens;
	// resolution happens after the module is fully loaded.
	Register(s *Scope)
}

// ModuleFunc adapts a plain function into a Module.
type ModuleFunc func(s *Scope)

func (f ModuleFunc) Register(s *Scope) { f(s) }

// Load registers every module's bindings into the scope, in order.
// Later modules win on token collisions.
func Load(s *Scope, modules ...Module) {
	for _, m := range modules {
		m.Register(s)
	}
}
