package app

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/bgotink/go-lazy/config"
	"github.com/bgotink/go-lazy/lazy"
	"github.com/bgotink/go-lazy/logging"
	"github.com/bgotink/go-lazy/scope"
)

// Application is the top-level kernel: it wires the configuration, the root
// injection scope, the lazy loader and the logger together, and can serve an
// HTTP handler for demo or application use.
type Application struct {
	Config *config.Config
	Log    zerolog.Logger
	Scope  *scope.Scope
	Loader *lazy.Loader
}

// New bootstraps the application.
//
//	application := app.New() // loads .env automatically
//	sur := application.Loader.NewBuilder(buildSvc).Build()
func New(envFiles ...string) *Application {
	cfg := config.Load(envFiles...)
	log := logging.NewWithLevel("app", cfg.Lazy.LogLevel)

	root := scope.New()
	loader := lazy.NewLoader(root,
		lazy.WithLogger(logging.NewWithLevel("lazy", cfg.Lazy.LogLevel)),
		lazy.WithDebug(cfg.IsDebug()),
	)

	root.Instance("config", cfg)
	root.Instance("loader", loader)

	return &Application{
		Config: cfg,
		Log:    log,
		Scope:  root,
		Loader: loader,
	}
}

// Shutdown destroys the root scope, cascading to every registered surrogate.
func (a *Application) Shutdown() {
	a.Scope.Destroy()
}

// Run starts the HTTP server on APP_PORT (default 8000).
func (a *Application) Run(handler http.Handler) {
	addr := ":" + a.Config.App.Port
	a.Log.Info().
		Str("name", a.Config.App.Name).
		Str("env", a.Config.App.Env).
		Str("addr", addr).
		Msg("listening")

	if err := http.ListenAndServe(addr, handler); err != nil {
		a.Log.Fatal().Err(err).Msg("server error")
	}
}

// Environment returns the APP_ENV value.
func (a *Application) Environment() string { return a.Config.App.Env }
func (a *Application) IsLocal() bool       { return a.Environment() == "local" }
func (a *Application) IsProduction() bool  { return a.Config.IsProduction() }
