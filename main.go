package main

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/bgotink/go-lazy/app"
	"github.com/bgotink/go-lazy/lazy"
	"github.com/bgotink/go-lazy/scope"
)

// ReportService is the demo's expensive service: it only exists once its
// surrogate has been triggered.
type ReportService struct {
	Summary string

	generated atomic.Int64
	updates   *lazy.Emitter
}

func NewReportService() *ReportService {
	// Pretend this pulls in a heavy dependency graph.
	time.Sleep(50 * time.Millisecond)
	return &ReportService{
		Summary: "no reports generated yet",
		updates: lazy.NewEmitter(),
	}
}

// Generate builds a report; declared safe in Promise shape so it can be
// called before the service exists.
func (r *ReportService) Generate(topic string) string {
	n := r.generated.Add(1)
	r.Summary = topic
	r.updates.Emit(topic)
	return topic + " (report #" + strconv.FormatInt(n, 10) + ")"
}

// Warm pre-computes caches; declared safe in Void shape.
func (r *ReportService) Warm(region string) {
	r.updates.Emit("warmed " + region)
}

// Updates streams generated report topics; declared safe in Observable shape.
func (r *ReportService) Updates() lazy.Stream { return r.updates }

func (r *ReportService) OnDestroy() { r.Summary = "" }

func main() {
	application := app.New() // loads .env automatically
	defer application.Shutdown()

	// ── Register the lazy report service ─────────────────────────────────────

	reports := application.Loader.NewBuilder(func(ctx *lazy.Context) (*lazy.Result, error) {
		return lazy.FromInstance(ctx, func(s *scope.Scope) any {
			return NewReportService()
		})
	}).
		CreateOn(lazy.OnAccess).
		MarkSafeMethod("Generate", lazy.Promise).
		MarkSafeMethod("Updates", lazy.Observable).
		MarkSafeMethod("Warm", lazy.Void)

	application.Scope.Singleton("reports", reports.Factory())

	sur, err := scope.Resolve[*lazy.Surrogate](application.Scope, "reports")
	if err != nil {
		application.Log.Fatal().Err(err).Msg("resolving reports surrogate")
	}

	// ── Routes ───────────────────────────────────────────────────────────────

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api/v1/reports", func(api chi.Router) {

		// Readiness probe: false until a safe member is touched or /load runs.
		api.Get("/ready", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{
				"ready":      application.Loader.IsReady(sur),
				"surrogates": application.Loader.Count(),
			})
		})

		// Explicitly construct the service and wait for it.
		api.Post("/load", func(w http.ResponseWriter, req *http.Request) {
			if err := application.Loader.Load(req.Context(), sur); err != nil {
				writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"ready": true})
		})

		// Safe promise-shaped call: usable before readiness, triggers OnAccess.
		api.Post("/generate", func(w http.ResponseWriter, req *http.Request) {
			topic := req.URL.Query().Get("topic")
			out, err := sur.Invoke("Generate", topic)
			if err != nil {
				writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
				return
			}
			report, err := out.(*lazy.Deferred[any]).Await(req.Context())
			if err != nil {
				writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
				return
			}
			writeJSON(w, http.StatusCreated, map[string]any{"report": report})
		})

		// Safe void-shaped call: fire and forget, even pre-readiness.
		api.Post("/warm", func(w http.ResponseWriter, req *http.Request) {
			if _, err := sur.Invoke("Warm", req.URL.Query().Get("region")); err != nil {
				writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
				return
			}
			writeJSON(w, http.StatusAccepted, map[string]any{"queued": true})
		})

		// Unsafe member: 409 until the service has been constructed.
		api.Get("/summary", func(w http.ResponseWriter, req *http.Request) {
			v, err := sur.Get("Summary")
			if err != nil {
				writeJSON(w, http.StatusConflict, map[string]any{"error": err.Error()})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"summary": v})
		})
	})

	application.Run(r)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
