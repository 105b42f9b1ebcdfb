/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for a browser front end

ROUTE GROUPS:
  /api/flows, /api/resolve, /api/benefit   Reference lookups
  /api/sessions/*                          Sessions, walks, summaries
  /api/scenarios/*                         Demo scenarios
  /metrics                                 Prometheus (when configured)
  /*                                       Static files or an index page

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterConfig holds the optional parts of the router.
type RouterConfig struct {
	// AllowedOrigins feeds CORS. Empty allows none.
	AllowedOrigins []string

	// Metrics is mounted at /metrics when non-nil.
	Metrics http.Handler

	// StaticDir is served at / when it exists.
	StaticDir string
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/flows", h.ListFlows)
		r.Get("/resolve", h.Resolve)
		r.Get("/benefit", h.Benefit)

		// Session routes
		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", h.ListSessions)
			r.Post("/", h.CreateSession)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetSession)
				r.Delete("/", h.DeleteSession)
				r.Put("/injury-date", h.ChangeInjuryDate)
				r.Get("/summary", h.Summary)
				r.Delete("/ratings/{rid}", h.RemoveRating)

				// Walk routes
				r.Route("/flow", func(r chi.Router) {
					r.Get("/", h.CurrentStep)
					r.Post("/", h.StartFlow)
					r.Post("/answer", h.Answer)
					r.Post("/back", h.Back)
					r.Post("/cancel", h.CancelFlow)
					r.Post("/accept", h.AcceptResult)
					r.Post("/discard", h.DiscardResult)
				})
			})
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Post("/load", h.LoadScenario)
		})
	})

	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics)
	}

	if cfg.StaticDir != "" {
		if _, err := os.Stat(cfg.StaticDir); err == nil {
			fileServer := http.FileServer(http.Dir(cfg.StaticDir))
			r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
				fullPath := filepath.Join(cfg.StaticDir, filepath.Clean(r.URL.Path))

				// SPA routing: unknown paths get index.html
				if _, err := os.Stat(fullPath); os.IsNotExist(err) {
					http.ServeFile(w, r, filepath.Join(cfg.StaticDir, "index.html"))
					return
				}
				fileServer.ServeHTTP(w, r)
			})
			return r
		}
	}

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>PPD Rating Engine</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>PPD Rating Engine API</h1>
<h2>API Endpoints</h2>
<ul>
<li><a href="/api/flows">/api/flows</a> - Registered flows</li>
<li><a href="/api/resolve?date=2024-03-15">/api/resolve?date=</a> - Schedule and benefit table for a date</li>
<li><a href="/api/sessions">/api/sessions</a> - Rating sessions</li>
<li><a href="/api/scenarios">/api/scenarios</a> - Demo scenarios</li>
</ul>
</body>
</html>`))
	})

	return r
}
