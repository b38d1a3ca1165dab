package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/doortwin/internal/panel"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	if s.metrics != nil {
		r.Use(s.metricsMiddleware)
	}
	r.Use(s.bodySizeLimitMiddleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeNotFound(w, "no such route")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrCodeMethodNotAllow, "method not allowed")
	})

	// Control page (embedded via go:embed)
	ui := panel.Handler(s.panelDir)
	r.Get("/", ui.ServeHTTP)
	r.Get("/assets/*", ui.ServeHTTP)

	r.Get("/health", s.handleHealth)

	r.Post("/api/lock", s.handleLock)
	r.Post("/api/unlock", s.handleUnlock)
	r.Get("/api/state", s.handleState)

	r.Get(s.wsCfg.Path, s.handleWebSocket)

	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	return r
}
