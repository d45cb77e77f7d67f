package server

import (
	"log/slog"
	"net/http"

	"github.com/claude/liftplan/internal/ingest/csvplan"
	"github.com/claude/liftplan/internal/storage"
	"github.com/go-chi/chi/v5"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	db     *storage.DB
	csv    *csvplan.Provider
	log    *slog.Logger
	apiKey string
	router chi.Router
	ts     WhoisClient
}

// New creates a new Server with all routes configured.
func New(db *storage.DB, csvProvider *csvplan.Provider, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		db:     db,
		csv:    csvProvider,
		log:    log,
		apiKey: apiKey,
		router: chi.NewRouter(),
	}
	s.routes()
	return s
}

// SetTailscale enables tailnet identity resolution. Until it is called
// every request runs as the local dev user.
func (s *Server) SetTailscale(ts WhoisClient) {
	s.ts = ts
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)
	s.router.Use(s.identity)

	// Ingest and write endpoints (API key required)
	s.router.Group(func(r chi.Router) {
		r.Use(APIKeyAuth(s.apiKey))
		r.Post("/api/v1/ingest/plan", s.handleIngestPlan)
		r.Post("/api/v1/ingest/outcomes", s.handleIngestOutcomes)
		r.Post("/api/v1/exercises", s.handleCreateExercise)
		r.Post("/api/v1/exercises/{name}/outcome", s.handleRecordOutcome)
		r.Delete("/api/v1/exercises/{name}", s.handleDeleteExercise)
	})

	// Read endpoints (no auth — tsnet handles access)
	s.router.Get("/api/v1/me", s.handleMe)
	s.router.Get("/api/v1/exercises", s.handleListExercises)
	s.router.Get("/api/v1/exercises/{name}", s.handleGetExercise)
	s.router.Get("/api/v1/exercises/{name}/next", s.handlePlanNext)
	s.router.Get("/api/v1/exercises/{name}/history", s.handleHistory)
	s.router.Get("/api/v1/stats", s.handleStats)
}
