package server

import (
	"log/slog"
	"net/http"

	"github.com/claude/liveset/internal/engine"
	"github.com/go-chi/chi/v5"
)

// Options configure authentication and identity.
type Options struct {
	APIKey string

	// DevUserID and DevLogin identify every request when WhoIs is nil.
	DevUserID int
	DevLogin  string

	// WhoIs and ResolveUser identify tailnet peers when serving over tsnet.
	WhoIs       WhoIser
	ResolveUser UserResolver
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	svc    *engine.Service
	log    *slog.Logger
	opts   Options
	router chi.Router
}

// New creates a new Server with all routes configured.
func New(svc *engine.Service, opts Options, log *slog.Logger) *Server {
	s := &Server{
		svc:    svc,
		log:    log,
		opts:   opts,
		router: chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Mount attaches an additional handler (the MCP endpoint) behind the same
// authentication and identity middleware as the REST API.
func (s *Server) Mount(pattern string, h http.Handler) {
	s.router.Group(func(r chi.Router) {
		s.authenticate(r)
		r.Mount(pattern, h)
	})
}

func (s *Server) authenticate(r chi.Router) {
	if s.opts.WhoIs != nil {
		r.Use(TailscaleIdentity(s.opts.WhoIs, s.opts.ResolveUser, s.log))
		return
	}
	r.Use(APIKeyAuth(s.opts.APIKey))
	r.Use(DevIdentity(s.opts.DevUserID, s.opts.DevLogin))
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	s.router.Route("/api/v1", func(r chi.Router) {
		s.authenticate(r)

		r.Get("/me", s.handleMe)

		r.Route("/session", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Patch("/", s.handleUpdateWorkout)
			r.Post("/start", s.handleStartWorkout)
			r.Post("/finish", s.handleFinish)
			r.Post("/discard", s.handleDiscard)
			r.Post("/background", s.handleBackground)
			r.Post("/foreground", s.handleForeground)

			r.Post("/rest/start", s.handleStartRest)
			r.Post("/rest/reset", s.handleResetRest)

			r.Post("/exercises", s.handleAddExercise)
			r.Post("/exercises/reorder", s.handleReorderExercises)
			r.Delete("/exercises/{exerciseID}", s.handleRemoveExercise)
			r.Post("/exercises/{exerciseID}/sets", s.handleAddSet)
			r.Delete("/exercises/{exerciseID}/sets", s.handleRemoveSet)
			r.Patch("/exercises/{exerciseID}/sets/{index}", s.handleUpdateSet)
		})

		r.Get("/templates/{id}", s.handleGetTemplate)
		r.Get("/exercises", s.handleListExercises)
		r.Get("/workouts", s.handleRecentWorkouts)
		r.Get("/stats", s.handleStats)
	})
}
