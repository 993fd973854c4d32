// Package devserver is an in-memory Content Service for local development
// and tests. It serves the REST API, the push endpoint and a simulated
// generator that walks every job through its statuses.
package devserver

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/vrsandeep/contentsync-go/internal/models"
	"github.com/vrsandeep/contentsync-go/internal/pushserver"
)

// Options configures a Server.
type Options struct {
	// Token, when set, is required as bearer token on REST calls and as
	// token query parameter on the push endpoint.
	Token string
	// StepDelay is the time the generator spends in each job status.
	StepDelay time.Duration
	// Quiet disables request logging.
	Quiet bool
}

// Server holds the content records and the push hub.
type Server struct {
	hub       *pushserver.Hub
	token     string
	stepDelay time.Duration
	quiet     bool

	mu       sync.Mutex
	contents map[string]*models.Content
	order    []string          // newest first
	jobs     map[string]string // job id -> content id
	seq      map[string]uint64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer creates a Server publishing job updates to hub.
func NewServer(hub *pushserver.Hub, opts Options) *Server {
	if opts.StepDelay <= 0 {
		opts.StepDelay = 2 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		hub:       hub,
		token:     opts.Token,
		stepDelay: opts.StepDelay,
		quiet:     opts.Quiet,
		contents:  make(map[string]*models.Content),
		jobs:      make(map[string]string),
		seq:       make(map[string]uint64),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Close stops all running generator jobs and waits for them.
func (s *Server) Close() {
	s.cancel()
	s.wg.Wait()
}

// Router sets up and returns the main router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if !s.quiet {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Group(func(r chi.Router) {
			r.Use(s.AuthMiddleware)

			r.Post("/content", s.handleCreateContent)
			r.Get("/content", s.handleListContent)
			r.Get("/content/job/{jobID}/status", s.handleGetJobStatus)
			r.Get("/content/{contentID}", s.handleGetContent)
			r.Put("/content/{contentID}", s.handleUpdateContent)
			r.Post("/content/{contentID}/rollback", s.handleRollbackContent)
			r.Delete("/content/{contentID}", s.handleDeleteContent)
		})
	})

	r.Get("/ws", s.hub.Handler(s.token))

	return r
}
