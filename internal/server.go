package internal

import (
	"context"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/taskdeck/taskdeck/internal/config"
	"github.com/taskdeck/taskdeck/internal/identity"
	"github.com/taskdeck/taskdeck/internal/task"
	"github.com/taskdeck/taskdeck/pkg/cerr"
	"github.com/taskdeck/taskdeck/pkg/clog"
)

type Server struct {
	server     *http.Server
	env        *config.Env
	taskServer *task.Server
	verifier   *identity.Verifier
}

func NewServer(env *config.Env, taskServer *task.Server, verifier *identity.Verifier) *Server {
	return &Server{
		env:        env,
		taskServer: taskServer,
		verifier:   verifier,
	}
}

// Handler builds the complete HTTP handler: CORS, request logging, JSON
// response shaping, token verification and the task routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Use(
			clog.SlogChiMiddleware(),
			cerr.NewJSONResponseChiMiddleware(),
			s.verifier.Middleware(),
		)
		r.Post("/tasks", s.taskServer.CreateTask)
		r.Get("/tasks", s.taskServer.ListTasks)
		r.Put("/tasks/{taskId}", s.taskServer.UpdateTask)
		r.Delete("/tasks/{taskId}", s.taskServer.DeleteTask)
		r.NotFound(func(_ http.ResponseWriter, r *http.Request) {
			cerr.SetNewJSONError(r.Context(), cerr.NotFound, "not found", nil)
		})
	})

	mux := http.NewServeMux()
	mux.Handle("/health", &HealthChecker{})
	mux.Handle("/api/", r)

	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	}).Handler(mux)
}

// ListenAndServe starts the HTTP server. The provided context is used as
// the base context for all incoming requests, so cancelling it (e.g. on a
// shutdown signal) also cancels in-flight request contexts.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := net.JoinHostPort(s.env.HTTPHost, s.env.HTTPPort)
	slog.Info("starting server", "addr", addr)

	s.server = &http.Server{
		Addr:        addr,
		Handler:     h2c.NewHandler(s.Handler(), &http2.Server{}),
		BaseContext: func(_ net.Listener) context.Context { return ctx },
	}
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

type HealthChecker struct{}

func (hc *HealthChecker) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}
