package webserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tejzpr/helpdesk/internal/config"
	"github.com/tejzpr/helpdesk/internal/manager"
	"github.com/tejzpr/helpdesk/internal/wire"
)

const shutdownGrace = 10 * time.Second

// Server is the helpdesk HTTP API.
type Server struct {
	desk    *manager.Desk
	cfg     *config.Config
	log     *slog.Logger
	metrics *metrics

	handlerOnce sync.Once
	handler     http.Handler

	closing   chan struct{}
	closeOnce sync.Once
}

func New(desk *manager.Desk, cfg *config.Config, log *slog.Logger) *Server {
	return &Server{
		desk:    desk,
		cfg:     cfg,
		log:     log,
		metrics: newMetrics(),
		closing: make(chan struct{}),
	}
}

// Handler returns the routed API. It is built once.
func (s *Server) Handler() http.Handler {
	s.handlerOnce.Do(func() {
		s.handler = s.routes()
	})
	return s.handler
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.middleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/health", handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))
	r.Get("/api/events", s.handleEvents)

	r.Route("/v1/issue_requesters", func(r chi.Router) {
		r.Get("/find_all", s.findAllRequesters)
		r.Get("/find_all_by_full_name/{fullName}", s.findRequestersByFullName)
		r.Get("/find_all_by_email/{email}", s.findRequestersByEmail)
		r.Put("/toggle_activation/{id}", s.toggleRequesterActivation)
		r.Delete("/delete/{id}", s.deleteRequester)
		r.Post("/save", s.saveRequester)
		r.Get("/{id}", s.getRequester)
	})

	r.Route("/v1/issue_requests", func(r chi.Router) {
		r.Get("/find_all", s.findAllRequests)
		r.Get("/find_all/{requesterId}", s.findRequestsByRequester)
		r.Get("/find_all_solved", s.findRequestsBySolvedWindow)
		r.Get("/find_all_solved/{isSolved}", s.findRequestsBySolvedFlag)
		r.Put("/solve/{id}", s.solveRequest)
		r.Delete("/delete/{id}", s.deleteRequest)
		r.Post("/save", s.saveRequest)
		r.Get("/{id}", s.getRequest)
	})

	r.Route("/v1/issue_responses", func(r chi.Router) {
		r.Get("/find_all", s.findAllResponses)
		r.Get("/find_all_by_requester/{requesterId}", s.findResponsesByRequester)
		r.Get("/find_all_by_request/{requestId}", s.findResponsesByRequest)
		r.Delete("/delete/{id}", s.deleteResponse)
		r.Post("/save", s.saveResponse)
		r.Get("/{id}", s.getResponse)
	})

	return r
}

// ListenAndServe binds the configured address and serves until ctx ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Server.Addr())
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Server.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx ends, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  time.Duration(s.cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(s.cfg.Server.WriteTimeoutSeconds) * time.Second,
	}
	srv.RegisterOnShutdown(func() {
		s.closeOnce.Do(func() { close(s.closing) })
	})

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		s.log.Info("http server shutting down")
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeBody(w, r, http.StatusOK, map[string]string{"status": wire.HealthOK})
}

// accessLog logs one line per request after it completes.
func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
