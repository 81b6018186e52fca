// Package server exposes the dashboard HTTP API.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/algae-foundation/teacher-analytics/internal/analytics"
	"github.com/algae-foundation/teacher-analytics/internal/config"
	"github.com/algae-foundation/teacher-analytics/internal/ingest"
	"github.com/algae-foundation/teacher-analytics/internal/session"
	"github.com/algae-foundation/teacher-analytics/internal/store"
)

// Server serves the dashboard API: login, dataset reads, roster uploads,
// and exports.
type Server struct {
	cfg      config.ServerConfig
	store    store.Store
	pipeline *ingest.Pipeline
	cache    *analytics.Cache
	auth     *session.Authenticator
}

// New creates a Server.
func New(cfg config.ServerConfig, st store.Store, p *ingest.Pipeline) *Server {
	return &Server{
		cfg:      cfg,
		store:    st,
		pipeline: p,
		cache:    analytics.NewCache(st),
		auth: session.New(cfg.Password, []byte(cfg.JWTSecret),
			time.Duration(cfg.TokenTTLHours)*time.Hour),
	}
}

// Handler builds the route tree.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	origins := s.cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/auth/login", s.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(s.auth.Middleware)
		r.Get("/api/records", s.handleRecords)
		r.Get("/api/summary", s.handleSummary)
		r.Post("/api/upload", s.handleUpload)
		r.Get("/api/export", s.handleExport)
		r.Get("/api/report.pdf", s.handleReport)
	})

	return r
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	zap.L().Info("starting server", zap.Int("port", s.cfg.Port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return eris.Wrap(err, "server: listen")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
