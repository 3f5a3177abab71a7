package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vector76/news_server/internal/articles"
	"github.com/vector76/news_server/internal/store"
)

// Config holds the server configuration.
type Config struct {
	Port       int
	// AdminToken, when set, is required as a bearer token for /clean.
	AdminToken string
	Version    string
	Logger     *slog.Logger
}

// Server is the HTTP server for the news site.
type Server struct {
	Router  *chi.Mux
	store   store.Backend
	library *articles.Library
	config  Config
	log     *slog.Logger
}

// New creates a new Server serving comments from b and documents from lib.
func New(cfg Config, b store.Backend, lib *articles.Library) (*Server, error) {
	if b == nil {
		return nil, fmt.Errorf("comment store must not be nil")
	}
	if lib == nil {
		return nil, fmt.Errorf("article library must not be nil")
	}
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	srv := &Server{
		Router:  chi.NewRouter(),
		store:   b,
		library: lib,
		config:  cfg,
		log:     log,
	}

	srv.Router.Use(srv.requestID)
	srv.Router.Use(srv.instrument)
	srv.Router.Use(middleware.Recoverer)

	srv.Router.Get("/", srv.handleIndex)
	srv.Router.Get("/articles/total", srv.handleTotalArticles)

	srv.Router.Get("/article/{id}/comments/total", srv.handleTotalComments)
	srv.Router.Get("/article/{id}/comments/add", srv.handleAddComment)
	srv.Router.Post("/article/{id}/comments/add", srv.handleAddComment)
	srv.Router.Get("/article/{id}/comments/{seq}", srv.handleGetComment)
	srv.Router.Get("/article/{id}/comments/{seq}/html", srv.handleGetCommentHTML)
	srv.Router.Get("/article/{id}/width", srv.handleWidth)
	// Anything else under /article is a static document.
	srv.Router.Get("/article/*", srv.handleDocument)

	srv.Router.Group(func(r chi.Router) {
		r.Use(srv.adminMiddleware)
		r.Get("/clean", srv.handleCleanComments)
	})

	srv.Router.Get("/api/v1/health", srv.handleHealth)
	srv.Router.Get("/api/v1/version", srv.handleVersion)
	srv.Router.Handle("/metrics", promhttp.Handler())

	return srv, nil
}

// ListenAddr returns the address the server should listen on.
func (s *Server) ListenAddr() string {
	return fmt.Sprintf(":%d", s.config.Port)
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleVersion reports the server build version.
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	version := s.config.Version
	if version == "" {
		version = "dev"
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"version": version})
}
