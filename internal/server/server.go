package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/selimcan/tagsense/internal/config"
	"github.com/selimcan/tagsense/internal/engine"
)

// Server exposes the engine over a local HTTP API, plus a websocket
// stream of tag-change events for GUI clients.
type Server struct {
	cfg        config.ServerConfig
	engine     *engine.Engine
	router     chi.Router
	httpServer *http.Server
	hub        *eventHub
}

func New(cfg config.ServerConfig, e *engine.Engine) *Server {
	s := &Server{
		cfg:    cfg,
		engine: e,
		hub:    newEventHub(),
	}
	e.Tags.Subscribe(s.hub.broadcast)
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAllOrigins {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/tags", s.handleListTags)
		r.Post("/tags", s.handleCreateTag)
		r.Patch("/tags/{id}", s.handleUpdateTag)
		r.Delete("/tags/{id}", s.handleDeleteTag)

		r.Get("/files/tags", s.handleFileTags)
		r.Post("/files/tags", s.handleTagFile)
		r.Delete("/files/tags", s.handleUntagFile)
		r.Delete("/files", s.handleRemoveFile)
		r.Get("/files/suggestions", s.handleSuggestions)

		r.Post("/search/tags", s.handleTagSearch)
		r.Post("/search/semantic", s.handleSemanticSearch)

		r.Post("/index", s.handleIndex)
		r.Post("/reindex", s.handleReindex)

		r.Get("/events", s.handleEvents)
	})

	return r
}

// Router returns the chi router, mainly for tests.
func (s *Server) Router() chi.Router { return s.router }

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("tagsense server listening on %s", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server and closes event streams.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.close()
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
