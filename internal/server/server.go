// Package server wires every HTTP surface of the service onto one chi
// router with shared middleware.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	assethandlers "marketpulse/internal/modules/assets/handlers"
	watchlisthandlers "marketpulse/internal/modules/watchlist/handlers"
)

// Config holds server configuration
type Config struct {
	Port    int
	DevMode bool
	Log     zerolog.Logger

	AssetHandlers     *assethandlers.AssetHandlers
	WatchlistHandlers *watchlisthandlers.WatchlistHandlers
	NewsHandlers      *NewsHandlers
	SystemHandlers    *SystemHandlers
	AdminHandlers     *AdminHandlers
}

// Server represents the HTTP server
type Server struct {
	router *chi.Mux
	server *http.Server
	log    zerolog.Logger
	cfg    Config
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router: chi.NewRouter(),
		log:    cfg.Log.With().Str("component", "server").Logger(),
		cfg:    cfg,
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-User-ID"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/assets", func(r chi.Router) {
			r.Get("/", s.cfg.AssetHandlers.HandleList)
			r.Get("/{symbol}", s.cfg.AssetHandlers.HandleDetail)
			r.Get("/{symbol}/history", s.cfg.AssetHandlers.HandleHistory)
			r.Get("/{symbol}/price", s.cfg.AssetHandlers.HandlePrice)
		})

		r.Get("/prices/{symbol}/history", s.cfg.AssetHandlers.HandlePriceHistory)

		r.Route("/news", func(r chi.Router) {
			r.Get("/", s.cfg.NewsHandlers.HandleCountryNews)
			r.Get("/top-headlines", s.cfg.NewsHandlers.HandleTopHeadlines)
		})

		r.Get("/market/summary", s.cfg.NewsHandlers.HandleMarketSummary)

		r.Route("/watchlist", func(r chi.Router) {
			r.Get("/", s.cfg.WatchlistHandlers.HandleList)
			r.Post("/", s.cfg.WatchlistHandlers.HandleAdd)
			r.Delete("/{symbol}", s.cfg.WatchlistHandlers.HandleRemove)
		})

		r.Route("/system", func(r chi.Router) {
			r.Get("/status", s.cfg.SystemHandlers.HandleSystemStatus)
		})

		if s.cfg.AdminHandlers != nil {
			r.Route("/admin", func(r chi.Router) {
				r.Post("/seed", s.cfg.AdminHandlers.HandleSeed)
				r.Post("/sample", s.cfg.AdminHandlers.HandleSample)
			})
		}
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// Router exposes the underlying router. Used by tests.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
