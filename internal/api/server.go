package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/videre-project/asi-worker/internal/api/handlers"
	"github.com/videre-project/asi-worker/internal/api/response"
	"github.com/videre-project/asi-worker/internal/api/websocket"
	"github.com/videre-project/asi-worker/internal/config"
	"github.com/videre-project/asi-worker/internal/events"
	"github.com/videre-project/asi-worker/internal/logging"
)

// Server represents the REST API server that fronts the bigram store's
// scoring engine.
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	port       int

	wsHub      *websocket.Hub
	dispatcher *events.EventDispatcher
	logger     *logging.Logger

	asiHandler *handlers.ASIHandler
	rateLimit  *rate.Limiter
}

// Config holds configuration for the API server's HTTP concerns.
type Config struct {
	Port int
}

// DefaultConfig returns the default API server configuration.
func DefaultConfig() *Config {
	return &Config{Port: 8080}
}

// NewServer creates a new API server wired against store, which must
// satisfy handlers.BigramLookup, and cfg, the worker's full configuration.
func NewServer(cfg *Config, appConfig *config.Config, store handlers.BigramLookup, logger *logging.Logger, dispatcher *events.EventDispatcher) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	wsHub := websocket.NewHub()
	dispatcher.Register(websocket.NewWebSocketObserver(wsHub))

	s := &Server{
		router:     chi.NewRouter(),
		port:       cfg.Port,
		wsHub:      wsHub,
		dispatcher: dispatcher,
		logger:     logger,
		asiHandler: handlers.NewASIHandler(store, appConfig, logger, dispatcher),
		rateLimit:  rate.NewLimiter(rate.Limit(appConfig.Server.RateLimit.RequestsPerSecond), appConfig.Server.RateLimit.Burst),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*", "https://localhost:*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	s.router.Use(s.jsonContentTypeMiddleware)
}

// jsonContentTypeMiddleware enforces application/json content-type for
// requests with bodies.
func (s *Server) jsonContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if r.ContentLength == 0 {
				next.ServeHTTP(w, r)
				return
			}
			contentType := r.Header.Get("Content-Type")
			if contentType == "" || (contentType != "application/json" && !strings.HasPrefix(contentType, "application/json;")) {
				http.Error(w, "Content-Type must be application/json", http.StatusUnsupportedMediaType)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// rateLimitMiddleware rejects requests once the inbound token bucket is
// exhausted, mirroring the teacher's outbound rate.Limiter use against
// Scryfall but applied to inbound traffic.
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.rateLimit.Allow() {
			response.Tagged(w, http.StatusTooManyRequests, "Rate Limited", "Too many requests; slow down.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Start starts the API server in a goroutine.
func (s *Server) Start() error {
	go s.wsHub.Run()

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		s.logger.Info("API server starting on port %d", s.port)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("API server error: %v", err)
		}
	}()

	return nil
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.logger.Info("shutting down API server")
	return s.httpServer.Shutdown(ctx)
}

// Port returns the port the server is configured to listen on.
func (s *Server) Port() int {
	return s.port
}

// WebSocketHub returns the WebSocket hub for external integration.
func (s *Server) WebSocketHub() *websocket.Hub {
	return s.wsHub
}
