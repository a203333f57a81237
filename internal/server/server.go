package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/jackzampolin/pdfx/internal/api"
	"github.com/jackzampolin/pdfx/internal/config"
	"github.com/jackzampolin/pdfx/internal/server/endpoints"
	"github.com/jackzampolin/pdfx/internal/svcctx"
)

// Server is the pdfx HTTP server.
type Server struct {
	httpServer *http.Server
	configMgr  *config.Manager
	logger     *slog.Logger

	// services holds all core services for context enrichment
	services *svcctx.Services

	// endpoints registry for HTTP routes
	endpointRegistry *api.Registry

	mu      sync.RWMutex
	running bool
}

// Config holds server configuration.
type Config struct {
	// Host is the address to bind to (default: 0.0.0.0)
	Host string
	// Port is the port to listen on (default: 8000)
	Port string
	// MaxUploadBytes limits request bodies (default: 32 MiB)
	MaxUploadBytes int64
	// ConfigManager provides configuration with hot-reload support
	ConfigManager *config.Manager
	// Services overrides the services built from ConfigManager. Tests use
	// it to inject a mock LLM.
	Services *svcctx.Services
	// Logger is the structured logger to use
	Logger *slog.Logger
}

// New creates a new Server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	if cfg.ConfigManager != nil {
		sc := cfg.ConfigManager.Get().Server
		if cfg.Host == "" {
			cfg.Host = sc.Host
		}
		if cfg.Port == "" && sc.Port > 0 {
			cfg.Port = strconv.Itoa(sc.Port)
		}
		if cfg.MaxUploadBytes <= 0 {
			cfg.MaxUploadBytes = sc.MaxUploadBytes
		}
	}
	if cfg.Host == "" {
		cfg.Host = "0.0.0.0"
	}
	if cfg.Port == "" {
		cfg.Port = "8000"
	}

	services := cfg.Services
	if services == nil {
		if cfg.ConfigManager == nil {
			return nil, errors.New("config manager or services required")
		}
		var err error
		services, err = svcctx.Build(cfg.ConfigManager, cfg.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to build services: %w", err)
		}
	}
	if services.Logger == nil {
		services.Logger = cfg.Logger
	}

	s := &Server{
		configMgr: cfg.ConfigManager,
		logger:    cfg.Logger,
		services:  services,
	}

	// Create endpoint registry and register all endpoints
	s.endpointRegistry = api.NewRegistry()
	s.endpointRegistry.Register(endpoints.All(endpoints.Config{
		MaxUploadBytes: cfg.MaxUploadBytes,
	})...)

	mux := http.NewServeMux()
	s.endpointRegistry.RegisterRoutes(mux, s.requireInit)

	s.httpServer = &http.Server{
		Addr:        net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:     s.withServices(mux),
		ReadTimeout: 2 * time.Minute,
		// Batches run serially and can take many LLM round trips.
		WriteTimeout: 30 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// Start serves HTTP until the context is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	if s.configMgr != nil && s.configMgr.ConfigFileUsed() != "" {
		s.configMgr.WatchConfig()
		s.logger.Info("watching config", "path", s.configMgr.ConfigFileUsed())
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			s.setNotRunning()
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	return s.shutdown()
}

// shutdown drains in-flight requests.
func (s *Server) shutdown() error {
	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	s.setNotRunning()
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) setNotRunning() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// IsRunning returns whether the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Addr returns the server's listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Services returns the services shared by all handlers.
func (s *Server) Services() *svcctx.Services {
	return s.services
}

// Handler returns the root handler, for use with httptest.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// withServices wraps a handler to enrich the request context with services.
func (s *Server) withServices(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if s.services != nil {
			ctx = svcctx.WithServices(ctx, s.services)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireInit is middleware that ensures the extraction services are wired.
// Returns 503 Service Unavailable otherwise.
func (s *Server) requireInit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.services == nil || s.services.Extraction == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":"server not fully initialized"}`))
			return
		}
		next(w, r)
	}
}
