// Package server wires the HTTP server, DefraDB container, and background
// task runner into one lifecycle.
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

	"github.com/lectern/lectern/internal/api"
	"github.com/lectern/lectern/internal/auth"
	"github.com/lectern/lectern/internal/config"
	"github.com/lectern/lectern/internal/defra"
	"github.com/lectern/lectern/internal/enrich"
	"github.com/lectern/lectern/internal/library"
	"github.com/lectern/lectern/internal/providers"
	"github.com/lectern/lectern/internal/schema"
	"github.com/lectern/lectern/internal/server/endpoints"
	"github.com/lectern/lectern/internal/svcctx"
	"github.com/lectern/lectern/internal/tasks"
	"github.com/lectern/lectern/internal/users"
)

// Server is the main Lectern HTTP server.
// It manages the DefraDB container lifecycle - starting it on server start
// and stopping it on server shutdown - unless pointed at an external node.
type Server struct {
	httpServer   *http.Server
	defraManager *defra.DockerManager
	defraURL     string
	defraClient  *defra.Client
	authService  *auth.Service
	llm          providers.LLMClient
	taskRunner   *tasks.Runner
	configMgr    *config.Manager
	logger       *slog.Logger

	// services holds all core services for context enrichment
	services *svcctx.Services

	// endpoints registry for HTTP routes
	endpointRegistry *api.Registry

	ready bool

	mu      sync.RWMutex
	running bool
}

// Config holds server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1)
	Host string
	// Port is the port to listen on (default: 8080)
	Port string
	// DefraDataPath is the path to persist DefraDB data
	DefraDataPath string
	// ConfigManager provides configuration with hot-reload support (required)
	ConfigManager *config.Manager
	// LLM overrides the configured client (used in tests)
	LLM providers.LLMClient
	// Logger is the structured logger to use
	Logger *slog.Logger
}

// New creates a new Server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.ConfigManager == nil {
		return nil, errors.New("config manager is required")
	}

	appCfg := cfg.ConfigManager.Get()
	if cfg.Port == "" {
		cfg.Port = strconv.Itoa(appCfg.Server.Port)
	}

	authService, err := auth.NewService(auth.Config{
		Secret: appCfg.ResolvedJWTSecret(),
		TTL:    time.Duration(appCfg.Auth.TokenTTLHours) * time.Hour,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create auth service: %w", err)
	}

	llm := cfg.LLM
	if llm == nil {
		llm = providers.NewOpenAIClient(providers.OpenAIConfig{
			APIKey:       appCfg.ResolvedAPIKey(),
			BaseURL:      appCfg.LLM.BaseURL,
			DefaultModel: appCfg.LLM.FastModel,
			MaxRetries:   appCfg.LLM.MaxRetries,
		})
	}

	s := &Server{
		authService: authService,
		llm:         llm,
		configMgr:   cfg.ConfigManager,
		logger:      cfg.Logger,
	}

	// External DefraDB skips container management entirely.
	if appCfg.Defra.URL != "" {
		s.defraURL = appCfg.Defra.URL
	} else {
		s.defraManager, err = defra.NewDockerManager(defra.DockerConfig{
			ContainerName: appCfg.Defra.ContainerName,
			Image:         appCfg.Defra.Image,
			HostPort:      appCfg.Defra.Port,
			DataPath:      cfg.DefraDataPath,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create defra manager: %w", err)
		}
	}

	// Create endpoint registry and register all endpoints
	s.endpointRegistry = api.NewRegistry()
	for _, ep := range endpoints.All(endpoints.Config{DefraManager: s.defraManager}) {
		s.endpointRegistry.Register(ep)
	}

	// Set up HTTP server
	mux := http.NewServeMux()
	s.endpointRegistry.RegisterRoutes(mux, s.requireInit)

	handler := s.withServices(auth.Middleware(authService)(mux))
	s.httpServer = &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute, // Genre classification runs inside a request
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// Start starts the server, DefraDB, and the task runner.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	if s.defraManager != nil {
		// Validate any existing container matches our config
		if err := s.defraManager.ValidateExisting(ctx); err != nil {
			s.setNotRunning()
			return fmt.Errorf("existing DefraDB container incompatible: %w", err)
		}

		s.logger.Info("starting DefraDB")
		if err := s.defraManager.Start(ctx); err != nil {
			s.setNotRunning()
			return fmt.Errorf("failed to start DefraDB: %w", err)
		}
		s.defraURL = s.defraManager.URL()
	}

	s.defraClient = defra.NewClient(s.defraURL)

	// Verify DefraDB is healthy
	if err := s.defraClient.HealthCheck(ctx); err != nil {
		_ = s.shutdown()
		return fmt.Errorf("DefraDB health check failed: %w", err)
	}
	s.logger.Info("DefraDB is ready", "url", s.defraURL)

	// Initialize schemas
	s.logger.Info("initializing schemas")
	if err := schema.Initialize(ctx, s.defraClient, s.logger); err != nil {
		_ = s.shutdown()
		return fmt.Errorf("schema initialization failed: %w", err)
	}

	appCfg := s.configMgr.Get()

	libStore := library.NewStore(s.defraClient, s.logger)
	userStore := users.NewStore(s.defraClient, s.logger)
	enricher := enrich.New(s.llm, libStore, enrich.Config{
		FastModel:  appCfg.LLM.FastModel,
		SmartModel: appCfg.LLM.SmartModel,
	}, s.logger)
	s.configMgr.OnChange(func(cfg *config.Config) {
		enricher.UpdateConfig(enrich.Config{
			FastModel:  cfg.LLM.FastModel,
			SmartModel: cfg.LLM.SmartModel,
		})
		s.logger.Info("reloaded model configuration",
			"fast_model", cfg.LLM.FastModel, "smart_model", cfg.LLM.SmartModel)
	})

	taskManager := tasks.NewManager(s.defraClient, s.logger)
	s.taskRunner = tasks.NewRunner(taskManager, tasks.RunnerConfig{
		Workers:   appCfg.Tasks.Workers,
		QueueSize: appCfg.Tasks.QueueSize,
	}, s.logger)

	runnerCtx, cancelRunner := context.WithCancel(context.Background())
	defer cancelRunner()
	s.taskRunner.Start(runnerCtx)

	s.services = &svcctx.Services{
		DefraClient: s.defraClient,
		Library:     libStore,
		Users:       userStore,
		Auth:        s.authService,
		LLM:         s.llm,
		Enricher:    enricher,
		TaskRunner:  s.taskRunner,
		TaskManager: taskManager,
		Config:      s.configMgr,
		Logger:      s.logger,
	}
	s.ready = true

	// Start HTTP server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			_ = s.shutdown()
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	cancelRunner()
	s.taskRunner.Wait()
	return s.shutdown()
}

// shutdown performs graceful shutdown of the HTTP server and DefraDB.
func (s *Server) shutdown() error {
	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	if s.defraManager != nil {
		s.logger.Info("stopping DefraDB")
		if err := s.defraManager.Stop(shutdownCtx); err != nil {
			s.logger.Error("DefraDB stop error", "error", err)
		}
		if err := s.defraManager.Close(); err != nil {
			s.logger.Error("DefraDB manager close error", "error", err)
		}
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

// DefraClient returns the DefraDB client.
// Returns nil if the server hasn't started yet.
func (s *Server) DefraClient() *defra.Client {
	return s.defraClient
}

// Addr returns the server's listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
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

// requireInit is middleware that ensures the server is fully initialized.
// Returns 503 Service Unavailable if DefraDB or the task runner aren't ready.
func (s *Server) requireInit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.ready {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":"server not fully initialized"}`))
			return
		}
		next(w, r)
	}
}
