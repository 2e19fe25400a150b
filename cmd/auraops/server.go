package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/auraops/auraops/internal/core/catalog"
	corenginx "github.com/auraops/auraops/internal/core/nginx"
	"github.com/auraops/auraops/internal/shell/api"
	"github.com/auraops/auraops/internal/shell/build"
	"github.com/auraops/auraops/internal/shell/certs"
	"github.com/auraops/auraops/internal/shell/deploy"
	"github.com/auraops/auraops/internal/shell/docker"
	"github.com/auraops/auraops/internal/shell/nginx"
	"github.com/auraops/auraops/internal/shell/services"
	"github.com/auraops/auraops/internal/shell/store"
	"github.com/auraops/auraops/internal/shell/workers"
)

// =============================================================================
// Exit Codes
// =============================================================================

const (
	ExitSuccess         = 0
	ExitConfigError     = 1
	ExitDatabaseError   = 2
	ExitDockerError     = 3
	ExitHTTPServerError = 4
)

// ServerError carries an exit code alongside the failing operation.
type ServerError struct {
	Op       string
	Err      error
	ExitCode int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServerError) Unwrap() error {
	return e.Err
}

// =============================================================================
// Server
// =============================================================================

// Server represents the orchestrator application server.
type Server struct {
	config      *Config
	httpServer  *http.Server
	store       store.Store
	docker      docker.Client
	certRenewer *workers.CertRenewer
	logger      *slog.Logger
}

// NewServer creates a new server with the given config.
func NewServer(cfg *Config, logger *slog.Logger) (*Server, error) {
	// Connect to database
	s, err := store.NewSQLiteStore(cfg.Database.DSN)
	if err != nil {
		return nil, &ServerError{
			Op:       "NewServer",
			Err:      err,
			ExitCode: ExitDatabaseError,
		}
	}

	// Connect to Docker
	d, err := docker.NewSDKClient(cfg.Docker.Host)
	if err != nil {
		s.Close()
		return nil, &ServerError{
			Op:       "NewServer",
			Err:      err,
			ExitCode: ExitDockerError,
		}
	}

	// Verify Docker connection
	if err := d.Ping(context.Background()); err != nil {
		s.Close()
		d.Close()
		return nil, &ServerError{
			Op:       "NewServer",
			Err:      err,
			ExitCode: ExitDockerError,
		}
	}

	// Wire the deployment stack
	registry := catalog.NewRegistry()
	configurator := nginx.New(d, cfg.Proxy.ConfigDir, cfg.Proxy.StaticRoot, logger)
	pipeline := build.NewPipeline(d, cfg.Proxy.StaticRoot, logger)
	serviceDeployer := services.NewDeployer(d, registry, logger)
	dispatcher := deploy.NewDispatcher(d, configurator, pipeline, serviceDeployer, logger)
	certManager := certs.New(cfg.Certs.Email, logger)

	// Certificate renewal sweep
	certRenewer := workers.NewCertRenewer(s, certManager, configurator, workers.CertRenewerConfig{
		Interval: cfg.Certs.RenewInterval,
	}, logger)

	// Wildcard subdomain routing for <project>.<base domain>
	if cfg.Proxy.BaseDomain != "" {
		if err := configurator.WriteWildcard(context.Background(), cfg.Proxy.BaseDomain, cfg.Proxy.AppPort); err != nil {
			logger.Warn("failed to write wildcard config", "error", err)
		}
	}

	// Management vhost: API path prefix to the orchestrator, everything
	// else serves the front-end
	if cfg.Proxy.PlatformDomain != "" {
		err := configurator.WritePlatform(context.Background(), corenginx.PlatformParams{
			ServerName:  cfg.Proxy.PlatformDomain,
			APIUpstream: cfg.Proxy.APIUpstream,
			FrontendDir: cfg.Proxy.FrontendDir,
		})
		if err != nil {
			logger.Warn("failed to write platform config", "error", err)
		}
	}

	// Create HTTP handler
	handler := api.NewHandler(s, d, dispatcher, configurator, certManager, registry, logger)

	// Create HTTP server
	httpServer := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      handler.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return &Server{
		config:      cfg,
		httpServer:  httpServer,
		store:       s,
		docker:      d,
		certRenewer: certRenewer,
		logger:      logger,
	}, nil
}

// Start starts the server and blocks until shutdown.
func (s *Server) Start(ctx context.Context) error {
	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Start certificate renewal worker
	s.certRenewer.Start()

	// Start HTTP server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server",
			"address", s.config.Server.Address())
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case sig := <-sigCh:
		s.logger.Info("received shutdown signal", "signal", sig)
	case err := <-errCh:
		return &ServerError{
			Op:       "Start",
			Err:      err,
			ExitCode: ExitHTTPServerError,
		}
	case <-ctx.Done():
		s.logger.Info("context cancelled")
	}

	return s.Shutdown(context.Background())
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("initiating graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.Server.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	s.certRenewer.Stop()

	if err := s.docker.Close(); err != nil {
		s.logger.Error("docker client close error", "error", err)
	}
	if err := s.store.Close(); err != nil {
		s.logger.Error("store close error", "error", err)
	}

	s.logger.Info("shutdown complete")
	return nil
}
