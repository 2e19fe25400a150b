// Package api provides HTTP handlers for the orchestrator API.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/auraops/auraops/internal/core/catalog"
	"github.com/auraops/auraops/internal/core/project"
	"github.com/auraops/auraops/internal/shell/certs"
	"github.com/auraops/auraops/internal/shell/docker"
	"github.com/auraops/auraops/internal/shell/store"
)

// =============================================================================
// Collaborator Interfaces
// =============================================================================

// Deployer is the deployment entry point the API drives.
type Deployer interface {
	Deploy(ctx context.Context, p *project.Project, d *project.Domain) project.Result
	Stop(ctx context.Context, p *project.Project) project.Result
	Remove(ctx context.Context, p *project.Project, removeVolumes bool) project.Result
	ContainerStatus(ctx context.Context, p *project.Project) (string, error)
}

// ProxyConfigurator updates reverse proxy configuration when domains change.
type ProxyConfigurator interface {
	WriteConfig(ctx context.Context, p *project.Project, d *project.Domain) error
	DeleteConfig(ctx context.Context, projectID int64) error
}

// CertManager drives certificate lifecycle for attached domains.
type CertManager interface {
	Issue(ctx context.Context, d *project.Domain) error
	Revoke(ctx context.Context, d *project.Domain) error
	WildcardGuide(baseDomain string) certs.WildcardInstructions
}

// =============================================================================
// Handler
// =============================================================================

// Handler provides HTTP handlers for the API.
type Handler struct {
	store    store.Store
	docker   docker.Client
	deployer Deployer
	proxy    ProxyConfigurator
	certs    CertManager
	registry *catalog.Registry
	logger   *slog.Logger
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, d docker.Client, deployer Deployer, proxy ProxyConfigurator, cm CertManager, registry *catalog.Registry, l *slog.Logger) *Handler {
	if l == nil {
		l = slog.Default()
	}
	return &Handler{
		store:    s,
		docker:   d,
		deployer: deployer,
		proxy:    proxy,
		certs:    cm,
		registry: registry,
		logger:   l.With("component", "api"),
	}
}

// Routes returns the router with all routes configured.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(h.jsonContentType)
	r.Use(h.requestIDHeader)

	// Health endpoints
	r.Get("/health", h.handleHealth)
	r.Get("/ready", h.handleReady)

	// Webhook deploy trigger; the token is the only credential.
	r.Post("/webhooks/deploy/{token}", h.handleWebhookDeploy)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/projects", func(r chi.Router) {
			r.Post("/", h.handleCreateProject)
			r.Get("/", h.handleListProjects)
			r.Get("/{id}", h.handleGetProject)
			r.Put("/{id}", h.handleUpdateProject)
			r.Delete("/{id}", h.handleDeleteProject)
			r.Post("/{id}/deploy", h.handleDeployProject)
			r.Post("/{id}/stop", h.handleStopProject)
			r.Get("/{id}/status", h.handleProjectStatus)
			r.Get("/{id}/logs", h.handleProjectLogs)

			r.Route("/{id}/domains", func(r chi.Router) {
				r.Get("/", h.handleListDomains)
				r.Post("/", h.handleAttachDomain)
				r.Delete("/{domainID}", h.handleDetachDomain)
				r.Post("/{domainID}/ssl", h.handleIssueCertificate)
				r.Delete("/{domainID}/ssl", h.handleRevokeCertificate)
			})
		})

		r.Route("/templates", func(r chi.Router) {
			r.Get("/", h.handleListTemplates)
			r.Get("/categories", h.handleListCategories)
			r.Get("/{type}", h.handleGetTemplate)
		})

		r.Get("/build/suggestions", h.handleBuildSuggestions)
		r.Get("/ssl/wildcard-guide", h.handleWildcardGuide)
	})

	return r
}

// =============================================================================
// Middleware
// =============================================================================

// jsonContentType sets Content-Type header to application/json.
func (h *Handler) jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// requestIDHeader copies the request ID to the response header.
func (h *Handler) requestIDHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reqID := middleware.GetReqID(r.Context()); reqID != "" {
			w.Header().Set("X-Request-ID", reqID)
		}
		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// Health Handlers
// =============================================================================

// HealthResponse is the health check response.
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadyResponse is the readiness check response.
type ReadyResponse struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, HealthResponse{Status: "healthy"})
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := h.docker.Ping(r.Context()); err != nil {
		h.writeJSON(w, http.StatusServiceUnavailable, ReadyResponse{
			Status: "not ready",
			Reason: "container runtime unreachable",
		})
		return
	}
	h.writeJSON(w, http.StatusOK, ReadyResponse{Status: "ready"})
}

// =============================================================================
// Response Helpers
// =============================================================================

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode JSON", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, ErrorResponse{Error: message})
}
