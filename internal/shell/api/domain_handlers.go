package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/auraops/auraops/internal/core/project"
	"github.com/auraops/auraops/internal/shell/certs"
	"github.com/auraops/auraops/internal/shell/store"
)

// =============================================================================
// Domain Management Handlers
// =============================================================================

// AttachDomainRequest is the attach request body.
type AttachDomainRequest struct {
	Domain string `json:"domain"`
}

// DomainView is a domain in list responses, annotated with whether its
// certificate is currently good.
type DomainView struct {
	project.Domain
	SSLValid bool `json:"ssl_valid"`
}

func (h *Handler) handleListDomains(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadProject(w, r)
	if !ok {
		return
	}

	domains, err := h.store.ListDomains(r.Context(), p.ID)
	if err != nil {
		h.logger.Error("failed to list domains", "project_id", p.ID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list domains")
		return
	}

	now := time.Now().UTC()
	views := make([]DomainView, 0, len(domains))
	for _, d := range domains {
		views = append(views, DomainView{Domain: d, SSLValid: d.SSLValid(now)})
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"domains": views})
}

func (h *Handler) handleAttachDomain(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadProject(w, r)
	if !ok {
		return
	}

	var req AttachDomainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	hostname := strings.ToLower(strings.TrimSpace(req.Domain))
	if hostname == "" || !strings.Contains(hostname, ".") {
		h.writeError(w, http.StatusBadRequest, "invalid domain name")
		return
	}

	// A hostname routes to exactly one project, whichever owns it.
	if existing, err := h.store.GetDomainByName(r.Context(), hostname); err == nil {
		if existing.ProjectID == p.ID {
			h.writeError(w, http.StatusConflict, "domain is already attached")
		} else {
			h.writeError(w, http.StatusConflict, "domain is attached to another project")
		}
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		h.logger.Error("failed to check domain", "domain", hostname, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to attach domain")
		return
	}

	d := &project.Domain{
		ProjectID: p.ID,
		Domain:    hostname,
		IsActive:  true,
	}
	if err := h.store.CreateDomain(r.Context(), d); err != nil {
		if errors.Is(err, store.ErrDuplicateDomain) {
			h.writeError(w, http.StatusConflict, "domain is already attached")
			return
		}
		h.logger.Error("failed to attach domain", "project_id", p.ID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to attach domain")
		return
	}

	// Route the hostname immediately; TLS comes later via the ssl endpoint.
	if err := h.proxy.WriteConfig(r.Context(), p, d); err != nil {
		h.logger.Warn("proxy config update failed", "project_id", p.ID, "error", err)
	}

	h.writeJSON(w, http.StatusCreated, d)
}

func (h *Handler) handleDetachDomain(w http.ResponseWriter, r *http.Request) {
	p, d, ok := h.loadDomain(w, r)
	if !ok {
		return
	}

	if d.SSLEnabled {
		if err := h.certs.Revoke(r.Context(), d); err != nil {
			h.logger.Warn("certificate revocation failed on detach", "domain", d.Domain, "error", err)
		}
	}

	if err := h.store.DeleteDomain(r.Context(), d.ID); err != nil {
		h.logger.Error("failed to detach domain", "domain_id", d.ID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to detach domain")
		return
	}

	// Fall back to a config without this hostname.
	remaining, err := h.store.ActiveDomain(r.Context(), p.ID)
	if err != nil {
		h.logger.Warn("failed to load remaining domain", "project_id", p.ID, "error", err)
	}
	if err := h.proxy.WriteConfig(r.Context(), p, remaining); err != nil {
		h.logger.Warn("proxy config update failed", "project_id", p.ID, "error", err)
	}

	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Certificate Handlers
// =============================================================================

func (h *Handler) handleIssueCertificate(w http.ResponseWriter, r *http.Request) {
	p, d, ok := h.loadDomain(w, r)
	if !ok {
		return
	}

	if err := h.certs.Issue(r.Context(), d); err != nil {
		if errors.Is(err, certs.ErrWildcardDomain) {
			h.writeJSON(w, http.StatusBadRequest, h.certs.WildcardGuide(d.Domain))
			return
		}
		h.writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	if err := h.store.UpdateDomain(r.Context(), d); err != nil {
		h.logger.Error("failed to persist certificate state", "domain_id", d.ID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "certificate issued but not persisted")
		return
	}

	// Regenerate with the TLS server block now that the cert exists.
	if err := h.proxy.WriteConfig(r.Context(), p, d); err != nil {
		h.logger.Warn("proxy config update failed", "project_id", p.ID, "error", err)
	}

	h.writeJSON(w, http.StatusOK, d)
}

func (h *Handler) handleRevokeCertificate(w http.ResponseWriter, r *http.Request) {
	p, d, ok := h.loadDomain(w, r)
	if !ok {
		return
	}

	if err := h.certs.Revoke(r.Context(), d); err != nil {
		h.writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	if err := h.store.UpdateDomain(r.Context(), d); err != nil {
		h.logger.Error("failed to persist certificate state", "domain_id", d.ID, "error", err)
	}

	// Regenerate without the TLS server block.
	if err := h.proxy.WriteConfig(r.Context(), p, d); err != nil {
		h.logger.Warn("proxy config update failed", "project_id", p.ID, "error", err)
	}

	h.writeJSON(w, http.StatusOK, d)
}

func (h *Handler) handleWildcardGuide(w http.ResponseWriter, r *http.Request) {
	domain := r.URL.Query().Get("domain")
	if domain == "" {
		h.writeError(w, http.StatusBadRequest, "domain query parameter is required")
		return
	}
	h.writeJSON(w, http.StatusOK, h.certs.WildcardGuide(domain))
}

// =============================================================================
// Helpers
// =============================================================================

// loadDomain resolves the {id} and {domainID} route parameters, verifying
// the domain belongs to the project.
func (h *Handler) loadDomain(w http.ResponseWriter, r *http.Request) (*project.Project, *project.Domain, bool) {
	p, ok := h.loadProject(w, r)
	if !ok {
		return nil, nil, false
	}

	domainID, err := strconv.ParseInt(chi.URLParam(r, "domainID"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid domain id")
		return nil, nil, false
	}

	d, err := h.store.GetDomain(r.Context(), domainID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "domain not found")
			return nil, nil, false
		}
		h.logger.Error("failed to load domain", "domain_id", domainID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to load domain")
		return nil, nil, false
	}
	if d.ProjectID != p.ID {
		h.writeError(w, http.StatusNotFound, "domain not found")
		return nil, nil, false
	}

	return p, d, true
}
