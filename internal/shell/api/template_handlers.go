package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/auraops/auraops/internal/core/catalog"
)

// =============================================================================
// Service Template Handlers
// =============================================================================

func (h *Handler) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	h.writeJSON(w, http.StatusOK, map[string]any{
		"templates": h.registry.List(category),
	})
}

func (h *Handler) handleListCategories(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"categories": h.registry.Categories(),
	})
}

func (h *Handler) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	serviceType := chi.URLParam(r, "type")

	tmpl, err := h.registry.Get(serviceType)
	if err != nil {
		if errors.Is(err, catalog.ErrUnknownServiceType) {
			h.writeError(w, http.StatusNotFound, "unknown service type")
			return
		}
		h.writeError(w, http.StatusInternalServerError, "failed to load template")
		return
	}

	h.writeJSON(w, http.StatusOK, tmpl)
}
