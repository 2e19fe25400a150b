package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/auraops/auraops/internal/shell/store"
)

// =============================================================================
// Webhook Deploy Trigger
// =============================================================================

// handleWebhookDeploy triggers a deploy for the project owning the token.
// Possession of the token is the only credential, so unknown tokens answer
// 404 without further detail. The request is acknowledged before the deploy
// runs; CI callers should not wait on it.
func (h *Handler) handleWebhookDeploy(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if token == "" {
		h.writeError(w, http.StatusNotFound, "not found")
		return
	}

	p, err := h.store.GetProjectByToken(r.Context(), token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "not found")
			return
		}
		h.logger.Error("webhook lookup failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.logger.Info("webhook deploy triggered", "project_id", p.ID)
	h.startDeploy(p.ID)

	h.writeJSON(w, http.StatusAccepted, map[string]any{
		"status":  "accepted",
		"project": p.Name,
		"message": "deployment started",
	})
}
