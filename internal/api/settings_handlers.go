package api

import (
	"encoding/json"
	"net/http"

	"github.com/pathlight/mailbroker/internal/service/settings"
)

// GetSettings returns the stored settings for the owner, with credential
// values masked.
//
//	GET /api/settings
func (h *Handlers) GetSettings(w http.ResponseWriter, r *http.Request) {
	stored, err := h.settings.Stored(r.Context(), ownerFrom(r))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"settings": settings.MaskSecrets(stored),
	})
}

// UpdateSettingsRequest is the body of PUT /api/settings. An empty value
// deletes the stored key.
type UpdateSettingsRequest struct {
	Settings map[string]string `json:"settings"`
}

// UpdateSettings writes a batch of settings for the owner.
//
//	PUT /api/settings
func (h *Handlers) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Settings) == 0 {
		respondError(w, http.StatusBadRequest, "settings is required")
		return
	}

	if err := h.settings.Update(r.Context(), ownerFrom(r), req.Settings); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}
