package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/parleybot/parley/internal/domain/models"
)

// ModelsHandler serves the catalog and active-model endpoints.
type ModelsHandler struct {
	registry *models.Registry
}

// NewModelsHandler creates a new ModelsHandler instance.
func NewModelsHandler(registry *models.Registry) *ModelsHandler {
	return &ModelsHandler{registry: registry}
}

// ListModelsResponse is the response body for the catalog listing.
type ListModelsResponse struct {
	Data   []models.Model `json:"data"`
	Active string         `json:"active"`
}

// SetActiveModelRequest is the request body for switching the active model.
type SetActiveModelRequest struct {
	ID string `json:"id"`
}

// ListModels handles GET /api/v1/models.
func (h *ModelsHandler) ListModels(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, ListModelsResponse{
		Data:   h.registry.List(),
		Active: h.registry.Active().ID,
	})
}

// SetActive handles PUT /api/v1/models/active.
func (h *ModelsHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	var req SetActiveModelRequest
	if decodeErr := json.NewDecoder(r.Body).Decode(&req); decodeErr != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := h.registry.SetActive(req.ID); err != nil {
		if errors.Is(err, models.ErrUnknownModel) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("unknown model %q", req.ID))
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to switch model")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"active": req.ID})
}
