package handlers

import (
	"fmt"
	"net/http"

	"github.com/parleybot/parley/internal/domain/archive"
)

// ArchiveHandler serves the transcript and usage endpoints.
type ArchiveHandler struct {
	archive *archive.Service
}

// NewArchiveHandler creates a new ArchiveHandler instance.
func NewArchiveHandler(svc *archive.Service) *ArchiveHandler {
	return &ArchiveHandler{archive: svc}
}

// ListTranscriptsResponse is the response body for transcript listings.
type ListTranscriptsResponse struct {
	Data []*archive.Transcript `json:"data"`
	Meta Meta                  `json:"meta"`
}

// UsageResponse is the response body for per-model usage aggregates.
type UsageResponse struct {
	Data []*archive.ModelUsage `json:"data"`
}

// ListTranscripts handles GET /api/v1/transcripts?key=&limit=&offset=.
func (h *ArchiveHandler) ListTranscripts(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		writeError(w, http.StatusBadRequest, "key query parameter is required")
		return
	}

	p := parsePaginationParams(r)
	items, total, err := h.archive.ListByKey(r.Context(), key, p.Limit, p.Offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list transcripts: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, ListTranscriptsResponse{
		Data: items,
		Meta: Meta{Total: total, Limit: p.Limit, Offset: p.Offset},
	})
}

// GetUsage handles GET /api/v1/usage.
func (h *ArchiveHandler) GetUsage(w http.ResponseWriter, r *http.Request) {
	rows, err := h.archive.UsageByModel(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to aggregate usage: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, UsageResponse{Data: rows})
}
