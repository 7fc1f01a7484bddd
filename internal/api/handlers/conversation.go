package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/parleybot/parley/internal/domain/conversation"
	"github.com/parleybot/parley/internal/domain/relay"
)

// ConversationHandler serves the relay and history endpoints.
type ConversationHandler struct {
	store    *conversation.Store
	pipeline *relay.Pipeline
}

// NewConversationHandler creates a new ConversationHandler instance.
func NewConversationHandler(store *conversation.Store, pipeline *relay.Pipeline) *ConversationHandler {
	return &ConversationHandler{
		store:    store,
		pipeline: pipeline,
	}
}

// PostMessageRequest is the request body for relaying a message.
type PostMessageRequest struct {
	Text string `json:"text"`
}

// PostMessageResponse carries the rendered reply, chunked for delivery.
type PostMessageResponse struct {
	Chunks    []string `json:"chunks"`
	Persisted bool     `json:"persisted"`
}

// HistoryResponse is the response body for history reads.
type HistoryResponse struct {
	Key   string              `json:"key"`
	Turns []conversation.Turn `json:"turns"`
}

// PostMessage handles POST /api/v1/conversations/{key}/messages.
// Upstream failures still answer 200: the diagnostic rides in chunks with
// persisted=false, same contract the chat gateway gets.
func (h *ConversationHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if key == "" {
		writeError(w, http.StatusBadRequest, "conversation key is required")
		return
	}

	var req PostMessageRequest
	if decodeErr := json.NewDecoder(r.Body).Decode(&req); decodeErr != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	chunks, persisted := h.pipeline.Complete(r.Context(), conversation.Key(key), req.Text)
	if chunks == nil {
		chunks = []string{}
	}

	writeJSON(w, http.StatusOK, PostMessageResponse{Chunks: chunks, Persisted: persisted})
}

// GetHistory handles GET /api/v1/conversations/{key}/history.
// Reading never registers a conversation; unknown keys are 404.
func (h *ConversationHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if key == "" {
		writeError(w, http.StatusBadRequest, "conversation key is required")
		return
	}

	turns, ok := h.store.History(conversation.Key(key))
	if !ok {
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	}
	if turns == nil {
		turns = []conversation.Turn{}
	}

	writeJSON(w, http.StatusOK, HistoryResponse{Key: key, Turns: turns})
}

// ClearHistory handles DELETE /api/v1/conversations/{key}/history.
func (h *ConversationHandler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if key == "" {
		writeError(w, http.StatusBadRequest, "conversation key is required")
		return
	}

	cleared := h.store.Clear(conversation.Key(key))
	writeJSON(w, http.StatusOK, map[string]bool{"cleared": cleared})
}

// RemoveConversation handles DELETE /api/v1/conversations/{key}.
func (h *ConversationHandler) RemoveConversation(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if key == "" {
		writeError(w, http.StatusBadRequest, "conversation key is required")
		return
	}

	h.store.Remove(conversation.Key(key))
	w.WriteHeader(http.StatusNoContent)
}
