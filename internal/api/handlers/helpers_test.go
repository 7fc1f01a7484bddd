package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/parleybot/parley/internal/domain/conversation"
	"github.com/parleybot/parley/internal/domain/models"
	"github.com/parleybot/parley/internal/domain/relay"
	"github.com/parleybot/parley/internal/infra/llm"
)

// stubProvider returns a canned completion (or error) for every call.
type stubProvider struct {
	completion llm.Completion
	err        error
}

func (s *stubProvider) Complete(_ context.Context, _ llm.CompletionRequest) (*llm.Completion, error) {
	if s.err != nil {
		return nil, s.err
	}
	c := s.completion
	return &c, nil
}

// newRelayFixtures builds a real pipeline on top of the stub provider.
func newRelayFixtures(t *testing.T, provider llm.CompletionProvider) (*conversation.Store, *relay.Pipeline, *models.Registry) {
	t.Helper()

	store := conversation.NewStore(10)
	registry, err := models.NewRegistry(models.DefaultCatalog(), "deepseek-chat")
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return store, relay.NewPipeline(store, provider, registry, relay.DefaultConfig()), registry
}

// withURLParam injects a chi route parameter the way the router would.
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
