package models

import (
	"errors"
	"testing"
)

func TestNewRegistry_ActivatesRequestedModel(t *testing.T) {
	t.Parallel()

	r, err := NewRegistry(DefaultCatalog(), "deepseek-reasoner")
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}
	if got := r.Active(); got.ID != "deepseek-reasoner" || !got.Reasoner {
		t.Errorf("unexpected active model: %+v", got)
	}
}

func TestNewRegistry_UnknownActiveFallsBack(t *testing.T) {
	t.Parallel()

	r, err := NewRegistry(DefaultCatalog(), "gpt-definitely-not")
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}
	if got := r.Active(); got.ID != "deepseek-chat" {
		t.Errorf("expected fallback to first catalog entry, got %q", got.ID)
	}
}

func TestNewRegistry_EmptyCatalog(t *testing.T) {
	t.Parallel()

	if _, err := NewRegistry(nil, "deepseek-chat"); err == nil {
		t.Fatal("expected error for empty catalog")
	}
}

func TestNewRegistry_DuplicateID(t *testing.T) {
	t.Parallel()

	catalog := []Model{{ID: "a"}, {ID: "a"}}
	if _, err := NewRegistry(catalog, "a"); err == nil {
		t.Fatal("expected error for duplicate id")
	}
}

func TestSetActive(t *testing.T) {
	t.Parallel()

	r, err := NewRegistry(DefaultCatalog(), DefaultModelID)
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	if err := r.SetActive("deepseek-coder"); err != nil {
		t.Fatalf("SetActive failed: %v", err)
	}
	if got := r.Active().ID; got != "deepseek-coder" {
		t.Errorf("expected 'deepseek-coder' active, got %q", got)
	}

	err = r.SetActive("nope")
	if !errors.Is(err, ErrUnknownModel) {
		t.Errorf("expected ErrUnknownModel, got %v", err)
	}
	if got := r.Active().ID; got != "deepseek-coder" {
		t.Errorf("failed switch must not change the active model, got %q", got)
	}
}

func TestList_PreservesCatalogOrder(t *testing.T) {
	t.Parallel()

	r, err := NewRegistry(DefaultCatalog(), DefaultModelID)
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	got := r.List()
	want := []string{"deepseek-chat", "deepseek-coder", "deepseek-reasoner"}
	if len(got) != len(want) {
		t.Fatalf("expected %d models, got %d", len(want), len(got))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("position %d: expected %q, got %q", i, id, got[i].ID)
		}
	}
}

func TestGet(t *testing.T) {
	t.Parallel()

	r, err := NewRegistry(DefaultCatalog(), DefaultModelID)
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	m, ok := r.Get("deepseek-reasoner")
	if !ok || !m.Reasoner {
		t.Errorf("expected reasoner model, got %+v (ok=%v)", m, ok)
	}
	if _, ok := r.Get("nope"); ok {
		t.Error("expected miss for unknown id")
	}
}
