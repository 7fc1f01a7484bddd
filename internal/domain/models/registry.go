package models

import (
	"errors"
	"fmt"
	"sync"
)

var ErrUnknownModel = errors.New("unknown model id")

// Registry holds the model catalog plus the currently active model. Safe for
// concurrent use: command handlers switch models while pipelines read them.
type Registry struct {
	mu     sync.RWMutex
	order  []string
	byID   map[string]Model
	active string
}

// NewRegistry builds a registry from catalog, activating activeID. An
// unknown activeID falls back to the first catalog entry rather than
// failing, mirroring the configuration fallback for a misspelled model env.
func NewRegistry(catalog []Model, activeID string) (*Registry, error) {
	if len(catalog) == 0 {
		return nil, errors.New("catalog has no models")
	}

	r := &Registry{
		order: make([]string, 0, len(catalog)),
		byID:  make(map[string]Model, len(catalog)),
	}
	for _, m := range catalog {
		if _, dup := r.byID[m.ID]; dup {
			return nil, fmt.Errorf("duplicate model id %q", m.ID)
		}
		r.byID[m.ID] = m
		r.order = append(r.order, m.ID)
	}

	if _, ok := r.byID[activeID]; !ok {
		activeID = r.order[0]
	}
	r.active = activeID
	return r, nil
}

// Active returns the currently active model.
func (r *Registry) Active() Model {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byID[r.active]
}

// SetActive switches the active model. Unknown ids are rejected with
// ErrUnknownModel.
func (r *Registry) SetActive(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownModel, id)
	}
	r.active = id
	return nil
}

// Get looks up a model by id.
func (r *Registry) Get(id string) (Model, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.byID[id]
	return m, ok
}

// List returns the catalog in its declared order.
func (r *Registry) List() []Model {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Model, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}
