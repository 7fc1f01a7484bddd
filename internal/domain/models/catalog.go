// Package models describes the completion models the relay can talk to and
// tracks which one is active.
package models

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultModelID is activated when no model is configured or the configured
// id is not in the catalog.
const DefaultModelID = "deepseek-chat"

// Model describes one completion model.
type Model struct {
	ID             string `yaml:"id" json:"id"`
	Description    string `yaml:"description" json:"description"`
	SupportsVision bool   `yaml:"supports_vision" json:"supports_vision"`
	Reasoner       bool   `yaml:"reasoner" json:"reasoner"`
}

// DefaultCatalog returns the built-in model set. Only the reasoner model
// emits a reasoning channel; none of the current API models accept images.
func DefaultCatalog() []Model {
	return []Model{
		{ID: "deepseek-chat", Description: "General-purpose chat model."},
		{ID: "deepseek-coder", Description: "Code generation model."},
		{ID: "deepseek-reasoner", Description: "Reasoning model.", Reasoner: true},
	}
}

// ParseCatalog decodes a YAML model catalog and validates it. The document
// shape is a top-level "models" list.
func ParseCatalog(data []byte) ([]Model, error) {
	var doc struct {
		Models []Model `yaml:"models"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(doc.Models) == 0 {
		return nil, errors.New("catalog has no models")
	}

	seen := make(map[string]struct{}, len(doc.Models))
	for i, m := range doc.Models {
		id := strings.TrimSpace(m.ID)
		if id == "" {
			return nil, fmt.Errorf("catalog entry %d has an empty id", i)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("catalog has duplicate model id %q", id)
		}
		seen[id] = struct{}{}
	}
	return doc.Models, nil
}

// LoadCatalog reads and parses a YAML catalog file.
func LoadCatalog(path string) ([]Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(data)
}
