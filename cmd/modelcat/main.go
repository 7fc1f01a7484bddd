// Model catalog linter. Validates a YAML catalog file before it is handed
// to the relay via MODELS_FILE, reporting every problem instead of stopping
// at the first one the way the runtime loader does.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/parleybot/parley/internal/domain/models"
)

type Violation struct {
	Code    string
	ModelID string
	Message string
}

const defaultCatalogFile = "models.yaml"

func main() {
	file := flag.String("f", defaultCatalogFile, "Path to the YAML model catalog")
	flag.Parse()

	catalog, err := loadCatalogFile(*file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR loading catalog: %v\n", err)
		os.Exit(1)
	}

	violations := checkCatalog(catalog)
	fmt.Printf("=== Model Catalog Report ===\n")
	fmt.Printf("File: %s\n", *file)
	fmt.Printf("Models loaded: %d (reasoners: %d)\n", len(catalog), countReasoners(catalog))
	fmt.Printf("Violations: %d\n\n", len(violations))
	for _, v := range violations {
		fmt.Printf("[%s] %s\n", v.Code, v.Message)
	}
	if len(violations) > 0 {
		fmt.Printf("\nFAILED: %d catalog violations found\n", len(violations))
		os.Exit(1)
	}
	fmt.Println("\nPASSED: catalog is valid")
}

// loadCatalogFile decodes the YAML document without validating it, so the
// checker can report every violation in one run.
func loadCatalogFile(path string) ([]models.Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var doc struct {
		Models []models.Model `yaml:"models"`
	}
	if parseErr := yaml.Unmarshal(data, &doc); parseErr != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, parseErr)
	}
	return doc.Models, nil
}

func checkCatalog(catalog []models.Model) []Violation {
	var violations []Violation

	if len(catalog) == 0 {
		violations = append(violations, Violation{
			Code:    "NO-MODELS",
			Message: "catalog has no models",
		})
		return violations
	}

	seen := make(map[string]bool)
	for i, m := range catalog {
		id := strings.TrimSpace(m.ID)
		if id == "" {
			violations = append(violations, Violation{
				Code:    "EMPTY-ID",
				Message: fmt.Sprintf("entry %d has an empty id", i),
			})
			continue
		}
		if seen[id] {
			violations = append(violations, Violation{
				Code:    "DUPLICATE-ID",
				ModelID: id,
				Message: fmt.Sprintf("id %q appears more than once", id),
			})
		}
		seen[id] = true

		if strings.TrimSpace(m.Description) == "" {
			violations = append(violations, Violation{
				Code:    "NO-DESCRIPTION",
				ModelID: id,
				Message: fmt.Sprintf("model %q has no description", id),
			})
		}
	}
	return violations
}

func countReasoners(catalog []models.Model) int {
	c := 0
	for _, m := range catalog {
		if m.Reasoner {
			c++
		}
	}
	return c
}
