// Package validate checks catalog records for schema integrity after
// collection and pipeline updates.
package validate

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/foldscape/foldscape/internal/types"
)

// Allowed values for classified and domain fields. A nil field is always
// allowed; these sets constrain values that are present.
var (
	ValidCategories = []string{
		"Infrastructure",
		"Core Methods",
		"Applications",
	}

	ValidLayers = []string{
		"Layer 1: Infrastructure",
		"Layer 2: Core Methods",
		"Layer 3: Applications",
	}

	ValidGPURequirements = []string{
		"CPU-only",
		"<8GB",
		"8-24GB",
		">24GB",
		"Multi-GPU",
	}

	ValidExpressionSystems = []string{
		"E.coli",
		"HEK293",
		"Yeast",
		"Cell-free",
		"Insect",
		"CHO",
	}
)

// Issue is one validation failure, tied to the repo and field it concerns.
type Issue struct {
	RepoID  string `json:"repo_id"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s -> %s: %s", i.RepoID, i.Field, i.Message)
}

// Coverage reports how completely optional fields are filled in.
type Coverage struct {
	Total             int `json:"total"`
	Categorized       int `json:"categorized"`
	GPURequirements   int `json:"gpu_requirements"`
	ExpressionSystems int `json:"expression_systems"`
}

// Collection validates every record plus cross-record constraints
// (duplicate repo ids). An empty result means the collection is valid.
func Collection(records []types.Record) []Issue {
	var issues []Issue

	seen := make(map[string]bool, len(records))
	for i, r := range records {
		if r.RepoID != "" {
			if seen[r.RepoID] {
				issues = append(issues, Issue{r.RepoID, "repo_id", "duplicate"})
			}
			seen[r.RepoID] = true
		}
		issues = append(issues, Record(r, i)...)
	}
	return issues
}

// Record validates a single record. The index is only used to label
// records that are missing their id.
func Record(r types.Record, index int) []Issue {
	var issues []Issue

	id := r.RepoID
	if id == "" {
		id = fmt.Sprintf("repo_index_%d", index)
		issues = append(issues, Issue{id, "repo_id", "missing required field"})
	}

	if r.Metadata == nil {
		issues = append(issues, Issue{id, "metadata", "missing required field"})
	} else {
		issues = append(issues, validateMetadata(id, r.Metadata)...)
	}

	if r.Tracking == nil {
		issues = append(issues, Issue{id, "tracking", "missing required field"})
	} else if r.Tracking.FirstTracked == "" {
		issues = append(issues, Issue{id, "tracking.first_tracked", "missing required field"})
	}

	if c := r.Classification; c != nil {
		if c.Category != nil && !contains(ValidCategories, *c.Category) {
			issues = append(issues, Issue{id, "classification.category",
				fmt.Sprintf("invalid value: %s", *c.Category)})
		}
		if c.Layer != nil && !contains(ValidLayers, *c.Layer) {
			issues = append(issues, Issue{id, "classification.layer",
				fmt.Sprintf("invalid value: %s", *c.Layer)})
		}
	}

	if d := r.DomainSpecific; d != nil {
		if d.GPURequirement != nil && !contains(ValidGPURequirements, *d.GPURequirement) {
			issues = append(issues, Issue{id, "domain_specific.gpu_requirement",
				fmt.Sprintf("invalid value: %s", *d.GPURequirement)})
		}
		for _, system := range d.ExpressionSystems {
			if !contains(ValidExpressionSystems, system) {
				issues = append(issues, Issue{id, "domain_specific.expression_systems",
					fmt.Sprintf("invalid value: %s", system)})
			}
		}
	}

	return issues
}

func validateMetadata(id string, m *types.Metadata) []Issue {
	var issues []Issue

	if m.Name == "" {
		issues = append(issues, Issue{id, "metadata.name", "missing required field"})
	}
	if m.URL == "" {
		issues = append(issues, Issue{id, "metadata.url", "missing required field"})
	} else if !strings.HasPrefix(m.URL, "https://github.com/") {
		issues = append(issues, Issue{id, "metadata.url", "must be a GitHub URL"})
	}
	if m.Stars < 0 {
		issues = append(issues, Issue{id, "metadata.stars", "cannot be negative"})
	}

	return issues
}

// Summarize computes field coverage over a collection and logs it.
func Summarize(records []types.Record) Coverage {
	cov := Coverage{Total: len(records)}
	for _, r := range records {
		if r.Classification != nil && r.Classification.Category != nil {
			cov.Categorized++
		}
		if d := r.DomainSpecific; d != nil {
			if d.GPURequirement != nil {
				cov.GPURequirements++
			}
			if len(d.ExpressionSystems) > 0 {
				cov.ExpressionSystems++
			}
		}
	}

	slog.Info("Validation coverage",
		"total", cov.Total,
		"categorized", cov.Categorized,
		"gpu_requirements", cov.GPURequirements,
		"expression_systems", cov.ExpressionSystems)
	return cov
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
