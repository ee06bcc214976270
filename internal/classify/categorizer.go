// Package classify assigns landscape categories to repository records
// using keyword matching over name, description, and topics, with manual
// per-repo overrides taking priority.
package classify

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/foldscape/foldscape/internal/types"
)

// Config is the categorization section of config.json.
type Config struct {
	Categories struct {
		Keywords  map[string][]string `json:"keywords"`
		Overrides map[string]string   `json:"overrides"`
	} `json:"categories"`
}

// Categorizer holds the keyword map and overrides. Category order is
// fixed at construction so keyword matching is deterministic even though
// the config is a JSON object.
type Categorizer struct {
	keywords  map[string][]string
	order     []string
	overrides map[string]string
}

// New builds a categorizer from parsed config.
func New(cfg Config) *Categorizer {
	order := make([]string, 0, len(cfg.Categories.Keywords))
	for cat := range cfg.Categories.Keywords {
		order = append(order, cat)
	}
	sort.Strings(order)

	return &Categorizer{
		keywords:  cfg.Categories.Keywords,
		order:     order,
		overrides: cfg.Categories.Overrides,
	}
}

// LoadConfig reads the categorization config from disk.
func LoadConfig(path string) (Config, error) {
	var cfg Config

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read categorizer config: %w", err)
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse categorizer config %s: %w", path, err)
	}
	return cfg, nil
}

// Categorize decides the category for one record. Priority: manual
// override, then first keyword hit in the searchable text, then none.
func (c *Categorizer) Categorize(r types.Record) (string, bool) {
	if cat, ok := c.overrides[r.RepoID]; ok {
		return cat, true
	}

	searchable := searchableText(r)
	for _, cat := range c.order {
		for _, kw := range c.keywords[cat] {
			if strings.Contains(searchable, strings.ToLower(kw)) {
				return cat, true
			}
		}
	}
	return "", false
}

// Result summarizes an Apply run.
type Result struct {
	Categorized   int      `json:"categorized"`
	Uncategorized []string `json:"uncategorized,omitempty"`
}

// Apply categorizes every record, returning an updated copy of the
// collection. Records no rule matches keep a nil category.
func (c *Categorizer) Apply(records []types.Record) ([]types.Record, Result) {
	out := make([]types.Record, len(records))
	var res Result

	for i, r := range records {
		classification := types.Classification{}
		if r.Classification != nil {
			classification = *r.Classification
		}

		if cat, ok := c.Categorize(r); ok {
			classification.Category = &cat
			res.Categorized++
		} else {
			classification.Category = nil
			res.Uncategorized = append(res.Uncategorized, r.RepoID)
		}

		r.Classification = &classification
		out[i] = r
	}

	slog.Info("Categorization complete",
		"categorized", res.Categorized,
		"total", len(records),
		"uncategorized", len(res.Uncategorized))
	return out, res
}

func searchableText(r types.Record) string {
	var b strings.Builder

	if m := r.Metadata; m != nil {
		b.WriteString(strings.ToLower(m.Name))
		b.WriteString(" ")
		if m.Description != nil {
			b.WriteString(strings.ToLower(*m.Description))
		}
		for _, topic := range m.Topics {
			b.WriteString(" ")
			b.WriteString(strings.ToLower(topic))
		}
	}
	return b.String()
}
