package catalog

import (
	"github.com/foldscape/foldscape/internal/types"
)

// Sentinel values used when a record is missing an optional field. Every
// consumer (filtering, sorting, aggregation, rendering) reads through a
// View, so defaulting happens in exactly one place.
const (
	NoDescription = "No description"
	Uncategorized = "Uncategorized"
	AbsentDisplay = "-"
)

// View is the canonical read-side projection of a Record. All fields are
// concrete: absence has already been resolved into the sentinels above.
type View struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Stars       int    `json:"stars"`
	Category    string `json:"category"`

	// Language is the raw value ("" when absent) and is what filter
	// comparisons use; DisplayLanguage substitutes "-" for rendering.
	Language        string `json:"language"`
	DisplayLanguage string `json:"display_language"`

	// Updated is the raw last-push timestamp ("" when absent); it is an
	// RFC3339 string, so lexicographic order is chronological order and
	// absent collates before every real date.
	Updated        string `json:"updated"`
	DisplayUpdated string `json:"display_updated"`

	License  string  `json:"license"`
	Trending bool    `json:"trending"`
	Velocity float64 `json:"velocity"`
}

// Normalize projects a raw record into its View. Pure and total: any shape
// of missing data maps to a default, never to an error.
func Normalize(r types.Record) View {
	v := View{
		ID:              r.RepoID,
		Name:            r.RepoID,
		Description:     NoDescription,
		Category:        Uncategorized,
		DisplayLanguage: AbsentDisplay,
		DisplayUpdated:  AbsentDisplay,
	}

	if m := r.Metadata; m != nil {
		if m.Name != "" {
			v.Name = m.Name
		}
		if m.Description != nil && *m.Description != "" {
			v.Description = *m.Description
		}
		v.URL = m.URL
		if m.Stars > 0 {
			v.Stars = m.Stars
		}
		if m.Language != nil && *m.Language != "" {
			v.Language = *m.Language
			v.DisplayLanguage = *m.Language
		}
		if m.License != nil {
			v.License = *m.License
		}
		if m.LastUpdated != nil && *m.LastUpdated != "" {
			v.Updated = *m.LastUpdated
			v.DisplayUpdated = *m.LastUpdated
		}
	}

	if c := r.Classification; c != nil && c.Category != nil && *c.Category != "" {
		v.Category = *c.Category
	}

	if t := r.Tracking; t != nil {
		v.Trending = t.Trending
		v.Velocity = t.StarVelocity7d
	}

	return v
}
