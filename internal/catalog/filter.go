package catalog

import "strings"

// FilterSpec carries the three independent constraints the dashboard
// exposes. A zero-value spec matches every record.
type FilterSpec struct {
	Search   string `form:"q" json:"q"`
	Category string `form:"category" json:"category"`
	Language string `form:"language" json:"language"`
}

// Predicate builds the composite AND predicate over normalized views.
// Each empty constraint is vacuously true; the search term matches
// case-insensitively against name or description.
func (f FilterSpec) Predicate() func(View) bool {
	term := strings.ToLower(strings.TrimSpace(f.Search))

	return func(v View) bool {
		if term != "" {
			name := strings.ToLower(v.Name)
			desc := strings.ToLower(v.Description)
			if !strings.Contains(name, term) && !strings.Contains(desc, term) {
				return false
			}
		}
		if f.Category != "" && v.Category != f.Category {
			return false
		}
		// Language matches against the raw value, so "" in the record
		// can never satisfy a concrete language constraint.
		if f.Language != "" && v.Language != f.Language {
			return false
		}
		return true
	}
}

// IsEmpty reports whether the spec constrains anything at all.
func (f FilterSpec) IsEmpty() bool {
	return strings.TrimSpace(f.Search) == "" && f.Category == "" && f.Language == ""
}
