package catalog

import "strings"

// SortField selects which view key orders the table.
type SortField string

const (
	SortByName    SortField = "name"
	SortByStars   SortField = "stars"
	SortByUpdated SortField = "last_updated"
)

// Direction of the active sort.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// SortSpec is the active sort state. The zero value (unknown field) is a
// defined no-op: it compares everything equal, so a stable sort leaves the
// input order untouched.
type SortSpec struct {
	Field SortField `form:"sort" json:"sort"`
	Dir   Direction `form:"dir" json:"dir"`
}

// DefaultSort is what a fresh dashboard session starts with.
func DefaultSort() SortSpec {
	return SortSpec{Field: SortByStars, Dir: Descending}
}

// Toggle returns the spec after a click on field: clicking the active
// field flips direction, clicking a new field resets to descending.
func (s SortSpec) Toggle(field SortField) SortSpec {
	if s.Field == field {
		if s.Dir == Ascending {
			s.Dir = Descending
		} else {
			s.Dir = Ascending
		}
		return s
	}
	return SortSpec{Field: field, Dir: Descending}
}

// Compare is a three-way comparator over views. Ties report 0 so the
// stable sort in Query preserves input order between re-sorts.
func (s SortSpec) Compare(a, b View) int {
	var c int
	switch s.Field {
	case SortByName:
		c = strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	case SortByStars:
		c = compareInt(a.Stars, b.Stars)
	case SortByUpdated:
		// RFC3339 strings compare chronologically; "" (absent) collates
		// before any real date.
		c = strings.Compare(a.Updated, b.Updated)
	default:
		return 0
	}
	if s.Dir == Descending {
		return -c
	}
	return c
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
