package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortSpecCompare(t *testing.T) {
	alpha := View{Name: "alphafold", Stars: 100, Updated: "2025-01-01T00:00:00Z"}
	beta := View{Name: "Boltz", Stars: 200, Updated: "2025-06-01T00:00:00Z"}
	undated := View{Name: "mystery", Stars: 100}

	tests := []struct {
		name     string
		spec     SortSpec
		a, b     View
		expected int
	}{
		{
			name:     "name ascending compares lower-cased",
			spec:     SortSpec{Field: SortByName, Dir: Ascending},
			a:        alpha, b: beta,
			expected: -1,
		},
		{
			name:     "name descending flips the sign",
			spec:     SortSpec{Field: SortByName, Dir: Descending},
			a:        alpha, b: beta,
			expected: 1,
		},
		{
			name:     "stars ascending is numeric",
			spec:     SortSpec{Field: SortByStars, Dir: Ascending},
			a:        alpha, b: beta,
			expected: -1,
		},
		{
			name:     "stars ties report equal",
			spec:     SortSpec{Field: SortByStars, Dir: Descending},
			a:        alpha, b: undated,
			expected: 0,
		},
		{
			name:     "updated compares timestamps lexicographically",
			spec:     SortSpec{Field: SortByUpdated, Dir: Ascending},
			a:        alpha, b: beta,
			expected: -1,
		},
		{
			name:     "absent timestamp collates before any real date",
			spec:     SortSpec{Field: SortByUpdated, Dir: Ascending},
			a:        undated, b: alpha,
			expected: -1,
		},
		{
			name:     "unknown field compares everything equal",
			spec:     SortSpec{Field: "forks", Dir: Descending},
			a:        alpha, b: beta,
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.spec.Compare(tt.a, tt.b)
			switch {
			case tt.expected < 0:
				assert.Negative(t, got)
			case tt.expected > 0:
				assert.Positive(t, got)
			default:
				assert.Zero(t, got)
			}
		})
	}
}

func TestSortSpecDirectionSymmetry(t *testing.T) {
	a := View{Name: "a", Stars: 1, Updated: "2024-01-01T00:00:00Z"}
	b := View{Name: "b", Stars: 2, Updated: "2025-01-01T00:00:00Z"}

	for _, field := range []SortField{SortByName, SortByStars, SortByUpdated} {
		asc := SortSpec{Field: field, Dir: Ascending}
		desc := SortSpec{Field: field, Dir: Descending}
		assert.Equal(t, asc.Compare(a, b), -desc.Compare(a, b), "field %s", field)
	}
}

func TestSortSpecToggle(t *testing.T) {
	tests := []struct {
		name     string
		current  SortSpec
		clicked  SortField
		expected SortSpec
	}{
		{
			name:     "clicking the active field flips descending to ascending",
			current:  SortSpec{Field: SortByStars, Dir: Descending},
			clicked:  SortByStars,
			expected: SortSpec{Field: SortByStars, Dir: Ascending},
		},
		{
			name:     "clicking the active field flips ascending to descending",
			current:  SortSpec{Field: SortByStars, Dir: Ascending},
			clicked:  SortByStars,
			expected: SortSpec{Field: SortByStars, Dir: Descending},
		},
		{
			name:     "clicking a different field resets to descending",
			current:  SortSpec{Field: SortByStars, Dir: Ascending},
			clicked:  SortByName,
			expected: SortSpec{Field: SortByName, Dir: Descending},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.current.Toggle(tt.clicked))
		})
	}
}

func TestDefaultSort(t *testing.T) {
	assert.Equal(t, SortSpec{Field: SortByStars, Dir: Descending}, DefaultSort())
}
