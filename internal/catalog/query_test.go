package catalog

import (
	"testing"

	"github.com/foldscape/foldscape/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCollection() []types.Record {
	return []types.Record{
		{
			RepoID: "lab/foldx",
			Metadata: &types.Metadata{
				Name:        "FoldX",
				Description: strPtr("predicts folding"),
				Stars:       500,
				Language:    strPtr("Python"),
				LastUpdated: strPtr("2025-03-01T00:00:00Z"),
			},
			Classification: &types.Classification{Category: strPtr("Infrastructure")},
		},
		{
			RepoID: "lab/bar",
			Metadata: &types.Metadata{
				Name:        "Bar",
				Description: strPtr("no match"),
				Stars:       1500,
				Language:    strPtr("Rust"),
				LastUpdated: strPtr("2025-01-01T00:00:00Z"),
			},
			Classification: &types.Classification{Category: strPtr("Core Methods")},
		},
		{
			RepoID: "lab/baz",
			Metadata: &types.Metadata{
				Name:  "Baz",
				Stars: 1500,
			},
			Classification: &types.Classification{Category: strPtr("Infrastructure")},
		},
	}
}

func ids(records []types.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.RepoID
	}
	return out
}

func TestQueryEmptyFilterIsIdentityUpToOrder(t *testing.T) {
	coll := testCollection()

	result := Query(coll, FilterSpec{}, SortSpec{Field: SortByName, Dir: Ascending})

	require.Len(t, result, len(coll))
	assert.ElementsMatch(t, ids(coll), ids(result))
	assert.Equal(t, []string{"lab/bar", "lab/baz", "lab/foldx"}, ids(result))
}

func TestQueryFilterComposition(t *testing.T) {
	coll := testCollection()

	tests := []struct {
		name     string
		filter   FilterSpec
		expected []string
	}{
		{
			name:     "search term retains only matching records",
			filter:   FilterSpec{Search: "fold"},
			expected: []string{"lab/foldx"},
		},
		{
			name:     "category narrows to exact matches",
			filter:   FilterSpec{Category: "Infrastructure"},
			expected: []string{"lab/foldx", "lab/baz"},
		},
		{
			name:     "language uses the raw field",
			filter:   FilterSpec{Language: "Rust"},
			expected: []string{"lab/bar"},
		},
		{
			name:     "conjunction of all three",
			filter:   FilterSpec{Search: "fold", Category: "Infrastructure", Language: "Python"},
			expected: []string{"lab/foldx"},
		},
		{
			name:     "contradictory constraints yield empty result",
			filter:   FilterSpec{Search: "fold", Language: "Rust"},
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Unknown sort field keeps input order, isolating the filter.
			result := Query(coll, tt.filter, SortSpec{})
			assert.Equal(t, tt.expected, idsOrNil(result))
		})
	}
}

func idsOrNil(records []types.Record) []string {
	if len(records) == 0 {
		return nil
	}
	return ids(records)
}

func TestQuerySortStability(t *testing.T) {
	coll := testCollection()

	// bar and baz tie at 1500 stars; bar precedes baz in the input and
	// must keep doing so, on every invocation.
	for i := 0; i < 3; i++ {
		result := Query(coll, FilterSpec{}, SortSpec{Field: SortByStars, Dir: Descending})
		assert.Equal(t, []string{"lab/bar", "lab/baz", "lab/foldx"}, ids(result))
	}
}

func TestQueryDirectionSymmetry(t *testing.T) {
	coll := testCollection()

	asc := Query(coll, FilterSpec{}, SortSpec{Field: SortByName, Dir: Ascending})
	desc := Query(coll, FilterSpec{}, SortSpec{Field: SortByName, Dir: Descending})

	require.Len(t, desc, len(asc))
	for i := range asc {
		assert.Equal(t, asc[i].RepoID, desc[len(desc)-1-i].RepoID)
	}
}

func TestQueryAbsentTimestampSortsFirstAscending(t *testing.T) {
	coll := testCollection()

	result := Query(coll, FilterSpec{}, SortSpec{Field: SortByUpdated, Dir: Ascending})

	assert.Equal(t, []string{"lab/baz", "lab/bar", "lab/foldx"}, ids(result))
}

func TestQueryDoesNotMutateInput(t *testing.T) {
	coll := testCollection()
	before := ids(coll)

	Query(coll, FilterSpec{Search: "fold"}, SortSpec{Field: SortByName, Dir: Ascending})
	Query(coll, FilterSpec{}, SortSpec{Field: SortByStars, Dir: Ascending})

	assert.Equal(t, before, ids(coll))
}

func TestQueryEmptyCollection(t *testing.T) {
	result := Query(nil, FilterSpec{Search: "anything"}, DefaultSort())
	assert.Empty(t, result)
}
