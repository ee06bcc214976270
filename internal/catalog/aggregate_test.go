package catalog

import (
	"testing"

	"github.com/foldscape/foldscape/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func starRecord(id string, stars int, category string) types.Record {
	return types.Record{
		RepoID:         id,
		Metadata:       &types.Metadata{Name: id, Stars: stars},
		Classification: &types.Classification{Category: strPtr(category)},
	}
}

func trackedRecord(id string, trending bool, velocity float64) types.Record {
	return types.Record{
		RepoID:   id,
		Metadata: &types.Metadata{Name: id},
		Tracking: &types.Tracking{Trending: trending, StarVelocity7d: velocity},
	}
}

func TestCountStats(t *testing.T) {
	tests := []struct {
		name       string
		collection []types.Record
		total      int
		expected   Stats
	}{
		{
			name:       "empty collection yields zero stats",
			collection: nil,
			total:      0,
			expected:   Stats{},
		},
		{
			name: "sums normalized stars over the passed collection",
			collection: []types.Record{
				starRecord("a", 500, "Infrastructure"),
				starRecord("b", 1500, "Core Methods"),
				{RepoID: "c"}, // no metadata, stars default to 0
			},
			total:    10,
			expected: Stats{Shown: 3, Total: 10, TotalStars: 2000},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CountStats(tt.collection, tt.total))
		})
	}
}

func TestCategoryHistogram(t *testing.T) {
	coll := []types.Record{
		starRecord("a", 0, "Infrastructure"),
		starRecord("b", 0, "Core Methods"),
		starRecord("c", 0, "Infrastructure"),
		{RepoID: "d"}, // uncategorized
	}

	hist := CategoryHistogram(coll)

	assert.Equal(t, []CategoryCount{
		{Category: "Infrastructure", Count: 2},
		{Category: "Core Methods", Count: 1},
		{Category: Uncategorized, Count: 1},
	}, hist)

	// Histogram counts always sum to the collection size.
	sum := 0
	for _, c := range hist {
		sum += c.Count
	}
	assert.Equal(t, len(coll), sum)
}

func TestTrendingSet(t *testing.T) {
	tests := []struct {
		name       string
		collection []types.Record
		limit      int
		expected   []string
	}{
		{
			name: "flagged record with zero velocity is included",
			collection: []types.Record{
				trackedRecord("flagged", true, 0),
			},
			expected: []string{"flagged"},
		},
		{
			name: "velocity strictly above threshold is included without flag",
			collection: []types.Record{
				trackedRecord("fast", false, 11),
			},
			expected: []string{"fast"},
		},
		{
			name: "velocity exactly at threshold is excluded",
			collection: []types.Record{
				trackedRecord("border", false, 10),
			},
			expected: nil,
		},
		{
			name: "ordered by descending velocity and truncated",
			collection: []types.Record{
				trackedRecord("slow", true, 1),
				trackedRecord("fast", false, 50),
				trackedRecord("mid", true, 20),
				trackedRecord("idle", false, 0),
			},
			limit:    2,
			expected: []string{"fast", "mid"},
		},
		{
			name:       "record without tracking group never trends",
			collection: []types.Record{{RepoID: "bare"}},
			expected:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, idsOrNil(TrendingSet(tt.collection, tt.limit)))
		})
	}
}

func TestTrendingSetDefaultLimit(t *testing.T) {
	var coll []types.Record
	for i := 0; i < 8; i++ {
		coll = append(coll, trackedRecord(string(rune('a'+i)), true, float64(i)))
	}

	result := TrendingSet(coll, 0)
	assert.Len(t, result, DefaultTrendingLimit)
}

func TestTopByStars(t *testing.T) {
	// A=500, B=1500, C=1500: B and C tie and B appeared first, so the
	// top two are exactly [B, C].
	coll := []types.Record{
		starRecord("A", 500, "Infrastructure"),
		starRecord("B", 1500, "Core Methods"),
		starRecord("C", 1500, "Infrastructure"),
	}

	result := TopByStars(coll, 2)

	require.Len(t, result, 2)
	assert.Equal(t, []string{"B", "C"}, ids(result))

	// Input order is untouched.
	assert.Equal(t, []string{"A", "B", "C"}, ids(coll))
}

func TestTopByStarsDefaultLimit(t *testing.T) {
	var coll []types.Record
	for i := 0; i < 15; i++ {
		coll = append(coll, starRecord(string(rune('a'+i)), i, "Applications"))
	}

	assert.Len(t, TopByStars(coll, 0), DefaultTopLimit)
}

func TestLanguages(t *testing.T) {
	coll := []types.Record{
		{RepoID: "a", Metadata: &types.Metadata{Language: strPtr("Python")}},
		{RepoID: "b", Metadata: &types.Metadata{Language: strPtr("Rust")}},
		{RepoID: "c", Metadata: &types.Metadata{Language: strPtr("Python")}},
		{RepoID: "d"},
	}

	assert.Equal(t, []string{"Python", "Rust"}, Languages(coll))
}
