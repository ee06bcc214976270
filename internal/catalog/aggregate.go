package catalog

import (
	"sort"

	"github.com/foldscape/foldscape/internal/types"
)

// Defaults for the summary widgets when the caller passes no limit.
const (
	DefaultTrendingLimit = 5
	DefaultTopLimit      = 10

	// TrendingVelocityThreshold is the strict lower bound on 7-day star
	// velocity above which a repo counts as trending even without the
	// collector's flag.
	TrendingVelocityThreshold = 10
)

// Stats are the summary counters shown above the table.
type Stats struct {
	Shown      int `json:"shown"`
	Total      int `json:"total"`
	TotalStars int `json:"total_stars"`
}

// CategoryCount is one bar of the category chart.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// CountStats summarizes the collection the caller passes in, typically the
// filtered result set; total is the size of the full collection.
func CountStats(collection []types.Record, total int) Stats {
	stars := 0
	for _, r := range collection {
		stars += Normalize(r).Stars
	}
	return Stats{Shown: len(collection), Total: total, TotalStars: stars}
}

// CategoryHistogram groups the collection by normalized category. Buckets
// appear in first-seen order so the chart renders stably across reloads;
// the counts always sum to len(collection).
func CategoryHistogram(collection []types.Record) []CategoryCount {
	index := make(map[string]int)
	var out []CategoryCount

	for _, r := range collection {
		cat := Normalize(r).Category
		if i, ok := index[cat]; ok {
			out[i].Count++
			continue
		}
		index[cat] = len(out)
		out = append(out, CategoryCount{Category: cat, Count: 1})
	}
	return out
}

// TrendingSet selects records flagged trending or with 7-day velocity
// strictly above the threshold, ordered by descending velocity. An empty
// result is a normal outcome, not an error.
func TrendingSet(collection []types.Record, limit int) []types.Record {
	if limit <= 0 {
		limit = DefaultTrendingLimit
	}

	var trending []types.Record
	for _, r := range collection {
		v := Normalize(r)
		if v.Trending || v.Velocity > TrendingVelocityThreshold {
			trending = append(trending, r)
		}
	}

	sort.SliceStable(trending, func(i, j int) bool {
		return Normalize(trending[i]).Velocity > Normalize(trending[j]).Velocity
	})

	if len(trending) > limit {
		trending = trending[:limit]
	}
	return trending
}

// TopByStars returns the collection ordered by descending star count,
// ties keeping input order, truncated to limit.
func TopByStars(collection []types.Record, limit int) []types.Record {
	if limit <= 0 {
		limit = DefaultTopLimit
	}

	top := make([]types.Record, len(collection))
	copy(top, collection)

	sort.SliceStable(top, func(i, j int) bool {
		return Normalize(top[i]).Stars > Normalize(top[j]).Stars
	})

	if len(top) > limit {
		top = top[:limit]
	}
	return top
}

// Languages returns the distinct raw language values present in the
// collection, sorted, for populating the language filter dropdown.
func Languages(collection []types.Record) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range collection {
		lang := Normalize(r).Language
		if lang == "" {
			continue
		}
		if _, ok := seen[lang]; ok {
			continue
		}
		seen[lang] = struct{}{}
		out = append(out, lang)
	}
	sort.Strings(out)
	return out
}
