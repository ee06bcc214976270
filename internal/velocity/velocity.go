// Package velocity computes 7-day star velocity from a historical
// snapshot and flags trending repositories.
package velocity

import (
	"log/slog"

	"github.com/foldscape/foldscape/internal/catalog"
	"github.com/foldscape/foldscape/internal/types"
)

// DefaultTrendingThreshold is the minimum star gain over the window for
// the collector-side trending flag.
const DefaultTrendingThreshold = 10

// Result summarizes a velocity run.
type Result struct {
	Updated  int `json:"updated"`
	Trending int `json:"trending"`
}

// Compute returns a copy of records with tracking.star_velocity_7d and
// tracking.trending filled in from historicalStars (repo id -> stars at
// the comparison point). Repos absent from the snapshot get velocity 0:
// their old count defaults to the current one. The input is not mutated.
func Compute(records []types.Record, historicalStars map[string]int, threshold int) ([]types.Record, Result) {
	if threshold <= 0 {
		threshold = DefaultTrendingThreshold
	}

	out := make([]types.Record, len(records))
	res := Result{Updated: len(records)}

	for i, r := range records {
		v := catalog.Normalize(r)

		old, seen := historicalStars[v.ID]
		if !seen {
			old = v.Stars
		}
		vel := float64(v.Stars - old)
		trending := vel >= float64(threshold)

		tracking := types.Tracking{}
		if r.Tracking != nil {
			tracking = *r.Tracking
		}
		tracking.StarVelocity7d = vel
		tracking.Trending = trending
		r.Tracking = &tracking

		if trending {
			res.Trending++
			slog.Info("Trending repository", "repo", v.Name, "gained_stars", vel)
		}
		out[i] = r
	}

	return out, res
}
