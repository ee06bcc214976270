// Package catalog is the in-memory query engine behind the landscape
// dashboard: it filters, orders, and aggregates the repository collection
// without touching storage or the network. Every entry point is a pure
// function of its inputs, so repeated calls with the same collection and
// specs produce identical output.
package catalog

import (
	"sort"

	"github.com/foldscape/foldscape/internal/types"
)

// Query filters the collection with the spec's composite predicate and
// orders the survivors with the sort spec's comparator. The input slice is
// never mutated; the result is a fresh slice sharing the record values.
func Query(records []types.Record, filter FilterSpec, sortSpec SortSpec) []types.Record {
	match := filter.Predicate()

	type entry struct {
		rec  types.Record
		view View
	}

	matched := make([]entry, 0, len(records))
	for _, r := range records {
		v := Normalize(r)
		if match(v) {
			matched = append(matched, entry{rec: r, view: v})
		}
	}

	// SliceStable keeps equal-key records in input order, which is what
	// makes re-sorting with the same key a visual no-op.
	sort.SliceStable(matched, func(i, j int) bool {
		return sortSpec.Compare(matched[i].view, matched[j].view) < 0
	})

	out := make([]types.Record, len(matched))
	for i, e := range matched {
		out[i] = e.rec
	}
	return out
}
