package match

import (
	"cmp"
	"slices"
)

// DefaultThreshold is the minimum NameSimilarity for a suggestion.
const DefaultThreshold = 0.6

type scored struct {
	name  string
	score float64
}

// Suggest returns up to limit candidates whose NameSimilarity to name is at
// least threshold, best first. Ties keep candidate order.
func Suggest(name string, candidates []string, threshold float64, limit int) []string {
	var found []scored

	for _, c := range candidates {
		if c == name {
			continue
		}

		if s := NameSimilarity(name, c); s >= threshold {
			found = append(found, scored{name: c, score: s})
		}
	}

	slices.SortStableFunc(found, func(a, b scored) int {
		return cmp.Compare(b.score, a.score)
	})

	if limit > 0 && len(found) > limit {
		found = found[:limit]
	}

	out := make([]string, len(found))
	for i, f := range found {
		out[i] = f.name
	}

	return out
}
