package recall

import (
	"sort"

	"github.com/sandevgo/memobot/internal/core"
)

const rrfK = 60

// fuse merges ranked result lists with reciprocal rank fusion. A candidate
// found by several paths accumulates 1/(k+rank+1) per path; the path that
// saw it first supplies its content. The sort is stable so equal scores keep
// insertion order.
func fuse(paths ...[]core.RankedCandidate) []core.RankedCandidate {
	scores := make(map[int64]float64)
	contents := make(map[int64]string)
	var order []int64

	for _, path := range paths {
		for rank, cand := range path {
			if _, ok := scores[cand.ID]; !ok {
				order = append(order, cand.ID)
				contents[cand.ID] = cand.Content
			}
			scores[cand.ID] += 1.0 / float64(rrfK+rank+1)
		}
	}

	fused := make([]core.RankedCandidate, 0, len(order))
	for _, id := range order {
		fused = append(fused, core.RankedCandidate{
			ID:      id,
			Content: contents[id],
			Score:   scores[id],
		})
	}

	sort.SliceStable(fused, func(i, j int) bool {
		return fused[i].Score > fused[j].Score
	})
	return fused
}
