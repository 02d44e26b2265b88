package recall

import "github.com/sandevgo/memobot/internal/core"

const (
	// dropFactor is the fraction of the previous score an adjacent gap must
	// exceed to count as a cliff.
	dropFactor = 0.3
	// minKeepScore guards a lone survivor from being pure noise.
	minKeepScore = 0.01
)

// truncateAtDrop cuts a score-sorted candidate list at the single largest
// gap between adjacent scores, and only when that gap is a real cliff
// relative to the score above it. A smaller late gap never truncates on its
// own. A result of exactly one candidate must still clear the noise floor.
func truncateAtDrop(cands []core.RankedCandidate) []core.RankedCandidate {
	if len(cands) == 0 {
		return nil
	}

	maxDrop := 0.0
	maxAt := 0
	for i := 1; i < len(cands); i++ {
		if drop := cands[i-1].Score - cands[i].Score; drop > maxDrop {
			maxDrop = drop
			maxAt = i
		}
	}

	cut := len(cands)
	if maxAt > 0 && maxDrop > dropFactor*cands[maxAt-1].Score {
		cut = maxAt
	}

	kept := cands[:cut]
	if len(kept) == 1 && kept[0].Score <= minKeepScore {
		return nil
	}
	return kept
}
