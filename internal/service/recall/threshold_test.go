package recall

import (
	"testing"

	"github.com/sandevgo/memobot/internal/core"
)

func candidatesWithScores(scores ...float64) []core.RankedCandidate {
	cands := make([]core.RankedCandidate, len(scores))
	for i, s := range scores {
		cands[i] = core.RankedCandidate{ID: int64(i + 1), Score: s}
	}
	return cands
}

func TestTruncateAtDrop(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		scores []float64
		want   int
	}{
		{
			name:   "sharp cliff keeps head",
			scores: []float64{0.9, 0.85, 0.5, 0.45},
			want:   2,
		},
		{
			name:   "gentle slope keeps all",
			scores: []float64{0.9, 0.8, 0.7, 0.6},
			want:   4,
		},
		{
			// Largest gap is 0.28 at the top and fails the 30% test; the
			// smaller late gap must not truncate on its own.
			name:   "sub-threshold max gap keeps all",
			scores: []float64{1.0, 0.72, 0.70, 0.45},
			want:   4,
		},
		{
			name:   "single above floor kept",
			scores: []float64{0.02},
			want:   1,
		},
		{
			name:   "single below floor dropped",
			scores: []float64{0.005},
			want:   0,
		},
		{
			name:   "empty input",
			scores: nil,
			want:   0,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := truncateAtDrop(candidatesWithScores(tt.scores...))
			if len(got) != tt.want {
				t.Errorf("kept %d candidates, want %d", len(got), tt.want)
			}
		})
	}
}

func TestTruncateAtDropCutsAtLargestCliff(t *testing.T) {
	t.Parallel()

	// Both gaps after the head would pass the 30% test, but only the
	// single largest one decides the cut point.
	got := truncateAtDrop(candidatesWithScores(1.0, 0.9, 0.3, 0.1))
	if len(got) != 2 {
		t.Fatalf("kept %d candidates, want 2", len(got))
	}
	if got[0].ID != 1 || got[1].ID != 2 {
		t.Errorf("kept wrong candidates: %v", got)
	}
}
