package recall

import (
	"math"
	"testing"

	"github.com/sandevgo/memobot/internal/core"
)

func TestFuseAccumulatesAcrossPaths(t *testing.T) {
	t.Parallel()

	pathA := []core.RankedCandidate{
		{ID: 1, Content: "a"},
		{ID: 2, Content: "b"},
	}
	pathB := []core.RankedCandidate{
		{ID: 2, Content: "b-alt"},
		{ID: 1, Content: "a-alt"},
		{ID: 3, Content: "c"},
	}

	fused := fuse(pathA, pathB)
	if len(fused) != 3 {
		t.Fatalf("expected 3 fused candidates, got %d", len(fused))
	}

	scores := make(map[int64]float64)
	for _, c := range fused {
		scores[c.ID] = c.Score
	}

	want1 := 1.0/61 + 1.0/62
	want2 := 1.0/62 + 1.0/61
	want3 := 1.0 / 63
	if math.Abs(scores[1]-want1) > 1e-12 {
		t.Errorf("score(1) = %v, want %v", scores[1], want1)
	}
	if math.Abs(scores[2]-want2) > 1e-12 {
		t.Errorf("score(2) = %v, want %v", scores[2], want2)
	}
	if math.Abs(scores[3]-want3) > 1e-12 {
		t.Errorf("score(3) = %v, want %v", scores[3], want3)
	}

	if scores[1] != scores[2] {
		t.Errorf("expected equal scores for ids 1 and 2, got %v and %v", scores[1], scores[2])
	}
	if fused[2].ID != 3 {
		t.Errorf("expected id 3 last, got %d", fused[2].ID)
	}
}

func TestFuseTiesKeepInsertionOrder(t *testing.T) {
	t.Parallel()

	pathA := []core.RankedCandidate{{ID: 10, Content: "x"}}
	pathB := []core.RankedCandidate{{ID: 20, Content: "y"}}

	fused := fuse(pathA, pathB)
	if len(fused) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(fused))
	}
	if fused[0].ID != 10 || fused[1].ID != 20 {
		t.Errorf("tie broke insertion order: got [%d, %d]", fused[0].ID, fused[1].ID)
	}
}

func TestFuseFirstPathKeepsContent(t *testing.T) {
	t.Parallel()

	pathA := []core.RankedCandidate{{ID: 1, Content: "first"}}
	pathB := []core.RankedCandidate{{ID: 1, Content: "second"}}

	fused := fuse(pathA, pathB)
	if len(fused) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(fused))
	}
	if fused[0].Content != "first" {
		t.Errorf("representative content = %q, want %q", fused[0].Content, "first")
	}
}

func TestFuseEmptyPaths(t *testing.T) {
	t.Parallel()

	if fused := fuse(nil, nil, nil); len(fused) != 0 {
		t.Errorf("expected no candidates, got %d", len(fused))
	}
}
