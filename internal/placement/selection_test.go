package placement

import (
	"testing"

	"github.com/abhisek/englevel/internal/cefr"
	"github.com/abhisek/englevel/internal/questionbank"
)

func TestPickNearest(t *testing.T) {
	qs := []questionbank.Question{
		{ID: "c", Level: cefr.C2},
		{ID: "a", Level: cefr.A2},
		{ID: "b", Level: cefr.B2},
	}
	got := pickNearest(qs, cefr.B1, NewRand(1))
	if got.distance != 1 {
		t.Fatalf("distance = %d, want 1", got.distance)
	}
	if got.question.ID != "a" && got.question.ID != "b" {
		t.Errorf("picked %s, want a or b", got.question.ID)
	}
}

func TestPickNearest_TiesUseBothOptions(t *testing.T) {
	qs := []questionbank.Question{
		{ID: "x", Level: cefr.A2},
		{ID: "y", Level: cefr.B2},
	}
	seen := make(map[string]bool)
	rng := NewRand(99)
	for i := 0; i < 200; i++ {
		seen[pickNearest(qs, cefr.B1, rng).question.ID] = true
	}
	if !seen["x"] || !seen["y"] {
		t.Errorf("tie-break never chose one side: %v", seen)
	}
}

func TestNextIndex(t *testing.T) {
	queue := []questionbank.Question{
		{ID: "0", Level: cefr.A1},
		{ID: "1", Level: cefr.C1},
		{ID: "2", Level: cefr.B2},
	}
	tests := []struct {
		current cefr.Level
		match   bool
		want    int
	}{
		{cefr.C2, false, 0},
		{cefr.C2, true, 1},
		{cefr.B2, true, 2},
		{cefr.A2, true, 0},
	}
	for _, tt := range tests {
		if got := nextIndex(queue, tt.current, tt.match); got != tt.want {
			t.Errorf("nextIndex(%s, %v) = %d, want %d", tt.current, tt.match, got, tt.want)
		}
	}
}
