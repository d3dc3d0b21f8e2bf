package scoring

import "github.com/abhisek/englevel/internal/cefr"

// LevelStats aggregates the answers given at one level.
type LevelStats struct {
	Correct int     `json:"correct"`
	Total   int     `json:"total"`
	Points  float64 `json:"points"`
}

// Accuracy returns Correct/Total, or 0 when nothing was answered.
func (s LevelStats) Accuracy() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Total)
}

// Breakdown maps each level to its accumulated stats.
type Breakdown map[cefr.Level]LevelStats

// Total returns the number of answers across all levels.
func (b Breakdown) Total() int {
	n := 0
	for _, s := range b {
		n += s.Total
	}
	return n
}

// Clone returns an independent copy of b.
func (b Breakdown) Clone() Breakdown {
	out := make(Breakdown, len(b))
	for l, s := range b {
		out[l] = s
	}
	return out
}

// Accumulator is the running weighted score of one assessment. The zero
// value is not usable; call NewAccumulator.
type Accumulator struct {
	WeightedScore float64   `json:"weightedScore"`
	TotalPossible float64   `json:"totalPossibleScore"`
	Levels        Breakdown `json:"levelBreakdown"`
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{Levels: make(Breakdown)}
}

// Record scores one graded answer at level and returns the points awarded.
// TotalPossible grows by the level's correct weight regardless of outcome,
// so the ceiling depends on the levels the learner was served.
func (a *Accumulator) Record(level cefr.Level, correct bool) float64 {
	w := WeightsFor(level)
	points := w.Points(correct)

	a.WeightedScore += points
	a.TotalPossible += w.Correct

	s := a.Levels[level]
	s.Total++
	if correct {
		s.Correct++
	}
	s.Points += points
	a.Levels[level] = s

	return points
}

// Percentage normalizes the weighted score into 0-100.
func (a *Accumulator) Percentage() float64 {
	return Percentage(a.WeightedScore, a.TotalPossible)
}

// Percentage returns weighted/possible as a percentage clamped to 0-100.
func Percentage(weighted, possible float64) float64 {
	if possible <= 0 {
		return 0
	}
	p := weighted / possible * 100
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}
