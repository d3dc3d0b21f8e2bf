package scoring

import "github.com/abhisek/englevel/internal/cefr"

// Weights holds the points awarded for a correct and an incorrect answer at
// one level.
type Weights struct {
	Correct   float64 `json:"correct"`
	Incorrect float64 `json:"incorrect"`
}

// Mistakes on easy material are penalized hardest; the top two bands award a
// small positive weight even for a wrong answer.
var weightTable = map[cefr.Level]Weights{
	cefr.A1: {Correct: 1, Incorrect: -2.5},
	cefr.A2: {Correct: 2, Incorrect: -2.0},
	cefr.B1: {Correct: 3, Incorrect: -1.5},
	cefr.B2: {Correct: 4, Incorrect: -1.0},
	cefr.C1: {Correct: 6, Incorrect: 0.5},
	cefr.C2: {Correct: 8, Incorrect: 0.5},
}

// WeightsFor returns the point values for level. Unknown levels use B1's.
func WeightsFor(level cefr.Level) Weights {
	if w, ok := weightTable[level]; ok {
		return w
	}
	return weightTable[cefr.B1]
}

// Points returns the points for a single answer at level.
func (w Weights) Points(correct bool) float64 {
	if correct {
		return w.Correct
	}
	return w.Incorrect
}
