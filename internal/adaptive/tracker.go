package adaptive

import "github.com/abhisek/englevel/internal/cefr"

const (
	// RotationWindow is how many answers a non-extreme level serves before
	// the level is forced to change.
	RotationWindow = 3

	// RotationMajority is how many of the window's answers must be correct
	// for a forced move to go up rather than down.
	RotationMajority = 2

	// StreakLength is the run of same-outcome answers that moves the level.
	StreakLength = 2
)

// Reason explains the outcome of a single adaptation step.
type Reason string

const (
	ReasonNone       Reason = "none"
	ReasonStreakUp   Reason = "streak-up"
	ReasonStreakDown Reason = "streak-down"
	ReasonForcedUp   Reason = "forced-up"
	ReasonForcedDown Reason = "forced-down"
	ReasonSaturated  Reason = "saturated" // streak fired at A1 or C2
)

// Decision records what the tracker did after an answer.
type Decision struct {
	From   cefr.Level `json:"from"`
	To     cefr.Level `json:"to"`
	Reason Reason     `json:"reason"`
}

// Changed reports whether the level moved.
func (d Decision) Changed() bool {
	return d.From != d.To
}

// Tracker is the difficulty state of one assessment: the current level,
// the two streak counters and the answers given since the level was entered.
type Tracker struct {
	Current            cefr.Level   `json:"currentLevel"`
	ConsecutiveCorrect int          `json:"consecutiveCorrect"`
	ConsecutiveWrong   int          `json:"consecutiveWrong"`
	AtCurrentLevel     int          `json:"questionsAtCurrentLevel"`
	Progression        []cefr.Level `json:"levelProgression"`

	// Window holds the most recent outcomes at the current level, newest last.
	Window []bool `json:"window"`
}

// NewTracker returns a tracker positioned at start.
func NewTracker(start cefr.Level) *Tracker {
	return &Tracker{
		Current:     start,
		Progression: []cefr.Level{start},
	}
}

// Observe records one graded answer at the current level and applies the
// adaptation policies. Forced rotation is checked before streaks.
func (t *Tracker) Observe(correct bool) Decision {
	if correct {
		t.ConsecutiveCorrect++
		t.ConsecutiveWrong = 0
	} else {
		t.ConsecutiveWrong++
		t.ConsecutiveCorrect = 0
	}
	t.AtCurrentLevel++
	t.Window = append(t.Window, correct)
	if len(t.Window) > RotationWindow {
		t.Window = t.Window[len(t.Window)-RotationWindow:]
	}

	from := t.Current

	if t.AtCurrentLevel >= RotationWindow && !from.IsExtreme() {
		if t.windowCorrect() >= RotationMajority {
			return t.move(from.Up(), ReasonForcedUp)
		}
		return t.move(from.Down(), ReasonForcedDown)
	}

	switch {
	case t.ConsecutiveCorrect >= StreakLength:
		return t.move(from.Up(), ReasonStreakUp)
	case t.ConsecutiveWrong >= StreakLength:
		return t.move(from.Down(), ReasonStreakDown)
	}

	return Decision{From: from, To: from, Reason: ReasonNone}
}

// move applies a level change. A move that saturates at the edge of the
// scale leaves every counter untouched.
func (t *Tracker) move(to cefr.Level, reason Reason) Decision {
	from := t.Current
	if to == from {
		return Decision{From: from, To: from, Reason: ReasonSaturated}
	}

	t.Current = to
	t.ConsecutiveCorrect = 0
	t.ConsecutiveWrong = 0
	t.AtCurrentLevel = 0
	t.Window = nil
	t.Progression = append(t.Progression, to)

	return Decision{From: from, To: to, Reason: reason}
}

func (t *Tracker) windowCorrect() int {
	n := 0
	for _, c := range t.Window {
		if c {
			n++
		}
	}
	return n
}

// Clone returns a deep copy of the tracker.
func (t *Tracker) Clone() *Tracker {
	c := *t
	c.Progression = append([]cefr.Level(nil), t.Progression...)
	c.Window = append([]bool(nil), t.Window...)
	return &c
}
