package cefr

import (
	"fmt"
	"strings"
)

// Level is a CEFR proficiency band.
type Level string

const (
	A1 Level = "A1"
	A2 Level = "A2"
	B1 Level = "B1"
	B2 Level = "B2"
	C1 Level = "C1"
	C2 Level = "C2"
)

// Baseline is the level every assessment starts at.
const Baseline = B1

var levels = [...]Level{A1, A2, B1, B2, C1, C2}

// All returns every level from lowest to highest.
func All() []Level {
	out := make([]Level, len(levels))
	copy(out, levels[:])
	return out
}

// Count is the number of bands on the scale.
func Count() int {
	return len(levels)
}

// Parse converts a symbol such as "b2" into a Level.
func Parse(s string) (Level, error) {
	l := Level(strings.ToUpper(strings.TrimSpace(s)))
	if !l.Valid() {
		return "", fmt.Errorf("invalid CEFR level %q", s)
	}
	return l, nil
}

// MustParse is like Parse but panics on an invalid symbol.
func MustParse(s string) Level {
	l, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return l
}

// Valid reports whether l is one of the six bands.
func (l Level) Valid() bool {
	return l.Index() >= 0
}

// Index returns the position of l on the scale (A1 = 0), or -1 if l is not
// a valid level.
func (l Level) Index() int {
	for i, v := range levels {
		if v == l {
			return i
		}
	}
	return -1
}

// AtIndex returns the level at position i, clamped to [A1, C2].
func AtIndex(i int) Level {
	if i < 0 {
		i = 0
	}
	if i >= len(levels) {
		i = len(levels) - 1
	}
	return levels[i]
}

// Distance returns the number of bands between a and b.
func Distance(a, b Level) int {
	d := mustIndex(a) - mustIndex(b)
	if d < 0 {
		return -d
	}
	return d
}

// Up returns the next band, saturating at C2.
func (l Level) Up() Level {
	return AtIndex(mustIndex(l) + 1)
}

// Down returns the previous band, saturating at A1.
func (l Level) Down() Level {
	return AtIndex(mustIndex(l) - 1)
}

// IsExtreme reports whether l is the lowest or highest band.
func (l Level) IsExtreme() bool {
	return l == A1 || l == C2
}

// Less reports whether l sits below other on the scale.
func (l Level) Less(other Level) bool {
	return mustIndex(l) < mustIndex(other)
}

func (l Level) String() string {
	return string(l)
}

// DisplayName returns a human-readable label for the band.
func (l Level) DisplayName() string {
	switch l {
	case A1:
		return "Beginner"
	case A2:
		return "Elementary"
	case B1:
		return "Intermediate"
	case B2:
		return "Upper Intermediate"
	case C1:
		return "Advanced"
	case C2:
		return "Proficient"
	default:
		return string(l)
	}
}

// mustIndex panics on an invalid level: passing one is a programmer error.
func mustIndex(l Level) int {
	i := l.Index()
	if i < 0 {
		panic(fmt.Sprintf("cefr: invalid level %q", string(l)))
	}
	return i
}
