package placement

import (
	"math/rand/v2"
	"time"

	"github.com/abhisek/englevel/internal/adaptive"
	"github.com/abhisek/englevel/internal/cefr"
)

// DefaultMaxQuestions is the length of a standard assessment.
const DefaultMaxQuestions = 15

// State is the lifecycle phase of a session.
type State int

const (
	StateNotStarted State = iota // No pool loaded
	StateInProgress              // Serving questions
	StateCompleted               // Result computed, terminal
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not-started"
	case StateInProgress:
		return "in-progress"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(b []byte) error {
	switch string(b) {
	case "not-started":
		*s = StateNotStarted
	case "in-progress":
		*s = StateInProgress
	case "completed":
		*s = StateCompleted
	default:
		return &ErrCorruptSnapshot{Reason: "unknown state " + string(b)}
	}
	return nil
}

// Options configures a session.
type Options struct {
	// MaxQuestions is the number of questions served. Defaults to DefaultMaxQuestions.
	MaxQuestions int

	// Rand drives topic selection and shuffling. Defaults to a randomly seeded PCG.
	Rand *rand.Rand

	// MatchLevel serves the queued question nearest the current level instead
	// of strict queue order.
	MatchLevel bool

	// Now is the clock used for timestamps. Defaults to time.Now.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.MaxQuestions <= 0 {
		o.MaxQuestions = DefaultMaxQuestions
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// NewRand returns a deterministic random source for seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// GrammarStats aggregates answers for one grammar category.
type GrammarStats struct {
	Correct  int     `json:"correct"`
	Total    int     `json:"total"`
	Accuracy float64 `json:"accuracy"`
}

func (g *GrammarStats) record(correct bool) {
	g.Total++
	if correct {
		g.Correct++
	}
	g.Accuracy = float64(g.Correct) / float64(g.Total)
}

// AnswerEvent is one graded answer. Events are appended in order and never
// modified.
type AnswerEvent struct {
	Sequence    int        `json:"sequence"`
	QuestionID  string     `json:"questionId"`
	Level       cefr.Level `json:"level"`
	Correct     bool       `json:"correct"`
	Points      float64    `json:"points"`
	Answer      string     `json:"answer"`
	Category    string     `json:"grammarCategory"`
	Topic       string     `json:"grammarTopic"`
	LevelBefore cefr.Level `json:"levelBefore"`
	LevelAfter  cefr.Level `json:"levelAfter"`
	AnsweredAt  time.Time  `json:"answeredAt"`
}

// Outcome is returned by SubmitAnswer.
type Outcome struct {
	QuestionID        string            `json:"questionId"`
	Level             cefr.Level        `json:"level"`
	Correct           bool              `json:"correct"`
	CorrectAnswer     string            `json:"correctAnswer"`
	Explanation       string            `json:"explanation,omitempty"`
	Points            float64           `json:"points"`
	Decision          adaptive.Decision `json:"decision"`
	QuestionsAnswered int               `json:"questionsAnswered"`
}

// Progress is a point-in-time view of a session.
type Progress struct {
	State         State      `json:"state"`
	Answered      int        `json:"answered"`
	Max           int        `json:"max"`
	Remaining     int        `json:"remaining"`
	CurrentLevel  cefr.Level `json:"currentLevel"`
	WeightedScore float64    `json:"weightedScore"`
}
