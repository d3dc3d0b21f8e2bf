package placement

import (
	"time"

	"github.com/abhisek/englevel/internal/adaptive"
	"github.com/abhisek/englevel/internal/questionbank"
	"github.com/abhisek/englevel/internal/scoring"
)

// SnapshotVersion is bumped when the snapshot layout changes.
const SnapshotVersion = 1

// Snapshot is a serializable copy of a session.
type Snapshot struct {
	Version      int                     `json:"version"`
	State        State                   `json:"state"`
	MaxQuestions int                     `json:"maxQuestions"`
	MatchLevel   bool                    `json:"matchLevel,omitempty"`
	Queue        []questionbank.Question `json:"queue"`
	Current      *questionbank.Question  `json:"current,omitempty"`
	Answered     bool                    `json:"answered"`
	Tracker      *adaptive.Tracker       `json:"tracker,omitempty"`
	Score        *scoring.Accumulator    `json:"score,omitempty"`
	Grammar      map[string]GrammarStats `json:"grammar,omitempty"`
	History      []AnswerEvent           `json:"history"`
	Skipped      []string                `json:"skipped,omitempty"`
	StartedAt    time.Time               `json:"startedAt"`
	Result       *Result                 `json:"result,omitempty"`
}

// Snapshot returns a deep copy of the session state.
func (s *Session) Snapshot() *Snapshot {
	snap := &Snapshot{
		Version:      SnapshotVersion,
		State:        s.state,
		MaxQuestions: s.opts.MaxQuestions,
		MatchLevel:   s.opts.MatchLevel,
		Queue:        append([]questionbank.Question(nil), s.queue...),
		Answered:     s.answered,
		History:      append([]AnswerEvent(nil), s.history...),
		Skipped:      append([]string(nil), s.skipped...),
		StartedAt:    s.startedAt,
		Result:       s.result,
	}
	if s.current != nil {
		q := *s.current
		snap.Current = &q
	}
	if s.tracker != nil {
		snap.Tracker = s.tracker.Clone()
	}
	if s.score != nil {
		snap.Score = &scoring.Accumulator{
			WeightedScore: s.score.WeightedScore,
			TotalPossible: s.score.TotalPossible,
			Levels:        s.score.Levels.Clone(),
		}
	}
	if s.grammar != nil {
		snap.Grammar = make(map[string]GrammarStats, len(s.grammar))
		for k, v := range s.grammar {
			snap.Grammar[k] = v
		}
	}
	return snap
}

// Restore rebuilds a session from snap. MaxQuestions and MatchLevel come
// from the snapshot; the remaining options from opts.
func Restore(snap *Snapshot, opts Options) (*Session, error) {
	if snap == nil {
		return nil, &ErrCorruptSnapshot{Reason: "nil snapshot"}
	}
	if snap.Version != SnapshotVersion {
		return nil, &ErrCorruptSnapshot{Reason: "unsupported version"}
	}
	opts.MaxQuestions = snap.MaxQuestions
	opts.MatchLevel = snap.MatchLevel
	s := New(opts)

	if snap.State == StateNotStarted {
		return s, nil
	}

	if snap.Tracker == nil || snap.Score == nil {
		return nil, &ErrCorruptSnapshot{Reason: "missing tracker or score"}
	}
	if len(snap.History) > snap.MaxQuestions {
		return nil, &ErrCorruptSnapshot{Reason: "history exceeds question budget"}
	}
	if snap.Score.Levels.Total() != len(snap.History) {
		return nil, &ErrCorruptSnapshot{Reason: "level breakdown does not match history"}
	}
	prog := snap.Tracker.Progression
	if len(prog) == 0 || prog[len(prog)-1] != snap.Tracker.Current {
		return nil, &ErrCorruptSnapshot{Reason: "level progression does not end at current level"}
	}
	if snap.State == StateCompleted && snap.Result == nil {
		return nil, &ErrCorruptSnapshot{Reason: "completed session without result"}
	}

	s.state = snap.State
	s.queue = append([]questionbank.Question(nil), snap.Queue...)
	if snap.Current != nil {
		q := *snap.Current
		s.current = &q
	}
	s.answered = snap.Answered
	s.tracker = snap.Tracker.Clone()
	s.score = &scoring.Accumulator{
		WeightedScore: snap.Score.WeightedScore,
		TotalPossible: snap.Score.TotalPossible,
		Levels:        snap.Score.Levels.Clone(),
	}
	s.grammar = make(map[string]GrammarStats, len(snap.Grammar))
	for k, v := range snap.Grammar {
		s.grammar[k] = v
	}
	s.history = append([]AnswerEvent(nil), snap.History...)
	s.asked = len(snap.History)
	s.skipped = append([]string(nil), snap.Skipped...)
	s.startedAt = snap.StartedAt
	s.result = snap.Result
	return s, nil
}
