package placement

import (
	"strings"
	"time"

	"github.com/abhisek/englevel/internal/adaptive"
	"github.com/abhisek/englevel/internal/cefr"
	"github.com/abhisek/englevel/internal/questionbank"
	"github.com/abhisek/englevel/internal/scoring"
)

// Session is one placement assessment. It is not safe for concurrent use;
// callers serialize access per session.
type Session struct {
	opts  Options
	state State

	queue    []questionbank.Question
	current  *questionbank.Question
	answered bool

	tracker *adaptive.Tracker
	score   *scoring.Accumulator
	grammar map[string]GrammarStats
	history []AnswerEvent
	asked   int
	skipped []string

	startedAt time.Time
	result    *Result
}

// New returns a session in StateNotStarted.
func New(opts Options) *Session {
	return &Session{opts: opts.withDefaults()}
}

// Start selects the question queue from pool and begins the assessment at
// cefr.Baseline. On error the session stays in StateNotStarted.
func (s *Session) Start(pool []questionbank.Question) error {
	if s.state != StateNotStarted {
		return &ErrSessionNotActive{Op: "start", State: s.state}
	}

	queue, skipped, err := selectQuestions(pool, cefr.Baseline, s.opts.MaxQuestions, s.opts.Rand)
	s.skipped = skipped
	if err != nil {
		return err
	}

	s.queue = queue
	s.tracker = adaptive.NewTracker(cefr.Baseline)
	s.score = scoring.NewAccumulator()
	s.grammar = make(map[string]GrammarStats)
	s.history = nil
	s.asked = 0
	s.result = nil
	s.startedAt = s.opts.Now()
	s.state = StateInProgress
	s.serveNext()
	return nil
}

// SubmitAnswer grades answer against the current question and updates the
// score, grammar stats and difficulty level. Each question accepts one
// answer; call Advance to move on.
func (s *Session) SubmitAnswer(answer string) (Outcome, error) {
	if s.state != StateInProgress {
		return Outcome{}, &ErrSessionNotActive{Op: "submit answer", State: s.state}
	}
	if s.current == nil {
		return Outcome{}, &ErrInvalidAnswerSubmission{Reason: "no pending question"}
	}
	if s.answered {
		return Outcome{}, &ErrInvalidAnswerSubmission{Reason: "question already answered"}
	}
	if s.asked >= s.opts.MaxQuestions {
		return Outcome{}, &ErrInvalidAnswerSubmission{Reason: "question budget exhausted"}
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return Outcome{}, &ErrInvalidAnswerSubmission{Reason: "answer is empty"}
	}

	q := s.current
	correct := questionbank.CheckAnswer(answer, q)
	points := s.score.Record(q.Level, correct)

	g := s.grammar[q.Category]
	g.record(correct)
	s.grammar[q.Category] = g

	decision := s.tracker.Observe(correct)
	s.asked++
	s.answered = true

	s.history = append(s.history, AnswerEvent{
		Sequence:    s.asked,
		QuestionID:  q.ID,
		Level:       q.Level,
		Correct:     correct,
		Points:      points,
		Answer:      answer,
		Category:    q.Category,
		Topic:       q.Topic,
		LevelBefore: decision.From,
		LevelAfter:  decision.To,
		AnsweredAt:  s.opts.Now(),
	})

	return Outcome{
		QuestionID:        q.ID,
		Level:             q.Level,
		Correct:           correct,
		CorrectAnswer:     q.CorrectAnswer,
		Explanation:       q.Explanation,
		Points:            points,
		Decision:          decision,
		QuestionsAnswered: s.asked,
	}, nil
}

// Advance moves to the next question, or completes the session when the
// budget is spent or the queue is empty. An unanswered current question is
// dropped. Reports whether the session completed.
func (s *Session) Advance() (bool, error) {
	if s.state != StateInProgress {
		return false, &ErrSessionNotActive{Op: "advance", State: s.state}
	}
	if s.asked >= s.opts.MaxQuestions || len(s.queue) == 0 {
		if _, err := s.Complete(); err != nil {
			return false, err
		}
		return true, nil
	}
	s.serveNext()
	return false, nil
}

func (s *Session) serveNext() {
	if len(s.queue) == 0 {
		s.current = nil
		return
	}
	i := nextIndex(s.queue, s.tracker.Current, s.opts.MatchLevel)
	q := s.queue[i]
	s.queue = append(s.queue[:i:i], s.queue[i+1:]...)
	s.current = &q
	s.answered = false
}

// Complete ends the assessment and computes the result. Completed sessions
// accept no further operations except Reset.
func (s *Session) Complete() (*Result, error) {
	if s.state != StateInProgress {
		return nil, &ErrSessionNotActive{Op: "complete", State: s.state}
	}
	s.result = s.buildResult()
	s.current = nil
	s.state = StateCompleted
	return s.result, nil
}

// Reset discards all assessment state and returns to StateNotStarted.
func (s *Session) Reset() {
	opts := s.opts
	*s = Session{opts: opts}
}

// State returns the lifecycle state.
func (s *Session) State() State {
	return s.state
}

// CurrentQuestion returns the pending question, or nil.
func (s *Session) CurrentQuestion() *questionbank.Question {
	if s.current == nil {
		return nil
	}
	q := *s.current
	return &q
}

// Answered reports whether the current question has been answered.
func (s *Session) Answered() bool {
	return s.answered
}

// CurrentLevel returns the difficulty level, cefr.Baseline before Start.
func (s *Session) CurrentLevel() cefr.Level {
	if s.tracker == nil {
		return cefr.Baseline
	}
	return s.tracker.Current
}

// Progress returns a summary of where the session stands.
func (s *Session) Progress() Progress {
	p := Progress{
		State:        s.state,
		Answered:     s.asked,
		Max:          s.opts.MaxQuestions,
		Remaining:    s.opts.MaxQuestions - s.asked,
		CurrentLevel: s.CurrentLevel(),
	}
	if s.score != nil {
		p.WeightedScore = s.score.WeightedScore
	}
	return p
}

// History returns a copy of the answer events in submission order.
func (s *Session) History() []AnswerEvent {
	return append([]AnswerEvent(nil), s.history...)
}

// LevelProgression returns every level the session has been at.
func (s *Session) LevelProgression() []cefr.Level {
	if s.tracker == nil {
		return []cefr.Level{cefr.Baseline}
	}
	return append([]cefr.Level(nil), s.tracker.Progression...)
}

// Tracker returns a copy of the difficulty state.
func (s *Session) Tracker() *adaptive.Tracker {
	if s.tracker == nil {
		return adaptive.NewTracker(cefr.Baseline)
	}
	return s.tracker.Clone()
}

// Result returns the result of a completed session, or nil.
func (s *Session) Result() *Result {
	return s.result
}

// Skipped returns the IDs of malformed questions ignored by Start.
func (s *Session) Skipped() []string {
	return append([]string(nil), s.skipped...)
}

// MaxQuestions returns the question budget.
func (s *Session) MaxQuestions() int {
	return s.opts.MaxQuestions
}
