// Package simulate runs synthetic learners through placement sessions to
// show how the engine places a learner of known ability.
package simulate

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/abhisek/englevel/internal/cefr"
	"github.com/abhisek/englevel/internal/placement"
	"github.com/abhisek/englevel/internal/questionbank"
)

// Learner answers questions with a probability that depends on the gap
// between its true level and the question level.
type Learner struct {
	Level cefr.Level

	// Slope controls how quickly accuracy falls off above the true level.
	Slope float64

	// Mastery is the chance of a correct answer at exactly the true level.
	Mastery float64
}

// DefaultLearner returns a learner with typical response behaviour.
func DefaultLearner(level cefr.Level) Learner {
	return Learner{Level: level, Slope: 1.6, Mastery: 0.75}
}

// PCorrect returns the probability of answering q correctly. Multiple-choice
// items never drop below the guessing rate.
func (l Learner) PCorrect(q *questionbank.Question) float64 {
	gap := float64(l.Level.Index() - q.Level.Index())
	bias := math.Log(l.Mastery / (1 - l.Mastery))
	p := 1 / (1 + math.Exp(-(l.Slope*gap + bias)))
	if q.IsMultipleChoice() {
		guess := 1 / float64(len(q.Options))
		p = guess + (1-guess)*p
	}
	return p
}

// Answer returns the learner's answer to q.
func (l Learner) Answer(q *questionbank.Question, rng *rand.Rand) string {
	if rng.Float64() < l.PCorrect(q) {
		return q.CorrectAnswer
	}
	for _, opt := range q.Options {
		if !questionbank.CheckAnswer(opt, q) {
			return opt
		}
	}
	return "i don't know"
}

// Config describes a simulation.
type Config struct {
	Learner      Learner
	Runs         int
	MaxQuestions int
	MatchLevel   bool
	Seed         uint64
}

// Report summarizes the placements of a simulation.
type Report struct {
	TrueLevel      cefr.Level         `json:"trueLevel"`
	Runs           int                `json:"runs"`
	Distribution   map[cefr.Level]int `json:"distribution"`
	Exact          int                `json:"exact"`
	WithinOne      int                `json:"withinOne"`
	MeanConfidence float64            `json:"meanConfidence"`
	MeanScore      float64            `json:"meanScore"`
	MeanShifts     float64            `json:"meanLevelChanges"`
	Penalized      int                `json:"foundationPenalties"`
}

// ExactRate is the share of runs placed at the true level.
func (r *Report) ExactRate() float64 {
	if r.Runs == 0 {
		return 0
	}
	return float64(r.Exact) / float64(r.Runs)
}

// WithinOneRate is the share of runs placed at most one level away.
func (r *Report) WithinOneRate() float64 {
	if r.Runs == 0 {
		return 0
	}
	return float64(r.WithinOne) / float64(r.Runs)
}

// Mode returns the most frequent placement, preferring the lower level on
// ties.
func (r *Report) Mode() cefr.Level {
	var best cefr.Level
	for _, l := range cefr.All() {
		if best == "" || r.Distribution[l] > r.Distribution[best] {
			best = l
		}
	}
	return best
}

// Levels returns the placed levels in scale order.
func (r *Report) Levels() []cefr.Level {
	out := make([]cefr.Level, 0, len(r.Distribution))
	for l := range r.Distribution {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// Run plays cfg.Runs sessions against pool.
func Run(ctx context.Context, pool []questionbank.Question, cfg Config) (*Report, error) {
	if !cfg.Learner.Level.Valid() {
		return nil, fmt.Errorf("invalid learner level %q", cfg.Learner.Level)
	}
	if cfg.Learner.Mastery <= 0 || cfg.Learner.Mastery >= 1 {
		return nil, errors.New("learner mastery must be between 0 and 1")
	}
	if cfg.Runs <= 0 {
		return nil, errors.New("runs must be positive")
	}

	rng := placement.NewRand(cfg.Seed)
	rep := &Report{
		TrueLevel:    cfg.Learner.Level,
		Runs:         cfg.Runs,
		Distribution: make(map[cefr.Level]int),
	}

	var confidence, score, shifts float64
	for i := 0; i < cfg.Runs; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := play(pool, cfg, rng)
		if err != nil {
			return nil, fmt.Errorf("run %d: %w", i+1, err)
		}

		rep.Distribution[res.RecommendedLevel]++
		switch d := cefr.Distance(res.RecommendedLevel, cfg.Learner.Level); {
		case d == 0:
			rep.Exact++
			rep.WithinOne++
		case d == 1:
			rep.WithinOne++
		}
		if res.FoundationPenalty {
			rep.Penalized++
		}
		confidence += res.Confidence
		score += res.Score
		shifts += float64(len(res.LevelProgression) - 1)
	}

	n := float64(cfg.Runs)
	rep.MeanConfidence = confidence / n
	rep.MeanScore = score / n
	rep.MeanShifts = shifts / n
	return rep, nil
}

func play(pool []questionbank.Question, cfg Config, rng *rand.Rand) (*placement.Result, error) {
	s := placement.New(placement.Options{
		MaxQuestions: cfg.MaxQuestions,
		MatchLevel:   cfg.MatchLevel,
		Rand:         rng,
	})
	if err := s.Start(pool); err != nil {
		return nil, err
	}
	for s.State() == placement.StateInProgress {
		q := s.CurrentQuestion()
		if _, err := s.SubmitAnswer(cfg.Learner.Answer(q, rng)); err != nil {
			return nil, err
		}
		if _, err := s.Advance(); err != nil {
			return nil, err
		}
	}
	return s.Result(), nil
}
