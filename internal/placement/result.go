package placement

import (
	"time"

	"github.com/abhisek/englevel/internal/cefr"
	"github.com/abhisek/englevel/internal/scoring"
)

// Result is the outcome of a completed assessment.
type Result struct {
	Score              float64                 `json:"score"`
	WeightedScore      float64                 `json:"weightedScore"`
	TotalPossibleScore float64                 `json:"totalPossibleScore"`
	RecommendedLevel   cefr.Level              `json:"recommendedLevel"`
	Confidence         float64                 `json:"confidence"`
	FoundationPenalty  bool                    `json:"foundationPenalty"`
	QuestionsAnswered  int                     `json:"questionsAnswered"`
	LevelBreakdown     scoring.Breakdown       `json:"levelBreakdown"`
	GrammarBreakdown   map[string]GrammarStats `json:"grammarBreakdown"`
	LevelProgression   []cefr.Level            `json:"levelProgression"`
	StartedAt          time.Time               `json:"startedAt"`
	CompletedAt        time.Time               `json:"completedAt"`
}

// Duration returns how long the assessment took.
func (r *Result) Duration() time.Duration {
	return r.CompletedAt.Sub(r.StartedAt)
}

func (s *Session) buildResult() *Result {
	inf := scoring.Infer(s.score.Levels)

	grammar := make(map[string]GrammarStats, len(s.grammar))
	for k, v := range s.grammar {
		grammar[k] = v
	}

	return &Result{
		Score:              s.score.Percentage(),
		WeightedScore:      s.score.WeightedScore,
		TotalPossibleScore: s.score.TotalPossible,
		RecommendedLevel:   inf.Level,
		Confidence:         inf.Confidence,
		FoundationPenalty:  inf.FoundationPenalty,
		QuestionsAnswered:  s.asked,
		LevelBreakdown:     s.score.Levels.Clone(),
		GrammarBreakdown:   grammar,
		LevelProgression:   append([]cefr.Level(nil), s.tracker.Progression...),
		StartedAt:          s.startedAt,
		CompletedAt:        s.opts.Now(),
	}
}
