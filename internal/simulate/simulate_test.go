package simulate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/englevel/internal/cefr"
	"github.com/abhisek/englevel/internal/placement"
	"github.com/abhisek/englevel/internal/questionbank"
)

func TestPCorrect(t *testing.T) {
	l := Learner{Level: cefr.B1, Slope: 1.6, Mastery: 0.75}
	free := questionbank.Question{Level: cefr.B1, CorrectAnswer: "x"}
	if got := l.PCorrect(&free); got < 0.7499 || got > 0.7501 {
		t.Errorf("PCorrect at own level = %v, want 0.75", got)
	}

	hard := questionbank.Question{Level: cefr.C2, CorrectAnswer: "x"}
	easy := questionbank.Question{Level: cefr.A1, CorrectAnswer: "x"}
	assert.Less(t, l.PCorrect(&hard), 0.1)
	assert.Greater(t, l.PCorrect(&easy), 0.95)

	mc := questionbank.Question{Level: cefr.C2, CorrectAnswer: "a", Options: []string{"a", "b", "c", "d"}}
	assert.GreaterOrEqual(t, l.PCorrect(&mc), 0.25)
}

func TestAnswer(t *testing.T) {
	rng := placement.NewRand(1)
	never := Learner{Level: cefr.A1, Slope: 40, Mastery: 0.01}
	always := Learner{Level: cefr.C2, Slope: 40, Mastery: 0.99}

	mc := questionbank.Question{Level: cefr.C2, CorrectAnswer: "went", Options: []string{"went", "gone", "go"}}
	free := questionbank.Question{Level: cefr.C2, CorrectAnswer: "had"}
	easy := questionbank.Question{Level: cefr.A1, CorrectAnswer: "is", Options: []string{"is", "are"}}

	for i := 0; i < 20; i++ {
		assert.False(t, questionbank.CheckAnswer(never.Answer(&free, rng), &free))
		assert.Equal(t, "is", always.Answer(&easy, rng))
	}

	wrong := 0
	for i := 0; i < 200; i++ {
		a := never.Answer(&mc, rng)
		assert.Contains(t, mc.Options, a)
		if a != "went" {
			wrong++
		}
	}
	assert.Greater(t, wrong, 100, "a weak learner mostly misses hard items")
}

func TestRun_Validation(t *testing.T) {
	pool := questionbank.SeedQuestions()
	ctx := context.Background()

	tests := []struct {
		name string
		cfg  Config
	}{
		{"invalid level", Config{Learner: Learner{Level: "Z1", Slope: 1, Mastery: 0.5}, Runs: 1}},
		{"zero runs", Config{Learner: DefaultLearner(cefr.B1)}},
		{"mastery one", Config{Learner: Learner{Level: cefr.B1, Slope: 1, Mastery: 1}, Runs: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Run(ctx, pool, tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestRun_InsufficientPool(t *testing.T) {
	pool := questionbank.SeedQuestions()[:5]
	_, err := Run(context.Background(), pool, Config{Learner: DefaultLearner(cefr.B1), Runs: 1})

	var insufficient *placement.ErrInsufficientQuestionPool
	assert.True(t, errors.As(err, &insufficient), "got %v", err)
}

func TestRun_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, questionbank.SeedQuestions(), Config{Learner: DefaultLearner(cefr.B1), Runs: 3})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_Deterministic(t *testing.T) {
	cfg := Config{Learner: DefaultLearner(cefr.B1), Runs: 20, Seed: 5}
	a, err := Run(context.Background(), questionbank.SeedQuestions(), cfg)
	require.NoError(t, err)
	b, err := Run(context.Background(), questionbank.SeedQuestions(), cfg)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRun_Report(t *testing.T) {
	pool := questionbank.SeedQuestions()
	ctx := context.Background()

	weak, err := Run(ctx, pool, Config{
		Learner: Learner{Level: cefr.A1, Slope: 2, Mastery: 0.5},
		Runs:    50,
		Seed:    11,
	})
	require.NoError(t, err)

	strong, err := Run(ctx, pool, Config{
		Learner: Learner{Level: cefr.C2, Slope: 3, Mastery: 0.97},
		Runs:    50,
		Seed:    11,
	})
	require.NoError(t, err)

	total := 0
	for _, n := range weak.Distribution {
		total += n
	}
	assert.Equal(t, 50, total)
	assert.GreaterOrEqual(t, weak.WithinOne, weak.Exact)

	assert.Equal(t, cefr.A1, weak.Mode())
	assert.Equal(t, cefr.B2, strong.Mode(), "the seed pool is selected around B1, so B2 is the ceiling")
	assert.Greater(t, strong.MeanScore, weak.MeanScore+30)
	assert.Greater(t, strong.MeanConfidence, weak.MeanConfidence)
	assert.InDelta(t, weak.ExactRate(), float64(weak.Exact)/50, 1e-9)

	levels := strong.Levels()
	for i := 1; i < len(levels); i++ {
		assert.True(t, levels[i-1].Less(levels[i]))
	}
}

func TestReport_EmptyRates(t *testing.T) {
	var r Report
	assert.Zero(t, r.ExactRate())
	assert.Zero(t, r.WithinOneRate())
}
