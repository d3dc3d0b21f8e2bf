package assessment

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/abhisek/englevel/internal/adaptive"
	"github.com/abhisek/englevel/internal/attempt"
	"github.com/abhisek/englevel/internal/cefr"
	"github.com/abhisek/englevel/internal/placement"
	"github.com/abhisek/englevel/internal/questionbank"
	"github.com/abhisek/englevel/internal/scoring"
	"github.com/abhisek/englevel/internal/sessioncache"
	"github.com/abhisek/englevel/internal/store"
)

func keyPress(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func specialKey(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

func ctrlC() tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: 'c', Mod: tea.ModCtrl}
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func newService(t *testing.T, maxQuestions int) *attempt.Service {
	t.Helper()
	s, err := store.OpenSQLite(filepath.Join(t.TempDir(), "englevel.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	svc, err := attempt.NewService(attempt.Deps{
		Supplier: questionbank.Seed(),
		Sink:     s.AttemptRepo(),
		History:  s.AttemptRepo(),
		Cache:    sessioncache.NewMemory(0),
	}, attempt.Options{MaxQuestions: maxQuestions, Seed: 3})
	require.NoError(t, err)
	return svc
}

// started runs Init and feeds the start message back.
func started(t *testing.T, m *Model) *Model {
	t.Helper()
	cmd := m.Init()
	require.NotNil(t, cmd)
	m.Update(cmd())
	return m
}

// fakeService serves a single free-text question.
type fakeService struct {
	startErr   error
	answerErr  error
	discardErr error
	answers    []string
	discarded  int
}

func (f *fakeService) view() attempt.View {
	return attempt.View{
		SessionID: "s1",
		State:     placement.StateInProgress,
		Question: &questionbank.Question{
			ID:       "a1-be-01",
			Prompt:   "She ___ a doctor.",
			Level:    cefr.A1,
			Category: "verbs",
			Topic:    "to be",
		},
		Progress: placement.Progress{Max: 1, CurrentLevel: cefr.B1},
	}
}

func (f *fakeService) Start(context.Context, string) (*attempt.View, error) {
	if f.startErr != nil {
		return nil, f.startErr
	}
	v := f.view()
	return &v, nil
}

func (f *fakeService) Answer(_ context.Context, _ string, answer string) (*attempt.AnswerResult, error) {
	f.answers = append(f.answers, answer)
	if f.answerErr != nil {
		return nil, f.answerErr
	}
	correct := answer == "is"
	v := f.view()
	v.State = placement.StateCompleted
	v.Question = nil
	v.Result = &placement.Result{RecommendedLevel: cefr.A1, QuestionsAnswered: 1, LevelProgression: []cefr.Level{cefr.B1}}
	return &attempt.AnswerResult{
		Outcome: placement.Outcome{
			QuestionID:        "a1-be-01",
			Level:             cefr.A1,
			Correct:           correct,
			CorrectAnswer:     "is",
			Points:            scoring.WeightsFor(cefr.A1).Points(correct),
			QuestionsAnswered: 1,
		},
		View: v,
	}, nil
}

func (f *fakeService) Complete(context.Context, string) (*placement.Result, error) {
	return &placement.Result{RecommendedLevel: cefr.A1}, nil
}

func (f *fakeService) Discard(context.Context, string) error {
	f.discarded++
	return f.discardErr
}

func TestModel_View_Loading(t *testing.T) {
	m := New(context.Background(), &fakeService{}, "", nil)
	assert.Contains(t, m.render(), "Preparing your questions")
}

func TestModel_Start(t *testing.T) {
	m := started(t, New(context.Background(), newService(t, 3), "alice", nil))

	require.Equal(t, phaseQuestion, m.phase)
	require.NotNil(t, m.view.Question)
	assert.True(t, m.mcActive, "seed questions around B1 are multiple choice")
	assert.Contains(t, m.render(), "Question 1/3")
	assert.Contains(t, m.render(), m.view.Question.Options[0])
}

func TestModel_StartError(t *testing.T) {
	m := started(t, New(context.Background(), &fakeService{startErr: errors.New("no questions")}, "", nil))

	assert.Equal(t, phaseError, m.phase)
	assert.Contains(t, m.render(), "no questions")

	_, cmd := m.Update(keyPress(' '))
	assert.True(t, isQuit(cmd))
	assert.EqualError(t, m.Err(), "no questions")
}

func TestModel_MultipleChoiceAnswer(t *testing.T) {
	m := started(t, New(context.Background(), newService(t, 3), "", nil))
	first := m.view.Question.ID

	m.Update(keyPress('1'))
	require.Equal(t, phaseFeedback, m.phase)
	require.NotNil(t, m.answered)
	assert.Equal(t, first, m.answered.Outcome.QuestionID)
	assert.True(t, m.mc.Submitted)
	assert.GreaterOrEqual(t, m.mc.CorrectIndex, 0)

	m.Update(keyPress(' '))
	require.Equal(t, phaseQuestion, m.phase)
	assert.NotEqual(t, first, m.view.Question.ID)
	assert.False(t, m.mc.Submitted)
	assert.Contains(t, m.render(), "Question 2/3")
}

func TestModel_ArrowsAndEnter(t *testing.T) {
	m := started(t, New(context.Background(), newService(t, 3), "", nil))
	options := m.view.Question.Options

	m.Update(specialKey(tea.KeyDown))
	m.Update(specialKey(tea.KeyDown))
	m.Update(specialKey(tea.KeyUp))
	assert.Equal(t, 1, m.mc.Selected)

	m.Update(specialKey(tea.KeyEnter))
	require.Equal(t, phaseFeedback, m.phase)
	assert.Equal(t, options[1], m.mc.Choice())
}

func TestModel_FullRun(t *testing.T) {
	svc := newService(t, 3)
	m := started(t, New(context.Background(), svc, "alice", nil))

	for i := 0; i < 20 && m.phase != phaseResult; i++ {
		switch m.phase {
		case phaseQuestion:
			m.Update(keyPress('1'))
		case phaseFeedback:
			m.Update(keyPress(' '))
		default:
			t.Fatalf("unexpected phase %d: %v", m.phase, m.Err())
		}
	}

	require.Equal(t, phaseResult, m.phase)
	require.NotNil(t, m.Result())
	assert.Equal(t, 3, m.Result().QuestionsAnswered)
	assert.NoError(t, m.Err())
	assert.Contains(t, m.render(), "Recommended level:")
	assert.Contains(t, m.render(), "Path:")

	_, cmd := m.Update(keyPress('q'))
	assert.True(t, isQuit(cmd))

	hist, err := svc.History(context.Background(), "alice", store.QueryOpts{})
	require.NoError(t, err)
	assert.Len(t, hist, 1)
}

func TestModel_FreeText(t *testing.T) {
	svc := &fakeService{}
	m := started(t, New(context.Background(), svc, "", nil))
	require.False(t, m.mcActive)

	m.Update(specialKey(tea.KeyEnter))
	assert.Equal(t, phaseQuestion, m.phase)
	assert.Contains(t, m.render(), "Type an answer first.")
	assert.Empty(t, svc.answers)

	m.input.Model.SetValue("  is ")
	m.Update(specialKey(tea.KeyEnter))
	require.Equal(t, phaseFeedback, m.phase)
	assert.Equal(t, []string{"is"}, svc.answers)
	assert.True(t, m.answered.Outcome.Correct)
	assert.Contains(t, m.render(), "Correct!")

	m.Update(keyPress(' '))
	assert.Equal(t, phaseResult, m.phase)
	assert.Equal(t, cefr.A1, m.Result().RecommendedLevel)
}

func TestModel_FreeTextWrongShowsAnswer(t *testing.T) {
	m := started(t, New(context.Background(), &fakeService{}, "", nil))

	m.input.Model.SetValue("are")
	m.Update(specialKey(tea.KeyEnter))
	require.Equal(t, phaseFeedback, m.phase)
	assert.Contains(t, m.render(), "Not quite")
	assert.Contains(t, m.render(), "Correct answer: is")
}

func TestModel_PersistFailureKeepsQuestion(t *testing.T) {
	svc := &fakeService{answerErr: &attempt.ErrPersist{SessionID: "s1", Err: errors.New("disk full")}}
	m := started(t, New(context.Background(), svc, "", nil))

	m.input.Model.SetValue("is")
	m.Update(specialKey(tea.KeyEnter))
	assert.Equal(t, phaseQuestion, m.phase)
	assert.Contains(t, m.render(), "Submit the same answer again.")
	assert.NoError(t, m.Err())

	svc.answerErr = nil
	m.Update(specialKey(tea.KeyEnter))
	assert.Equal(t, phaseFeedback, m.phase)
	assert.Equal(t, []string{"is", "is"}, svc.answers)
}

func TestModel_InvalidAnswerShowsReason(t *testing.T) {
	svc := &fakeService{answerErr: &placement.ErrInvalidAnswerSubmission{Reason: "question already answered"}}
	m := started(t, New(context.Background(), svc, "", nil))

	m.input.Model.SetValue("is")
	m.Update(specialKey(tea.KeyEnter))
	assert.Equal(t, phaseQuestion, m.phase)
	assert.Contains(t, m.render(), "question already answered")
}

func TestModel_QuitConfirm(t *testing.T) {
	m := started(t, New(context.Background(), newService(t, 15), "", nil))

	m.Update(specialKey(tea.KeyEscape))
	require.Equal(t, phaseQuitConfirm, m.phase)
	assert.Contains(t, m.render(), "Finish the test now?")

	m.Update(keyPress('n'))
	assert.Equal(t, phaseQuestion, m.phase)

	m.Update(specialKey(tea.KeyEscape))
	m.Update(keyPress('y'))
	require.Equal(t, phaseResult, m.phase)
	assert.Equal(t, 0, m.Result().QuestionsAnswered)
	assert.Equal(t, cefr.A1, m.Result().RecommendedLevel)
}

func TestModel_CtrlCDiscards(t *testing.T) {
	svc := newService(t, 15)
	m := started(t, New(context.Background(), svc, "", nil))
	id := m.view.SessionID

	_, cmd := m.Update(ctrlC())
	assert.True(t, isQuit(cmd))
	assert.ErrorIs(t, m.Err(), ErrInterrupted)

	_, err := svc.Get(context.Background(), id)
	assert.ErrorIs(t, err, attempt.ErrSessionNotFound)
}

func TestModel_CtrlCLogsDiscardFailure(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	svc := &fakeService{discardErr: errors.New("cache down")}
	m := started(t, New(context.Background(), svc, "", zap.New(core)))

	_, cmd := m.Update(ctrlC())
	assert.True(t, isQuit(cmd))
	assert.Equal(t, 1, svc.discarded)

	entries := logs.FilterMessage("discard session").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "s1", entries[0].ContextMap()["session_id"])
}

func TestModel_CtrlCAfterResultKeepsAttempt(t *testing.T) {
	svc := &fakeService{}
	m := started(t, New(context.Background(), svc, "", nil))
	m.input.Model.SetValue("is")
	m.Update(specialKey(tea.KeyEnter))
	m.Update(keyPress(' '))
	require.Equal(t, phaseResult, m.phase)

	m.Update(ctrlC())
	assert.NoError(t, m.Err())
	assert.Zero(t, svc.discarded)
}

func TestModel_WindowSize(t *testing.T) {
	m := New(context.Background(), &fakeService{}, "", nil)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	assert.Equal(t, 120, m.width)
}

func TestRenderResult(t *testing.T) {
	res := &placement.Result{
		Score:              40,
		WeightedScore:      4,
		TotalPossibleScore: 10,
		RecommendedLevel:   cefr.A1,
		Confidence:         45,
		FoundationPenalty:  true,
		QuestionsAnswered:  8,
		LevelBreakdown: scoring.Breakdown{
			cefr.A1: {Correct: 1, Total: 3, Points: -4},
			cefr.B1: {Correct: 4, Total: 5, Points: 10.5},
		},
		GrammarBreakdown: map[string]placement.GrammarStats{
			"tenses":   {Correct: 2, Total: 3},
			"articles": {Correct: 3, Total: 5},
		},
		LevelProgression: []cefr.Level{cefr.B1, cefr.B2, cefr.B1},
	}

	out := RenderResult(res, 80)
	assert.Contains(t, out, "Recommended level:")
	assert.Contains(t, out, "Beginner")
	assert.Contains(t, out, "Questions:  8")
	assert.Contains(t, out, "capped at A1")
	assert.Contains(t, out, "1/3")
	assert.Contains(t, out, "articles")
	assert.Contains(t, out, "Path:")
	assert.Empty(t, RenderResult(nil, 80))
}

func TestReasonText(t *testing.T) {
	tests := []struct {
		reason adaptive.Reason
		want   string
	}{
		{adaptive.ReasonStreakUp, "two correct in a row"},
		{adaptive.ReasonStreakDown, "two wrong in a row"},
		{adaptive.ReasonForcedUp, "three questions at this level"},
		{adaptive.ReasonForcedDown, "three questions at this level"},
		{adaptive.ReasonSaturated, "saturated"},
	}
	for _, tt := range tests {
		if got := reasonText(tt.reason); got != tt.want {
			t.Errorf("reasonText(%q) = %q, want %q", tt.reason, got, tt.want)
		}
	}
}
