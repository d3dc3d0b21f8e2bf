package assessment

import (
	"context"
	"errors"

	tea "charm.land/bubbletea/v2"
	"go.uber.org/zap"

	"github.com/abhisek/englevel/internal/attempt"
	"github.com/abhisek/englevel/internal/placement"
	"github.com/abhisek/englevel/internal/ui/components"
	"github.com/abhisek/englevel/internal/ui/layout"
)

// ErrInterrupted is reported when the learner leaves with Ctrl+C.
var ErrInterrupted = errors.New("assessment interrupted")

// answerCharLimit matches the API's answer length limit.
const answerCharLimit = 512

// Service is the part of the attempt service the screen drives.
type Service interface {
	Start(ctx context.Context, learnerID string) (*attempt.View, error)
	Answer(ctx context.Context, sessionID, answer string) (*attempt.AnswerResult, error)
	Complete(ctx context.Context, sessionID string) (*placement.Result, error)
	Discard(ctx context.Context, sessionID string) error
}

var _ Service = (*attempt.Service)(nil)

type phase int

const (
	phaseLoading phase = iota
	phaseQuestion
	phaseFeedback
	phaseQuitConfirm
	phaseResult
	phaseError
)

// Model is the Bubble Tea model for one placement test.
type Model struct {
	ctx     context.Context
	svc     Service
	learner string
	logger  *zap.Logger

	phase    phase
	view     *attempt.View
	answered *attempt.AnswerResult
	mcActive bool
	mc       components.MultiChoice
	input    components.TextInput
	notice   string
	result   *placement.Result
	err      error
	width    int
}

var _ tea.Model = (*Model)(nil)

// New creates the screen. The attempt starts when the program runs Init.
func New(ctx context.Context, svc Service, learnerID string, logger *zap.Logger) *Model {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Model{
		ctx:     ctx,
		svc:     svc,
		learner: learnerID,
		logger:  logger,
		width:   layout.DefaultWidth,
	}
}

// Result returns the finished assessment, or nil.
func (m *Model) Result() *placement.Result {
	return m.result
}

// Err returns the error that ended the screen, if any.
func (m *Model) Err() error {
	return m.err
}

func (m *Model) Init() tea.Cmd {
	return m.start()
}

func (m *Model) start() tea.Cmd {
	ctx, svc, learner := m.ctx, m.svc, m.learner
	return func() tea.Msg {
		v, err := svc.Start(ctx, learner)
		return startedMsg{View: v, Err: err}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case startedMsg:
		if msg.Err != nil {
			m.fail(msg.Err)
			return m, nil
		}
		return m, m.showQuestion(msg.View)

	case tea.KeyPressMsg:
		return m.handleKey(msg)
	}

	// Cursor blinks and the like go to the text input.
	if m.phase == phaseQuestion && !m.mcActive {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		m.interrupt()
		return m, tea.Quit
	}

	switch m.phase {
	case phaseLoading:
		return m, nil

	case phaseError, phaseResult:
		return m, tea.Quit

	case phaseQuitConfirm:
		switch key {
		case "y", "Y":
			return m.finishEarly()
		case "n", "N", "esc":
			m.phase = phaseQuestion
		}
		return m, nil

	case phaseFeedback:
		return m, m.next()
	}

	// phaseQuestion
	if key == "esc" {
		m.phase = phaseQuitConfirm
		return m, nil
	}

	if m.mcActive {
		m.mc, _ = m.mc.Update(msg)
		if m.mc.Submitted {
			return m.submit(m.mc.Choice())
		}
		return m, nil
	}

	if key == "enter" {
		answer := m.input.Value()
		if answer == "" {
			m.notice = "Type an answer first."
			return m, nil
		}
		return m.submit(answer)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// showQuestion switches to the question in v.
func (m *Model) showQuestion(v *attempt.View) tea.Cmd {
	m.view = v
	m.answered = nil
	m.notice = ""

	if v.Result != nil {
		m.result = v.Result
		m.phase = phaseResult
		return nil
	}
	q := v.Question
	if q == nil {
		m.fail(errors.New("no question to show"))
		return nil
	}

	m.phase = phaseQuestion
	m.mcActive = q.IsMultipleChoice()
	if m.mcActive {
		m.mc = components.NewMultiChoice(q.Options)
		return nil
	}
	m.input = components.NewTextInput("Type your answer...", answerCharLimit)
	return m.input.Init()
}

// submit grades answer. Rejected answers and storage failures leave the
// question open so the learner can try again.
func (m *Model) submit(answer string) (tea.Model, tea.Cmd) {
	res, err := m.svc.Answer(m.ctx, m.view.SessionID, answer)

	var (
		invalid *placement.ErrInvalidAnswerSubmission
		persist *attempt.ErrPersist
	)
	switch {
	case errors.As(err, &invalid):
		m.notice = invalid.Reason
		m.mc.Unsubmit()
		return m, nil
	case errors.As(err, &persist):
		m.logger.Warn("store attempt", zap.String("session_id", persist.SessionID), zap.Error(err))
		m.notice = "Could not save the result. Submit the same answer again."
		m.mc.Unsubmit()
		return m, nil
	case err != nil:
		m.fail(err)
		return m, nil
	}

	m.answered = res
	m.notice = ""
	if m.mcActive {
		m.mc.Reveal(res.Outcome.CorrectAnswer)
	} else {
		m.input.Submit(res.Outcome.Correct)
	}
	m.phase = phaseFeedback
	return m, nil
}

// next leaves the feedback view.
func (m *Model) next() tea.Cmd {
	res := m.answered
	if res == nil {
		return nil
	}
	if res.Result != nil {
		m.view = &res.View
		m.result = res.Result
		m.phase = phaseResult
		return nil
	}
	return m.showQuestion(&res.View)
}

func (m *Model) finishEarly() (tea.Model, tea.Cmd) {
	res, err := m.svc.Complete(m.ctx, m.view.SessionID)
	if err != nil {
		m.fail(err)
		return m, nil
	}
	m.result = res
	m.phase = phaseResult
	return m, nil
}

// interrupt drops an unfinished attempt.
func (m *Model) interrupt() {
	if m.result != nil {
		return
	}
	m.err = ErrInterrupted
	if m.view == nil {
		return
	}
	if err := m.svc.Discard(m.ctx, m.view.SessionID); err != nil {
		m.logger.Warn("discard session", zap.String("session_id", m.view.SessionID), zap.Error(err))
	}
}

func (m *Model) fail(err error) {
	m.err = err
	m.phase = phaseError
}
