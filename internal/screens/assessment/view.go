package assessment

import (
	"fmt"
	"sort"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/englevel/internal/adaptive"
	"github.com/abhisek/englevel/internal/cefr"
	"github.com/abhisek/englevel/internal/placement"
	"github.com/abhisek/englevel/internal/ui/components"
	"github.com/abhisek/englevel/internal/ui/layout"
	"github.com/abhisek/englevel/internal/ui/theme"
)

func (m *Model) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true
	v.SetContent(m.render())
	return v
}

// render returns the frame for the current phase.
func (m *Model) render() string {
	var body string
	switch m.phase {
	case phaseLoading:
		body = theme.Dimmed.Render("\n  Preparing your questions...")
	case phaseError:
		body = theme.Incorrect.Render(fmt.Sprintf("\n  Error: %v", m.err)) +
			"\n\n" + theme.Hint.Render("  Press any key to exit.")
	case phaseQuitConfirm:
		body = renderQuitConfirm()
	case phaseFeedback:
		body = m.renderFeedback()
	case phaseResult:
		body = RenderResult(m.result, m.width)
	default:
		body = m.renderQuestion()
	}

	return layout.RenderHeader(m.title(), m.status(), m.width) + "\n\n" +
		body + "\n\n" + layout.RenderFooter(m.keyHints())
}

func (m *Model) title() string {
	if m.phase == phaseResult {
		return "Result"
	}
	return "Placement test"
}

func (m *Model) status() string {
	if m.view == nil || m.phase == phaseResult {
		return ""
	}
	p := m.view.Progress
	n := p.Answered + 1
	if m.phase == phaseFeedback && m.answered != nil {
		n = m.answered.Outcome.QuestionsAnswered
	}
	return fmt.Sprintf("Question %d/%d", min(n, p.Max), p.Max)
}

func (m *Model) keyHints() []layout.KeyHint {
	switch m.phase {
	case phaseQuitConfirm:
		return []layout.KeyHint{{Key: "Y", Description: "Finish now"}, {Key: "N", Description: "Keep going"}}
	case phaseFeedback:
		return []layout.KeyHint{{Key: "any key", Description: "Continue"}}
	case phaseResult, phaseError:
		return []layout.KeyHint{{Key: "any key", Description: "Exit"}}
	case phaseQuestion:
		if m.mcActive {
			return []layout.KeyHint{
				{Key: "1-9", Description: "Answer"},
				{Key: "↑↓", Description: "Move"},
				{Key: "Enter", Description: "Submit"},
				{Key: "Esc", Description: "Finish early"},
			}
		}
		return []layout.KeyHint{{Key: "Enter", Description: "Submit"}, {Key: "Esc", Description: "Finish early"}}
	}
	return []layout.KeyHint{{Key: "Ctrl+C", Description: "Quit"}}
}

func (m *Model) renderQuestion() string {
	q := m.view.Question
	var b strings.Builder

	b.WriteString("  " + theme.Level(q.Level) + theme.Dimmed.Render(" · "+q.Category) + "\n\n")
	b.WriteString(theme.Body.Bold(true).Width(max(m.width-4, 20)).Render("  "+q.Prompt) + "\n\n")

	if m.mcActive {
		b.WriteString(m.mc.View())
	} else {
		b.WriteString("  Answer: " + m.input.View() + "\n")
	}

	if m.notice != "" {
		b.WriteString("\n  " + theme.Notice.Render(m.notice) + "\n")
	}
	return b.String()
}

func (m *Model) renderFeedback() string {
	o := m.answered.Outcome
	var b strings.Builder

	if m.view != nil && m.view.Question != nil {
		b.WriteString(theme.Body.Bold(true).Render("  "+m.view.Question.Prompt) + "\n\n")
	}
	if m.mcActive {
		b.WriteString(m.mc.View() + "\n")
	} else {
		b.WriteString("  Answer: " + m.input.View() + "\n\n")
	}

	if o.Correct {
		b.WriteString("  " + theme.Correct.Render(fmt.Sprintf("Correct! %+.1f", o.Points)) + "\n")
	} else {
		b.WriteString("  " + theme.Incorrect.Render(fmt.Sprintf("Not quite %+.1f", o.Points)) + "\n")
		b.WriteString(theme.Dimmed.Render(fmt.Sprintf("  Correct answer: %s", o.CorrectAnswer)) + "\n")
	}
	if o.Explanation != "" {
		b.WriteString("\n" + theme.Body.Width(min(m.width-4, 70)).Render("  "+o.Explanation) + "\n")
	}
	if o.Decision.Changed() {
		b.WriteString(fmt.Sprintf("\n  %s %s → %s (%s)\n",
			theme.Notice.Render("Level"),
			theme.Level(o.Decision.From), theme.Level(o.Decision.To), reasonText(o.Decision.Reason)))
	}
	return b.String()
}

func renderQuitConfirm() string {
	return theme.Body.Bold(true).Render("  Finish the test now?") + "\n" +
		theme.Dimmed.Render("  Your level is estimated from the answers so far.") + "\n\n" +
		theme.Correct.Render("  [Y] Yes, show my result") + "\n" +
		theme.Selected.Render("  [N] No, keep going")
}

func reasonText(r adaptive.Reason) string {
	switch r {
	case adaptive.ReasonStreakUp:
		return "two correct in a row"
	case adaptive.ReasonStreakDown:
		return "two wrong in a row"
	case adaptive.ReasonForcedUp, adaptive.ReasonForcedDown:
		return "three questions at this level"
	default:
		return string(r)
	}
}

// RenderResult renders a finished assessment.
func RenderResult(r *placement.Result, width int) string {
	if r == nil {
		return ""
	}
	barWidth := min(max(width-12, 24), 60)

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Recommended level: %s  %s\n",
		theme.Level(r.RecommendedLevel), theme.Dimmed.Render(r.RecommendedLevel.DisplayName())))
	b.WriteString(components.NewProgressBar("Confidence", r.Confidence/100, true, barWidth).View() + "\n")
	b.WriteString(fmt.Sprintf("Score:      %.1f%% (%.1f of %.1f points)\n", r.Score, r.WeightedScore, r.TotalPossibleScore))
	b.WriteString(fmt.Sprintf("Questions:  %d\n", r.QuestionsAnswered))
	if r.FoundationPenalty {
		b.WriteString(theme.Notice.Render("A1 answers were mostly wrong, so the placement was capped at A1.") + "\n")
	}

	b.WriteString("\n" + theme.Title.Render("By level") + "\n")
	for _, l := range cefr.All() {
		st, ok := r.LevelBreakdown[l]
		if !ok || st.Total == 0 {
			continue
		}
		bar := components.NewProgressBar("", st.Accuracy(), false, barWidth/2).View()
		b.WriteString(fmt.Sprintf("  %s  %s  %d/%d  %+.1f pts\n", theme.Level(l), bar, st.Correct, st.Total, st.Points))
	}

	if len(r.GrammarBreakdown) > 0 {
		b.WriteString("\n" + theme.Title.Render("By grammar area") + "\n")
		cats := make([]string, 0, len(r.GrammarBreakdown))
		for c := range r.GrammarBreakdown {
			cats = append(cats, c)
		}
		sort.Strings(cats)
		for _, c := range cats {
			g := r.GrammarBreakdown[c]
			b.WriteString(fmt.Sprintf("  %-16s %d/%d\n", c, g.Correct, g.Total))
		}
	}

	path := make([]string, len(r.LevelProgression))
	for i, l := range r.LevelProgression {
		path[i] = theme.Level(l)
	}
	b.WriteString("\nPath: " + strings.Join(path, " → "))

	return theme.Card.Width(min(width, 80)).Render(b.String())
}
