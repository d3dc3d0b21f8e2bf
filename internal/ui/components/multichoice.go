package components

import (
	"fmt"
	"strconv"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/englevel/internal/questionbank"
	"github.com/abhisek/englevel/internal/ui/theme"
)

// MultiChoice is a multiple-choice selector. Options are picked with the
// arrow keys and Enter, or directly with their number.
type MultiChoice struct {
	Options     []string
	Selected    int
	Submitted   bool
	ChosenIndex int

	// CorrectIndex is -1 until Reveal is called.
	CorrectIndex int
}

// NewMultiChoice creates a selector over options.
func NewMultiChoice(options []string) MultiChoice {
	return MultiChoice{
		Options:      options,
		ChosenIndex:  -1,
		CorrectIndex: -1,
	}
}

// Update handles keyboard navigation and selection.
func (m MultiChoice) Update(msg tea.Msg) (MultiChoice, tea.Cmd) {
	if m.Submitted {
		return m, nil
	}

	kmsg, ok := msg.(tea.KeyPressMsg)
	if !ok {
		return m, nil
	}

	key := kmsg.String()
	switch key {
	case "up", "k":
		if m.Selected > 0 {
			m.Selected--
		}
		return m, nil
	case "down", "j":
		if m.Selected < len(m.Options)-1 {
			m.Selected++
		}
		return m, nil
	case "enter":
		m.submit(m.Selected)
		return m, nil
	}

	if n, err := strconv.Atoi(key); err == nil && n >= 1 && n <= len(m.Options) {
		m.Selected = n - 1
		m.submit(n - 1)
	}
	return m, nil
}

func (m *MultiChoice) submit(i int) {
	if i < 0 || i >= len(m.Options) {
		return
	}
	m.Submitted = true
	m.ChosenIndex = i
}

// Choice returns the submitted option text, or "" before submission.
func (m MultiChoice) Choice() string {
	if !m.Submitted {
		return ""
	}
	return m.Options[m.ChosenIndex]
}

// Unsubmit reopens the selector, keeping the cursor where it was.
func (m *MultiChoice) Unsubmit() {
	m.Submitted = false
	m.ChosenIndex = -1
}

// Reveal marks the option matching answer as correct for rendering.
func (m *MultiChoice) Reveal(answer string) {
	q := questionbank.Question{CorrectAnswer: answer}
	for i, opt := range m.Options {
		if questionbank.CheckAnswer(opt, &q) {
			m.CorrectIndex = i
			return
		}
	}
}

// View renders the options.
func (m MultiChoice) View() string {
	var b strings.Builder
	for i, opt := range m.Options {
		prefix := "  "
		if i == m.Selected && !m.Submitted {
			prefix = "▸ "
		}
		line := fmt.Sprintf("%s%d)  %s", prefix, i+1, opt)

		switch {
		case m.Submitted && m.CorrectIndex >= 0 && i == m.CorrectIndex:
			line = theme.Correct.Render(line)
		case m.Submitted && i == m.ChosenIndex:
			if m.CorrectIndex >= 0 {
				line = theme.Incorrect.Render(line)
			} else {
				line = theme.Selected.Render(line)
			}
		case m.Submitted:
			line = theme.Dimmed.Render(line)
		case i == m.Selected:
			line = theme.Selected.Render(line)
		default:
			line = theme.Unselected.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}
