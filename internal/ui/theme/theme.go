package theme

import (
	"charm.land/lipgloss/v2"

	"github.com/abhisek/englevel/internal/cefr"
)

// Color palette
var (
	Primary   = lipgloss.Color("#6366F1") // Indigo
	Secondary = lipgloss.Color("#14B8A6") // Teal
	Accent    = lipgloss.Color("#F59E0B") // Amber
	Success   = lipgloss.Color("#22C55E") // Green
	Error     = lipgloss.Color("#F43F5E") // Rose
	Text      = lipgloss.Color("#F8FAFC") // White
	TextDim   = lipgloss.Color("#94A3B8") // Slate
	BgCard    = lipgloss.Color("#1E293B") // Dark Slate
	Border    = lipgloss.Color("#334155") // Slate
)

// Band colors, from beginner to mastery.
var levelColors = map[cefr.Level]lipgloss.Style{
	cefr.A1: lipgloss.NewStyle().Foreground(lipgloss.Color("#F87171")),
	cefr.A2: lipgloss.NewStyle().Foreground(lipgloss.Color("#FB923C")),
	cefr.B1: lipgloss.NewStyle().Foreground(lipgloss.Color("#FACC15")),
	cefr.B2: lipgloss.NewStyle().Foreground(lipgloss.Color("#4ADE80")),
	cefr.C1: lipgloss.NewStyle().Foreground(lipgloss.Color("#38BDF8")),
	cefr.C2: lipgloss.NewStyle().Foreground(lipgloss.Color("#A78BFA")),
}

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Body = lipgloss.NewStyle().
		Foreground(Text)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)
)

// Layout
var (
	Card = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(1, 2)

	Rule = lipgloss.NewStyle().
		Foreground(Border)
)

// States
var (
	Selected = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	Unselected = lipgloss.NewStyle().
			Foreground(Text)

	Dimmed = lipgloss.NewStyle().
		Foreground(TextDim)

	Correct = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)

	Incorrect = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	Notice = lipgloss.NewStyle().
		Foreground(Accent).
		Bold(true)
)

// Level renders a CEFR level in its band color.
func Level(l cefr.Level) string {
	st, ok := levelColors[l]
	if !ok {
		st = Body
	}
	return st.Bold(true).Render(string(l))
}
