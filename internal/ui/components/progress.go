package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/englevel/internal/ui/theme"
)

// ProgressBar displays a horizontal bar for a fraction in [0, 1].
type ProgressBar struct {
	Label       string
	Percent     float64
	ShowPercent bool
	Width       int
}

// NewProgressBar creates a new progress bar.
func NewProgressBar(label string, percent float64, showPercent bool, width int) ProgressBar {
	return ProgressBar{
		Label:       label,
		Percent:     percent,
		ShowPercent: showPercent,
		Width:       width,
	}
}

// View renders the progress bar.
func (p ProgressBar) View() string {
	var result string
	if p.Label != "" {
		result += theme.Body.Render(p.Label) + "  "
	}

	percentWidth := 0
	if p.ShowPercent {
		percentWidth = 6 // "  100%"
	}
	barWidth := p.Width - lipgloss.Width(result) - percentWidth
	if barWidth < 4 {
		barWidth = 4
	}

	filled := int(float64(barWidth)*p.Percent + 0.5)
	filled = max(0, min(filled, barWidth))

	result += lipgloss.NewStyle().Foreground(theme.Secondary).Render(strings.Repeat("█", filled))
	result += lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("░", barWidth-filled))

	if p.ShowPercent {
		result += theme.Dimmed.Render(fmt.Sprintf("  %d%%", int(p.Percent*100+0.5)))
	}
	return result
}
