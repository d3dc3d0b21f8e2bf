package layout

import (
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/englevel/internal/ui/theme"
)

// DefaultWidth is used until the terminal reports its size.
const DefaultWidth = 80

// KeyHint represents a key binding hint shown in the footer.
type KeyHint struct {
	Key         string
	Description string
}

// RenderHeader renders the title bar with right-aligned status text.
func RenderHeader(title, status string, width int) string {
	left := theme.Title.Render("  englevel") + theme.Dimmed.Render("  "+title)
	right := theme.Dimmed.Render(status)

	gap := width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	line := left + strings.Repeat(" ", gap) + right
	return line + "\n" + theme.Rule.Render(strings.Repeat("─", max(width, 1)))
}

// RenderFooter renders key hints.
func RenderFooter(hints []KeyHint) string {
	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		parts = append(parts, theme.Body.Bold(true).Render(h.Key)+" "+theme.Dimmed.Render(h.Description))
	}
	return "  " + strings.Join(parts, "   ")
}
