package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/estateplan/internal/tui/theme"
)

// RenderStatusBar renders the bottom status bar.
func RenderStatusBar(width int, dataAge string, refreshing, autoRefresh bool) string {
	t := theme.Active

	style := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface)
	accent := lipgloss.NewStyle().
		Foreground(t.Accent).
		Background(t.Surface)

	left := style.Render(" [?]help  [r]efresh  [q]uit")

	var right string
	switch {
	case refreshing:
		right = accent.Render("refreshing… ")
	case autoRefresh:
		right = style.Render("auto ") + accent.Render("●") + style.Render(" ")
	}
	if dataAge != "" {
		right += style.Render("Loaded in " + dataAge + " ")
	}

	padding := width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 0 {
		padding = 0
	}
	return left + style.Render(strings.Repeat(" ", padding)) + right
}
