package dashboard

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/smileynet/dex/internal/catalog"
)

var (
	mutedText   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "240", Dark: "245"})
	errorText   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "1", Dark: "9"})
	titleText   = lipgloss.NewStyle().Bold(true)
	sectionText = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "4", Dark: "12"})
	statusText  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "240", Dark: "245"})
)

// TypeBadge returns a type name rendered in its palette's badge colours.
// Types without a palette render as muted bracketed text.
func TypeBadge(typeName string) string {
	if !catalog.KnownType(typeName) {
		return mutedText.Render("[" + typeName + "]")
	}
	c := catalog.TypeColors(typeName)
	return lipgloss.NewStyle().
		Background(lipgloss.Color(c.Badge)).
		Foreground(lipgloss.Color(c.BadgeText)).
		Padding(0, 1).
		Render(typeName)
}

// TypeName renders text in the accent colour of typeName.
func TypeName(typeName, text string) string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(catalog.TypeColors(typeName).Accent)).
		Render(text)
}

// FocusedBorder returns a lipgloss style with an accent-colored rounded border.
func FocusedBorder() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.AdaptiveColor{Light: "4", Dark: "12"})
}

// TypeBorder returns a rounded border in the border colour of typeName.
func TypeBorder(typeName string) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(catalog.TypeColors(typeName).Border))
}
