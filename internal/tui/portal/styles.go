package portal

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

const footerColWidth = 30

var (
	// Base colors
	primaryColor = lipgloss.Color("212")
	accentColor  = lipgloss.Color("45")
	mutedColor   = lipgloss.Color("241")
	warningColor = lipgloss.Color("214")
	errorColor   = lipgloss.Color("196")

	// Header
	brandStyle      = lipgloss.NewStyle().Bold(true).Foreground(primaryColor)
	navStyle        = lipgloss.NewStyle().Padding(0, 1)
	activeNavStyle  = lipgloss.NewStyle().Padding(0, 1).Bold(true).Background(lipgloss.Color("237")).Foreground(lipgloss.Color("255"))
	userStyle       = lipgloss.NewStyle().Foreground(accentColor)
	adminBadgeStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(warningColor).Padding(0, 1)

	// Panel styles
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	panelTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Background(lipgloss.Color("237")).
			Foreground(lipgloss.Color("255")).
			Padding(0, 1)

	// Footer
	footerColStyle  = lipgloss.NewStyle().Width(footerColWidth).MarginRight(2)
	footerHeadStyle = lipgloss.NewStyle().Bold(true).Underline(true)

	// Text styles
	titleStyle       = lipgloss.NewStyle().Bold(true)
	subtleStyle      = lipgloss.NewStyle().Foreground(mutedColor)
	helpStyle        = lipgloss.NewStyle().Foreground(mutedColor)
	errorStyle       = lipgloss.NewStyle().Foreground(errorColor)
	selectedRowStyle = lipgloss.NewStyle().Background(lipgloss.Color("237")).Foreground(lipgloss.Color("255"))
	pendingStyle     = lipgloss.NewStyle().Foreground(mutedColor).Italic(true)
)

// truncate shortens s to width cells, keeping escape sequences intact.
func truncate(s string, width int) string {
	if width <= 0 || ansi.StringWidth(s) <= width {
		return s
	}
	return ansi.Truncate(s, width, "…")
}
