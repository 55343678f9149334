package render

import "github.com/charmbracelet/lipgloss"

var (
	accent      = lipgloss.Color("#8BC34A")
	muted       = lipgloss.Color("#6b7280")
	destructive = lipgloss.Color("#e53935")

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(accent)
	errorStyle = lipgloss.NewStyle().Foreground(destructive)
	mutedStyle = lipgloss.NewStyle().Foreground(muted)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(muted).
			Padding(0, 1)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(accent).
			Padding(0, 1)
)

// frame draws body under a title inside a bordered panel, aligned for the session.
func frame(s Session, style lipgloss.Style, title string, body []string) string {
	align := lipgloss.Left
	if s.RTL() {
		align = lipgloss.Right
	}
	content := lipgloss.JoinVertical(align, append([]string{titleStyle.Render(title)}, body...)...)
	return style.Align(align).Render(content)
}
