package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/nbx/internal/models"
)

const (
	accent  = lipgloss.Color("#7D56F4")
	success = lipgloss.Color("#04B575")
	failure = lipgloss.Color("#FF5F5F")
	pending = lipgloss.Color("#FFA500")
	muted   = lipgloss.Color("#626262")
)

// theme holds every style the views render with.
type theme struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
	box   lipgloss.Style
	badge lipgloss.Style
}

var styles = theme{
	title: fg(accent).Bold(true).MarginBottom(1),
	ok:    fg(success).Bold(true),
	err:   fg(failure).Bold(true),
	warn:  fg(pending),
	help:  fg(muted).Italic(true),
	box:   lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(accent).Padding(1, 2),
	badge: lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Padding(0, 1),
}

func fg(c lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c)
}

// statusStyle colors an artifact by its generation state.
func statusStyle(a models.Artifact) lipgloss.Style {
	switch {
	case a.InProgress():
		return styles.warn
	case a.Status == "failed" || a.Status == "error":
		return styles.err.UnsetBold()
	default:
		return fg(success)
	}
}

// roleBadge renders the role of the signed-in user as a colored tag.
func roleBadge(role models.Role) string {
	bg := success
	if role.IsAdmin() {
		bg = accent
	}
	return styles.badge.Background(bg).Render(string(role))
}
