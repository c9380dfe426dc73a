package tui

import "github.com/charmbracelet/lipgloss"

var (
	accent = lipgloss.Color("#0969da")
	muted  = lipgloss.Color("#8c959f")
	danger = lipgloss.Color("#cf222e")
)

// Styles groups the lipgloss styles used by the chat view.
type Styles struct {
	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	User      lipgloss.Style
	Assistant lipgloss.Style
	Error     lipgloss.Style
	Help      lipgloss.Style
	Spinner   lipgloss.Style
	Frame     lipgloss.Style
}

// DefaultStyles returns the standard palette.
func DefaultStyles() Styles {
	return Styles{
		Title:     lipgloss.NewStyle().Bold(true).Foreground(accent),
		Subtitle:  lipgloss.NewStyle().Foreground(muted),
		User:      lipgloss.NewStyle().Bold(true).Foreground(accent),
		Assistant: lipgloss.NewStyle().Bold(true),
		Error:     lipgloss.NewStyle().Foreground(danger),
		Help:      lipgloss.NewStyle().Foreground(muted).Italic(true),
		Spinner:   lipgloss.NewStyle().Foreground(accent),
		Frame:     lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(muted).Padding(0, 1),
	}
}
