package cli

import "github.com/charmbracelet/lipgloss"

// Styles contains the lipgloss styles for command output
type Styles struct {
	Header lipgloss.Style
	Cell   lipgloss.Style
	Shared lipgloss.Style
	Local  lipgloss.Style
	Border lipgloss.Style
	Error  lipgloss.Style
}

// DefaultStyles returns the default output styles
func DefaultStyles() Styles {
	return Styles{
		Header: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).Padding(0, 1),
		Cell:   lipgloss.NewStyle().Padding(0, 1),
		Shared: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		Local:  lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Border: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		Error:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
	}
}

// FormatError renders the single-line diagnostic printed before exiting.
// The prefix is only colored when styled is set, i.e. stderr is a terminal.
func FormatError(err error, styled bool) string {
	prefix := "Error:"
	if styled {
		prefix = DefaultStyles().Error.Render(prefix)
	}
	return prefix + " " + err.Error()
}
