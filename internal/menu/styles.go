package menu

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Palette for menu output. Colors degrade to plain text when the writer is
// not a terminal.
const (
	colorAccent  = "#7aa2f7"
	colorMuted   = "#737aa2"
	colorSuccess = "#9ece6a"
	colorWarning = "#e0af68"
	colorDanger  = "#f7768e"
)

// styles holds the lipgloss styles used by the menu.
type styles struct {
	Title   lipgloss.Style
	Heading lipgloss.Style
	Key     lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Danger  lipgloss.Style
}

// newStyles builds styles bound to a renderer for w, so color support is
// detected from the actual output rather than os.Stdout.
func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		Title: r.NewStyle().
			Foreground(lipgloss.Color(colorAccent)).
			Bold(true),

		Heading: r.NewStyle().
			Foreground(lipgloss.Color(colorMuted)),

		Key: r.NewStyle().
			Foreground(lipgloss.Color(colorAccent)).
			Bold(true),

		Muted: r.NewStyle().
			Foreground(lipgloss.Color(colorMuted)),

		Success: r.NewStyle().
			Foreground(lipgloss.Color(colorSuccess)).
			Bold(true),

		Warning: r.NewStyle().
			Foreground(lipgloss.Color(colorWarning)),

		Danger: r.NewStyle().
			Foreground(lipgloss.Color(colorDanger)).
			Bold(true),
	}
}

// key renders a menu key as "[K]".
func (s styles) key(k string) string {
	return s.Key.Render("[" + k + "]")
}
