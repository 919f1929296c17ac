package term

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// plain disables styled output; set by NO_COLOR.
var plain bool

var cardStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("#FEF9F3")).
	Background(lipgloss.Color(HexCardBg)).
	Border(lipgloss.ThickBorder(), false, false, false, true).
	BorderForeground(lipgloss.Color(HexPrimary)).
	BorderBackground(lipgloss.Color(HexCardBg)).
	Padding(1, 2).
	MarginLeft(2)

// Card renders a commit message as a highlighted block.
func Card(message string) string {
	if plain {
		return "  › " + message
	}
	return cardStyle.Render(message)
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
