package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/rasalas/gitmsg/internal/term"
)

var (
	colorPrimary = lipgloss.Color(term.HexPrimary)
	colorMuted   = lipgloss.Color(term.HexMuted)
	colorSuccess = lipgloss.Color(term.HexSuccess)
	colorDanger  = lipgloss.Color(term.HexDanger)
	colorWarning = lipgloss.Color("#FBBF24")
	colorText    = lipgloss.Color("#FEF9F3")

	styleTitle    = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	styleSelected = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	styleNormal   = lipgloss.NewStyle().Foreground(colorText)
	styleHelp     = lipgloss.NewStyle().Foreground(colorMuted)
	styleSuccess  = lipgloss.NewStyle().Foreground(colorSuccess)
	styleDanger   = lipgloss.NewStyle().Foreground(colorDanger)
	styleWarning  = lipgloss.NewStyle().Foreground(colorWarning)
	styleStream   = lipgloss.NewStyle().Foreground(colorText).Bold(true)
)
