package tui

import (
	"os"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type editModel struct {
	input    textinput.Model
	initial  string
	finished bool
}

func newEditModel(initial string) editModel {
	ti := textinput.New()
	ti.Prompt = "  › "
	ti.PromptStyle = styleSelected
	ti.TextStyle = styleStream
	ti.SetValue(initial)
	ti.CursorEnd()
	ti.Focus()
	return editModel{input: ti, initial: initial}
}

func (m editModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m editModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEnter:
			m.finished = true
			return m, tea.Quit
		case tea.KeyEsc, tea.KeyCtrlC:
			m.input.SetValue(m.initial)
			m.finished = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m editModel) View() string {
	if m.finished {
		return ""
	}
	return m.input.View() + "\n" + styleHelp.Render("  enter save · esc discard") + "\n"
}

// EditLine lets the user edit a single line in place. Esc keeps initial.
func EditLine(initial string) (string, error) {
	res, err := tea.NewProgram(newEditModel(initial), tea.WithOutput(os.Stderr)).Run()
	if err != nil {
		return initial, err
	}
	return res.(editModel).input.Value(), nil
}
