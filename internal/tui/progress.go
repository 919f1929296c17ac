package tui

import (
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// ProgressMsg carries the latest settled prefix of a streaming reply.
type ProgressMsg string

// DoneMsg ends the progress program.
type DoneMsg struct{ Err error }

type progressModel struct {
	spinner   spinner.Model
	label     string
	text      string
	cancel    func()
	cancelled bool
	done      bool
	err       error
}

func newProgressModel(label string, cancel func()) progressModel {
	s := spinner.New()
	s.Spinner = spinner.MiniDot
	s.Style = styleHelp
	return progressModel{spinner: s, label: label, cancel: cancel}
}

func (m progressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ProgressMsg:
		m.text = string(msg)
		return m, nil
	case DoneMsg:
		m.done = true
		m.err = msg.Err
		return m, tea.Quit
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			if !m.cancelled && m.cancel != nil {
				m.cancelled = true
				m.cancel()
			}
		}
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m progressModel) View() string {
	if m.done {
		return ""
	}
	var b strings.Builder
	b.WriteString("  ")
	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	switch {
	case m.cancelled:
		b.WriteString(styleHelp.Render("Cancelling..."))
	case m.text != "":
		b.WriteString(styleStream.Render(m.text))
	default:
		b.WriteString(styleHelp.Render(m.label))
	}
	b.WriteString("\n")
	return b.String()
}

// RunProgress shows a spinner on stderr while work runs. work receives a
// callback that updates the displayed text. Ctrl+C calls cancel; work is
// expected to return promptly once it does.
func RunProgress(label string, cancel func(), work func(onProgress func(string)) error) error {
	p := tea.NewProgram(newProgressModel(label, cancel),
		tea.WithOutput(os.Stderr),
		tea.WithInput(os.Stdin),
	)

	errc := make(chan error, 1)
	go func() {
		err := work(func(s string) { p.Send(ProgressMsg(s)) })
		errc <- err
		p.Send(DoneMsg{Err: err})
	}()

	if _, err := p.Run(); err != nil {
		// The terminal could not be driven; still wait for the work.
		if cancel != nil {
			cancel()
		}
		<-errc
		return err
	}
	return <-errc
}
