package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rasalas/gitmsg/internal/config"
	"github.com/rasalas/gitmsg/internal/keyring"
)

// ModelLister fetches the models a provider offers.
type ModelLister func(ctx context.Context, rp config.ResolvedProvider) ([]string, error)

// PickerDeps are the side effects of the picker, swapped out in tests.
type PickerDeps struct {
	Save   func(config.Config) error
	Models ModelLister
	Keys   map[string]keyring.KeyInfo
}

type entry struct {
	name  string
	model string
	key   keyring.KeyInfo
	auth  bool
}

// modelsLoadedMsg is sent when the async model fetch completes.
type modelsLoadedMsg struct {
	models []string
	err    error
}

type pickerModel struct {
	cfg      config.Config
	deps     PickerDeps
	entries  []entry
	cursor   int
	message  string
	height   int
	quitting bool

	picking      bool
	pickLoading  bool
	pickModels   []string
	pickFiltered []string
	pickCursor   int
	filter       textinput.Model
}

func newPicker(cfg config.Config, deps PickerDeps) pickerModel {
	var entries []entry
	for _, name := range config.Providers() {
		rp, _ := cfg.ResolveProvider(name)
		entries = append(entries, entry{name: name, model: rp.Model, key: deps.Keys[name], auth: rp.NeedsAuth})
	}

	cursor := 0
	for i, e := range entries {
		if e.name == cfg.Provider {
			cursor = i
		}
	}

	fi := textinput.New()
	fi.Prompt = "  Filter: "
	fi.PromptStyle = styleHelp
	return pickerModel{cfg: cfg, deps: deps, entries: entries, cursor: cursor, filter: fi}
}

func (m pickerModel) Init() tea.Cmd { return nil }

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = msg.Height
	case modelsLoadedMsg:
		m.pickLoading = false
		if msg.err != nil {
			m.message = styleDanger.Render("  ✗ " + msg.err.Error())
		}
		m.pickModels = msg.models
		m.applyFilter()
	case tea.KeyMsg:
		if m.picking {
			return m.updatePicking(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m pickerModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
			m.message = ""
		}
	case "down", "j":
		if m.cursor < len(m.entries)-1 {
			m.cursor++
			m.message = ""
		}
	case "enter":
		e := m.entries[m.cursor]
		m.switchProvider(e.name)
		m.save(fmt.Sprintf("Provider set to %s", e.name))
	case "m":
		m.picking = true
		m.pickLoading = true
		m.pickModels = nil
		m.pickFiltered = nil
		m.pickCursor = 0
		m.filter.SetValue("")
		m.filter.Focus()
		m.message = ""
		return m, m.fetchModelsCmd()
	case "r":
		e := m.entries[m.cursor]
		m.setModel(e.name, "")
		m.entries[m.cursor].model = config.DefaultModel(e.name)
		m.save(fmt.Sprintf("%s reset to %s", e.name, m.entries[m.cursor].model))
	}
	return m, nil
}

func (m *pickerModel) save(done string) {
	if m.deps.Save == nil {
		return
	}
	if err := m.deps.Save(m.cfg); err != nil {
		m.message = styleDanger.Render("  ✗ " + err.Error())
		return
	}
	m.message = styleSuccess.Render("  ✓ " + done)
}

func (m pickerModel) fetchModelsCmd() tea.Cmd {
	rp, _ := m.cfg.ResolveProvider(m.entries[m.cursor].name)
	list := m.deps.Models
	return func() tea.Msg {
		if list == nil {
			return modelsLoadedMsg{}
		}
		models, err := list(context.Background(), rp)
		return modelsLoadedMsg{models: models, err: err}
	}
}

// fuzzyMatch checks if all characters in pattern appear in str in order (case-insensitive).
func fuzzyMatch(str, pattern string) bool {
	str = strings.ToLower(str)
	pattern = strings.ToLower(pattern)
	pi := 0
	for i := 0; i < len(str) && pi < len(pattern); i++ {
		if str[i] == pattern[pi] {
			pi++
		}
	}
	return pi == len(pattern)
}

func (m *pickerModel) applyFilter() {
	pattern := m.filter.Value()
	m.pickFiltered = m.pickFiltered[:0]
	for _, name := range m.pickModels {
		if fuzzyMatch(name, pattern) {
			m.pickFiltered = append(m.pickFiltered, name)
		}
	}
	m.pickCursor = 0
	current := m.entries[m.cursor].model
	for i, name := range m.pickFiltered {
		if name == current {
			m.pickCursor = i
		}
	}
}

// pickListLen counts the filtered models plus the "use as typed" entry.
func (m pickerModel) pickListLen() int {
	n := len(m.pickFiltered)
	if m.filter.Value() != "" {
		n++
	}
	return n
}

func (m pickerModel) pickIsUseCustom() bool {
	return m.filter.Value() != "" && m.pickCursor == len(m.pickFiltered)
}

func (m pickerModel) updatePicking(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+c":
		m.picking = false
		m.pickLoading = false
		m.filter.Blur()
		return m, nil
	}
	if m.pickLoading {
		return m, nil
	}

	switch msg.String() {
	case "up":
		if m.pickCursor > 0 {
			m.pickCursor--
		}
		return m, nil
	case "down":
		if m.pickCursor < m.pickListLen()-1 {
			m.pickCursor++
		}
		return m, nil
	case "enter":
		var chosen string
		switch {
		case m.pickIsUseCustom():
			chosen = m.filter.Value()
		case m.pickCursor < len(m.pickFiltered):
			chosen = m.pickFiltered[m.pickCursor]
		default:
			return m, nil
		}
		e := m.entries[m.cursor]
		m.picking = false
		m.filter.Blur()
		m.setModel(e.name, chosen)
		m.entries[m.cursor].model = chosen
		m.save(fmt.Sprintf("Model for %s set to %s", e.name, chosen))
		return m, nil
	}

	before := m.filter.Value()
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	if m.filter.Value() != before {
		m.applyFilter()
	}
	return m, cmd
}

// switchProvider activates name. The top-level url and model apply only
// to the active provider, so they move into the previous one's table.
func (m *pickerModel) switchProvider(name string) {
	if name == m.cfg.Provider {
		return
	}
	if m.cfg.URL != "" || m.cfg.Model != "" {
		if m.cfg.Custom == nil {
			m.cfg.Custom = make(map[string]config.ProviderConfig)
		}
		pc := m.cfg.Custom[m.cfg.Provider]
		if m.cfg.URL != "" {
			pc.URL = m.cfg.URL
		}
		if m.cfg.Model != "" {
			pc.Model = m.cfg.Model
		}
		m.cfg.Custom[m.cfg.Provider] = pc
	}
	m.cfg.Provider = name
	m.cfg.URL = ""
	m.cfg.Model = ""
}

// setModel records model for provider; "" restores the preset.
func (m *pickerModel) setModel(provider, model string) {
	if pc, ok := m.cfg.Custom[provider]; ok && model == "" {
		pc.Model = ""
		m.cfg.Custom[provider] = pc
	}
	if provider == m.cfg.Provider {
		m.cfg.Model = model
		return
	}
	if model == "" {
		return
	}
	if m.cfg.Custom == nil {
		m.cfg.Custom = make(map[string]config.ProviderConfig)
	}
	pc := m.cfg.Custom[provider]
	pc.Model = model
	m.cfg.Custom[provider] = pc
}

func (m pickerModel) View() string {
	if m.quitting {
		return ""
	}
	if m.picking {
		return m.viewModelPicker()
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(styleTitle.Render("  Which endpoint should write commit messages?"))
	b.WriteString("\n\n")

	for i, e := range m.entries {
		cursor, style := "    ", styleNormal
		if i == m.cursor {
			cursor, style = "  > ", styleSelected
		}
		b.WriteString(style.Render(fmt.Sprintf("%s%-12s", cursor, e.name)))

		if def := config.DefaultModel(e.name); e.model != def {
			b.WriteString(styleWarning.Render("  " + e.model))
			b.WriteString(styleHelp.Render(fmt.Sprintf("  (default: %s, r to reset)", def)))
		} else {
			b.WriteString(styleHelp.Render("  " + e.model))
		}

		switch {
		case !e.auth:
			b.WriteString(styleHelp.Render("  local"))
		case e.key.Found:
			b.WriteString("  " + styleSuccess.Render("✓"))
		default:
			b.WriteString("  " + styleDanger.Render("✗ no key"))
		}

		if e.name == m.cfg.Provider {
			b.WriteString(styleSelected.Render("  ← active"))
		}
		b.WriteString("\n")
	}

	if m.message != "" {
		b.WriteString("\n" + m.message + "\n")
	}
	b.WriteString("\n")
	b.WriteString(styleHelp.Render("  ↑/↓ navigate · enter set provider · m change model · q quit"))
	b.WriteString("\n")
	return b.String()
}

func (m pickerModel) viewModelPicker() string {
	var b strings.Builder
	e := m.entries[m.cursor]

	b.WriteString("\n")
	b.WriteString(styleTitle.Render(fmt.Sprintf("  Select model for %s", e.name)))
	b.WriteString("\n\n")

	if m.pickLoading {
		b.WriteString(styleHelp.Render("  Fetching models..."))
		b.WriteString("\n\n")
		b.WriteString(styleHelp.Render("  esc cancel"))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(m.filter.View())
	b.WriteString("\n\n")

	maxVisible := max(m.height-10, 5)
	count := len(m.pickFiltered)
	start := 0
	if count > maxVisible {
		start = min(max(m.pickCursor-maxVisible/2, 0), count-maxVisible)
	}
	end := min(start+maxVisible, count)

	if start > 0 {
		b.WriteString(styleHelp.Render(fmt.Sprintf("    ↑ %d more", start)))
		b.WriteString("\n")
	}
	for i := start; i < end; i++ {
		name := m.pickFiltered[i]
		cursor, style := "    ", styleNormal
		if i == m.pickCursor {
			cursor, style = "  > ", styleSelected
		}
		b.WriteString(style.Render(cursor + name))
		if name == e.model {
			b.WriteString(styleSelected.Render("  ← current"))
		}
		b.WriteString("\n")
	}
	if end < count {
		b.WriteString(styleHelp.Render(fmt.Sprintf("    ↓ %d more", count-end)))
		b.WriteString("\n")
	}

	if v := m.filter.Value(); v != "" {
		cursor, style := "    ", styleNormal
		if m.pickIsUseCustom() {
			cursor, style = "  > ", styleSelected
		}
		b.WriteString(style.Render(fmt.Sprintf(`%sUse "%s" as model name`, cursor, v)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(styleHelp.Render("  ↑/↓ navigate · enter select · esc back"))
	b.WriteString("\n")
	return b.String()
}

// RunPicker opens the interactive provider and model picker.
func RunPicker(cfg config.Config, deps PickerDeps) error {
	_, err := tea.NewProgram(newPicker(cfg, deps), tea.WithAltScreen()).Run()
	return err
}
