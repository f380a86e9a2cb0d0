package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"focuslock/internal/ui/components"
	"focuslock/internal/ui/theme"
	historyview "focuslock/internal/ui/views/history"
	sessionview "focuslock/internal/ui/views/session"
)

// ─── tab index ───────────────────────────────────────────────────────────────

type tabID int

const (
	tabSession tabID = iota
	tabHistory
	tabCount
)

var tabLabels = [tabCount]string{"Session", "History"}

// ─── key bindings ─────────────────────────────────────────────────────────────

type keyMap struct {
	Tab     key.Binding
	Help    key.Binding
	Palette key.Binding
	Quit    key.Binding
	Edit    key.Binding
	Start   key.Binding
	Stop    key.Binding
	Save    key.Binding
	Reload  key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Tab:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Palette: key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "palette")),
		Quit:    key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
		Edit:    key.NewBinding(key.WithKeys("e", "ctrl+e"), key.WithHelp("e", "edit fields")),
		Start:   key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "start session")),
		Stop:    key.NewBinding(key.WithKeys("ctrl+x"), key.WithHelp("ctrl+x", "stop session")),
		Save:    key.NewBinding(key.WithKeys("ctrl+w"), key.WithHelp("ctrl+w", "save sites")),
		Reload:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload history")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Help, k.Palette, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Edit, k.Start, k.Stop, k.Save},
		{k.Tab, k.Reload},
		{k.Help, k.Palette, k.Quit},
	}
}

// ─── model ───────────────────────────────────────────────────────────────────

// Model is the root Bubble Tea model. It owns tab routing, the global help
// overlay, and the command palette. Rendering is delegated to sub-views.
type Model struct {
	sessionView sessionview.Model
	historyView historyview.Model

	activeTab tabID
	keys      keyMap
	help      help.Model
	showHelp  bool
	palette   components.Palette
	status    string
	width     int
	height    int
}

func NewModel(focus sessionview.FocusPort, history historyview.HistoryPort) Model {
	return Model{
		sessionView: sessionview.New(focus),
		historyView: historyview.New(history),
		activeTab:   tabSession,
		keys:        defaultKeys(),
		help:        help.New(),
		palette:     components.NewPalette(),
		status:      "ready",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.sessionView.Init(), m.historyView.Init())
}

// ─── update ───────────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok && km.String() == "ctrl+c" {
		return m, tea.Quit
	}

	// The palette intercepts all input while open.
	if m.palette.Visible() {
		if _, ok := msg.(tea.KeyMsg); ok {
			var cmd tea.Cmd
			m.palette, cmd = m.palette.Update(msg)
			return m, cmd
		}
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.palette.SetWidth(min(m.width-4, 80))
		m.help.Width = m.width
		m.propagateSize()
		return m, nil

	case components.PaletteSubmitMsg:
		return m.executePalette(msg.Input)

	case components.PaletteCancelMsg:
		m.status = "ready"
		return m, nil

	// Session results and ticks always reach the session view so the
	// countdown keeps running while the History tab is shown.
	case sessionview.StatusMsg, sessionview.SitesMsg, sessionview.StartedMsg,
		sessionview.StoppedMsg, sessionview.SavedMsg:
		var cmd tea.Cmd
		m.sessionView, cmd = m.sessionView.Update(msg)
		if stopped, ok := msg.(sessionview.StoppedMsg); ok && stopped.Err == nil {
			cmd = tea.Batch(cmd, m.historyView.LoadCmd())
		}
		if ended, ok := msg.(sessionview.StatusMsg); ok && ended.Err == nil && !ended.Status.Active {
			cmd = tea.Batch(cmd, m.historyView.LoadCmd())
		}
		return m, cmd

	case historyview.LoadedMsg:
		var cmd tea.Cmd
		m.historyView, cmd = m.historyView.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.showHelp {
			if msg.String() == "?" || msg.String() == "esc" {
				m.showHelp = false
			}
			return m, nil
		}
		if m.subViewEditing() {
			break
		}
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "tab":
			m.activeTab = (m.activeTab + 1) % tabCount
			return m, nil
		case "shift+tab":
			m.activeTab = (m.activeTab + tabCount - 1) % tabCount
			return m, nil
		case "?":
			m.showHelp = true
			return m, nil
		case ":":
			return m, m.palette.Open()
		}

	default:
		// Ticks and other internal messages go to the session view.
		var cmd tea.Cmd
		m.sessionView, cmd = m.sessionView.Update(msg)
		return m, cmd
	}

	var tabCmd tea.Cmd
	switch m.activeTab {
	case tabSession:
		m.sessionView, tabCmd = m.sessionView.Update(msg)
	case tabHistory:
		m.historyView, tabCmd = m.historyView.Update(msg)
	}
	return m, tabCmd
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	tabBar := m.renderTabBar()
	statusBar := m.renderStatusBar()

	contentH := m.height - lipgloss.Height(tabBar) - lipgloss.Height(statusBar)
	if contentH < 1 {
		contentH = 1
	}

	var content string
	switch {
	case m.showHelp:
		content = lipgloss.NewStyle().Width(m.width).Height(contentH).
			Render(m.help.View(m.keys))
	case m.palette.Visible():
		content = lipgloss.Place(m.width, contentH,
			lipgloss.Center, lipgloss.Center, m.palette.View())
	case m.activeTab == tabHistory:
		content = m.historyView.View()
	default:
		content = m.sessionView.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left, tabBar, content, statusBar)
}

func (m Model) renderTabBar() string {
	parts := make([]string, tabCount)
	for i := tabID(0); i < tabCount; i++ {
		label := tabLabels[i]
		if i == m.activeTab {
			parts[i] = theme.Hot.Render(" " + label + " ")
		} else {
			parts[i] = theme.Muted.Render(" " + label + " ")
		}
	}
	bar := "focuslock  " + strings.Join(parts, theme.Muted.Render(" │ "))
	return lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar) + "\n"
}

func (m Model) renderStatusBar() string {
	left := m.status
	if st := m.sessionView.Status(); st.Active {
		left = theme.Hot.Render(fmt.Sprintf("● blocking %d site(s)", len(st.Sites))) + "  " + left
	}
	right := theme.Muted.Render("?:help  tab:switch  :::palette  q:quit")
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	bar := left + strings.Repeat(" ", gap) + right
	return "\n" + lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar)
}

// ─── palette execution ────────────────────────────────────────────────────────

func (m Model) executePalette(input string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return m, nil
	}

	switch parts[0] {
	case "session:start":
		if len(parts) < 2 {
			m.status = "usage: session:start <minutes> [site,site...]"
			return m, nil
		}
		m.activeTab = tabSession
		m.status = "starting session"
		return m, m.sessionView.StartCmd(parts[1], splitSites(parts[2:]))

	case "session:stop":
		m.activeTab = tabSession
		m.status = "stopping session"
		return m, m.sessionView.StopCmd()

	case "session:status":
		m.activeTab = tabSession
		m.status = "ready"
		return m, m.sessionView.RefreshCmd()

	case "sites:save":
		if len(parts) < 2 {
			m.status = "usage: sites:save <site,site...>"
			return m, nil
		}
		m.activeTab = tabSession
		return m, tea.Sequence(m.sessionView.SaveSitesCmd(splitSites(parts[1:])), m.sessionView.ReloadSitesCmd())

	case "sites:load":
		m.activeTab = tabSession
		return m, m.sessionView.ReloadSitesCmd()

	case "history:refresh":
		m.activeTab = tabHistory
		m.status = "history reloaded"
		return m, m.historyView.LoadCmd()

	default:
		m.status = "unknown command: " + parts[0]
	}
	return m, nil
}

// ─── helpers ─────────────────────────────────────────────────────────────────

// subViewEditing reports whether the active tab holds keyboard focus, in
// which case global key bindings must yield to allow free typing.
func (m Model) subViewEditing() bool {
	switch m.activeTab {
	case tabSession:
		return m.sessionView.Editing()
	case tabHistory:
		return m.historyView.Filtering()
	}
	return false
}

func (m *Model) propagateSize() {
	sz := tea.WindowSizeMsg{Width: m.width, Height: m.height - 3}
	m.sessionView, _ = m.sessionView.Update(sz)
	m.historyView, _ = m.historyView.Update(sz)
}

func splitSites(args []string) []string {
	return strings.FieldsFunc(strings.Join(args, ","), func(r rune) bool {
		return r == ','
	})
}
