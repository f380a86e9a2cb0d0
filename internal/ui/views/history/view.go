package history

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	historydomain "focuslock/internal/modules/history/domain"
	historydto "focuslock/internal/modules/history/dto"
	"focuslock/internal/ui/theme"
)

// ─── port ────────────────────────────────────────────────────────────────────

type HistoryPort interface {
	List(ctx context.Context) (historydto.ListOutput, error)
}

// ─── messages ────────────────────────────────────────────────────────────────

type LoadedMsg struct {
	Out historydto.ListOutput
	Err error
}

// ─── list items ──────────────────────────────────────────────────────────────

type entryItem struct{ e historydto.Entry }

func (i entryItem) Title() string {
	if i.e.Kind == "timestamp" {
		return fmt.Sprintf("Session %d: ended %s", i.e.Index, i.e.Label)
	}
	return fmt.Sprintf("Session %d: %s minutes", i.e.Index, historydomain.FormatMinutes(i.e.DurationMinutes))
}

func (i entryItem) Description() string {
	if i.e.EndedAt.IsZero() {
		return ""
	}
	return i.e.EndedAt.Local().Format("Mon Jan 2 15:04")
}

func (i entryItem) FilterValue() string { return i.Title() }

// ─── model ───────────────────────────────────────────────────────────────────

type Model struct {
	port   HistoryPort
	list   list.Model
	out    historydto.ListOutput
	err    error
	width  int
	height int
}

func New(port HistoryPort) Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(theme.Peach).BorderForeground(theme.Peach)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.BorderForeground(theme.Peach)

	l := list.New(nil, delegate, 0, 0)
	l.Title = "History"
	l.Styles.Title = theme.Title
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	return Model{port: port, list: l}
}

func (m Model) Init() tea.Cmd {
	return m.LoadCmd()
}

// Filtering reports whether the list's search filter is currently active.
func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(max(20, m.width-4), max(3, m.height-6))
		return m, nil

	case LoadedMsg:
		m.err = msg.Err
		if msg.Err != nil {
			return m, nil
		}
		m.out = msg.Out
		items := make([]list.Item, 0, len(msg.Out.Entries))
		for _, e := range msg.Out.Entries {
			items = append(items, entryItem{e: e})
		}
		return m, m.list.SetItems(items)

	case tea.KeyMsg:
		if !m.Filtering() && msg.String() == "r" {
			return m, m.LoadCmd()
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	var footer string
	switch {
	case m.err != nil:
		footer = theme.Bad.Render("history: " + m.err.Error())
	case len(m.out.Entries) == 0:
		footer = theme.Muted.Render("No focus sessions recorded yet.")
	default:
		footer = theme.Good.Render(fmt.Sprintf("Total focused: %s minutes", historydomain.FormatMinutes(m.out.TotalMinutes)))
		if m.out.Motivation != "" {
			footer += "\n" + theme.Hot.Render(m.out.Motivation)
		}
	}
	footer += "\n" + theme.Muted.Render("r reload · / filter")

	return lipgloss.NewStyle().Padding(1, 2).Render(
		lipgloss.JoinVertical(lipgloss.Left, m.list.View(), "", footer),
	)
}

// LoadCmd re-reads the history from storage.
func (m Model) LoadCmd() tea.Cmd {
	return func() tea.Msg {
		if m.port == nil {
			return LoadedMsg{}
		}
		out, err := m.port.List(context.Background())
		return LoadedMsg{Out: out, Err: err}
	}
}
