package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	focusdto "focuslock/internal/modules/focus/dto"
	"focuslock/internal/ui/theme"
)

// ─── port ────────────────────────────────────────────────────────────────────

type FocusPort interface {
	Start(ctx context.Context, minutes string, websites []string) (focusdto.StartOutput, error)
	Stop(ctx context.Context) (focusdto.StopOutput, error)
	Status(ctx context.Context) (focusdto.StatusOutput, error)
	Sites(ctx context.Context) (focusdto.SitesOutput, error)
	SaveSites(ctx context.Context, websites []string) (focusdto.SitesOutput, error)
}

// ─── messages ────────────────────────────────────────────────────────────────

type StatusMsg struct {
	Status focusdto.StatusOutput
	Err    error
}

type SitesMsg struct {
	Sites []string
	Err   error
}

type StartedMsg struct {
	Out focusdto.StartOutput
	Err error
}

type StoppedMsg struct {
	Out focusdto.StopOutput
	Err error
}

type SavedMsg struct {
	Out focusdto.SitesOutput
	Err error
}

type tickMsg time.Time

const refreshEvery = 5

type field int

const (
	fieldMinutes field = iota
	fieldSites
	fieldNone
)

// ─── model ───────────────────────────────────────────────────────────────────

type Model struct {
	port    FocusPort
	minutes textinput.Model
	sites   textarea.Model
	focused field

	status     focusdto.StatusOutput
	statusLine string
	ticks      int
	now        func() time.Time
	width      int
	height     int
}

func New(port FocusPort) Model {
	ti := textinput.New()
	ti.Placeholder = "minutes"
	ti.CharLimit = 8
	ti.Width = 10
	ti.SetValue("25")

	ta := textarea.New()
	ta.Placeholder = "one site per line, e.g. youtube.com"
	ta.ShowLineNumbers = false
	ta.SetHeight(6)

	return Model{
		port:    port,
		minutes: ti,
		sites:   ta,
		focused: fieldNone,
		now:     time.Now,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadStatusCmd(), m.loadSitesCmd(), tick())
}

// Editing reports whether an input has focus, in which case global key
// bindings must yield to allow free typing.
func (m Model) Editing() bool {
	return m.focused != fieldNone
}

func (m Model) Status() focusdto.StatusOutput { return m.status }

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.sites.SetWidth(max(20, min(m.width-8, 60)))

	case tickMsg:
		m.ticks++
		if m.status.Active && (m.remaining() <= 0 || m.ticks%refreshEvery == 0) {
			cmds = append(cmds, m.loadStatusCmd())
		}
		cmds = append(cmds, tick())

	case StatusMsg:
		if msg.Err != nil {
			m.statusLine = "status: " + msg.Err.Error()
			break
		}
		wasActive := m.status.Active
		m.status = msg.Status
		if wasActive && !m.status.Active {
			m.statusLine = "focus session ended"
		}

	case SitesMsg:
		if msg.Err != nil {
			m.statusLine = "load sites: " + msg.Err.Error()
			break
		}
		m.sites.SetValue(strings.Join(msg.Sites, "\n"))

	case StartedMsg:
		if msg.Err != nil {
			m.statusLine = "start failed: " + msg.Err.Error()
			break
		}
		m.statusLine = msg.Out.Status
		if msg.Out.Warning != "" {
			m.statusLine += " (" + msg.Out.Warning + ")"
		}
		cmds = append(cmds, m.loadStatusCmd())

	case StoppedMsg:
		if msg.Err != nil {
			m.statusLine = "stop failed: " + msg.Err.Error()
			break
		}
		m.statusLine = msg.Out.Status
		cmds = append(cmds, m.loadStatusCmd())

	case SavedMsg:
		if msg.Err != nil {
			m.statusLine = "save failed: " + msg.Err.Error()
			break
		}
		m.statusLine = msg.Out.Status

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+s":
			return m, m.StartCmd(m.minutes.Value(), m.siteList())
		case "ctrl+x":
			return m, m.StopCmd()
		case "ctrl+w":
			return m, m.SaveSitesCmd(m.siteList())
		case "esc":
			m.blurAll()
			return m, nil
		case "ctrl+e":
			return m, m.cycleFocus()
		case "e", "enter":
			if m.focused == fieldNone {
				return m, m.cycleFocus()
			}
		}
		var cmd tea.Cmd
		switch m.focused {
		case fieldMinutes:
			m.minutes, cmd = m.minutes.Update(msg)
		case fieldSites:
			m.sites, cmd = m.sites.Update(msg)
		}
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	left := lipgloss.JoinVertical(lipgloss.Left,
		theme.Title.Render("Focus session"),
		"",
		m.label("Block time (minutes)", fieldMinutes),
		m.pane(fieldMinutes).Render(m.minutes.View()),
		"",
		m.label("Sites to block", fieldSites),
		m.pane(fieldSites).Render(m.sites.View()),
		"",
		theme.Muted.Render("e/ctrl+e edit · esc done · ctrl+s start · ctrl+x stop · ctrl+w save sites"),
	)

	right := m.renderCountdown()
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, "    ", right)
	if m.statusLine != "" {
		body = lipgloss.JoinVertical(lipgloss.Left, body, "", theme.Muted.Render(m.statusLine))
	}
	return lipgloss.NewStyle().Width(m.width).Height(m.height).Padding(1, 2).Render(body)
}

// ─── commands ────────────────────────────────────────────────────────────────

func (m Model) StartCmd(minutes string, websites []string) tea.Cmd {
	return func() tea.Msg {
		out, err := m.port.Start(context.Background(), minutes, websites)
		return StartedMsg{Out: out, Err: err}
	}
}

func (m Model) StopCmd() tea.Cmd {
	return func() tea.Msg {
		out, err := m.port.Stop(context.Background())
		return StoppedMsg{Out: out, Err: err}
	}
}

func (m Model) SaveSitesCmd(websites []string) tea.Cmd {
	return func() tea.Msg {
		out, err := m.port.SaveSites(context.Background(), websites)
		return SavedMsg{Out: out, Err: err}
	}
}

func (m Model) RefreshCmd() tea.Cmd {
	return m.loadStatusCmd()
}

func (m Model) ReloadSitesCmd() tea.Cmd {
	return m.loadSitesCmd()
}

func (m Model) loadStatusCmd() tea.Cmd {
	return func() tea.Msg {
		status, err := m.port.Status(context.Background())
		return StatusMsg{Status: status, Err: err}
	}
}

func (m Model) loadSitesCmd() tea.Cmd {
	return func() tea.Msg {
		out, err := m.port.Sites(context.Background())
		return SitesMsg{Sites: out.Sites, Err: err}
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// ─── private ─────────────────────────────────────────────────────────────────

func (m *Model) cycleFocus() tea.Cmd {
	prev := m.focused
	m.blurAll()
	if prev == fieldMinutes {
		m.focused = fieldSites
		return m.sites.Focus()
	}
	m.focused = fieldMinutes
	return m.minutes.Focus()
}

func (m *Model) blurAll() {
	m.minutes.Blur()
	m.sites.Blur()
	m.focused = fieldNone
}

func (m Model) siteList() []string {
	return strings.FieldsFunc(m.sites.Value(), func(r rune) bool {
		return r == '\n' || r == '\r' || r == ','
	})
}

func (m Model) remaining() time.Duration {
	if !m.status.Active || m.status.EndsAt.IsZero() {
		return 0
	}
	left := m.status.EndsAt.Sub(m.now())
	if left < 0 {
		return 0
	}
	return left
}

func (m Model) label(text string, f field) string {
	if m.focused == f {
		return theme.Hot.Render(text)
	}
	return theme.Muted.Render(text)
}

func (m Model) pane(f field) lipgloss.Style {
	if m.focused == f {
		return theme.PaneActive
	}
	return theme.Pane
}

func (m Model) renderCountdown() string {
	if !m.status.Active {
		return lipgloss.JoinVertical(lipgloss.Left,
			theme.Muted.Render("No active session"),
			"",
			theme.Muted.Render("Start one with ctrl+s."),
		)
	}
	lines := []string{
		theme.Countdown.Render(FormatCountdown(m.remaining())),
		"",
		theme.Good.Render(fmt.Sprintf("Blocking %d site(s)", len(m.status.Sites))),
	}
	for _, site := range m.status.Sites {
		lines = append(lines, theme.Muted.Render("  "+site))
	}
	if m.status.Reminders > 0 {
		lines = append(lines, "", theme.Muted.Render(fmt.Sprintf("%d reminder(s) so far", m.status.Reminders)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// FormatCountdown renders d as mm:ss, rounding partial seconds up. Minutes
// are not capped at 59.
func FormatCountdown(d time.Duration) string {
	if d <= 0 {
		return "00:00"
	}
	total := int((d + time.Second - 1) / time.Second)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
