package history

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	historydto "focuslock/internal/modules/history/dto"
)

type fakeHistoryPort struct {
	out   historydto.ListOutput
	err   error
	calls int
}

func (f *fakeHistoryPort) List(context.Context) (historydto.ListOutput, error) {
	f.calls++
	return f.out, f.err
}

func TestLoadedEntriesAreListed(t *testing.T) {
	t.Parallel()
	port := &fakeHistoryPort{out: historydto.ListOutput{
		Entries: []historydto.Entry{
			{Index: 1, DurationMinutes: 50, Kind: "duration"},
			{Index: 2, DurationMinutes: 12.5, Kind: "duration"},
		},
		TotalMinutes: 62.5,
		Motivation:   "Keep going!",
	}}
	m := New(port)
	m, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 30})

	msg := m.LoadCmd()()
	m, _ = m.Update(msg)

	if got := len(m.list.Items()); got != 2 {
		t.Fatalf("expected 2 items, got %d", got)
	}
	if title := m.list.Items()[1].(entryItem).Title(); title != "Session 2: 12.5 minutes" {
		t.Fatalf("unexpected title %q", title)
	}
	view := m.View()
	if !strings.Contains(view, "Total focused: 62.5 minutes") {
		t.Fatalf("missing total in view:\n%s", view)
	}
	if !strings.Contains(view, "Keep going!") {
		t.Fatalf("missing motivation in view:\n%s", view)
	}
}

func TestReloadKey(t *testing.T) {
	t.Parallel()
	port := &fakeHistoryPort{err: errors.New("boom")}
	m := New(port)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	if cmd == nil {
		t.Fatalf("expected reload command")
	}
	loaded, ok := cmd().(LoadedMsg)
	if !ok || loaded.Err == nil {
		t.Fatalf("unexpected msg %#v", loaded)
	}
	m, _ = m.Update(loaded)
	if !strings.Contains(m.View(), "history: boom") {
		t.Fatalf("error not rendered")
	}
	if port.calls != 1 {
		t.Fatalf("expected one List call, got %d", port.calls)
	}
}
