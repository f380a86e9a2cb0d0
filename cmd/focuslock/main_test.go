package main

import (
	"errors"
	"testing"

	"focuslock/internal/modules/focus/domain"
)

func TestSplitSitesAcceptsCommasAndNewlines(t *testing.T) {
	t.Parallel()
	got := splitSites([]string{"reddit.com,youtube.com\nnews.ycombinator.com", "x.com"})
	want := []string{"reddit.com", "youtube.com", "news.ycombinator.com", "x.com"}
	if len(got) != len(want) {
		t.Fatalf("splitSites = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("splitSites[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestHistoryPrintsFullPrecisionMinutes(t *testing.T) {
	t.Parallel()
	cases := map[float64]string{0: "0", 25: "25", 0.5: "0.5", 0.125: "0.125", 12.25: "12.25", 100: "100"}
	for in, want := range cases {
		if got := domain.FormatMinutes(in); got != want {
			t.Fatalf("FormatMinutes(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestCommandTree(t *testing.T) {
	t.Parallel()
	root := newRootCmd()
	for _, path := range [][]string{
		{"session", "start"}, {"session", "stop"}, {"session", "status"},
		{"sites", "set"}, {"sites", "show"}, {"check"}, {"history", "export"},
		{"tui"}, {"daemon", "run"}, {"daemon", "logs"},
	} {
		cmd, _, err := root.Find(path)
		if err != nil || cmd == root {
			t.Fatalf("command %v not registered: %v", path, err)
		}
	}
}

func TestExitCodeErrorUnwraps(t *testing.T) {
	t.Parallel()
	var exit exitCodeError
	if !errors.As(error(exitCodeError{code: 2}), &exit) || exit.code != 2 {
		t.Fatalf("expected exit code 2")
	}
}
