package domain_test

import (
	"errors"
	"testing"
	"time"

	"focuslock/internal/modules/focus/domain"
	apperrors "focuslock/internal/platform/errors"
)

func TestTransitionTable(t *testing.T) {
	t.Parallel()
	tests := []struct {
		from    domain.Status
		trigger domain.Trigger
		want    domain.Status
		err     error
	}{
		{domain.StatusIdle, domain.TriggerStart, domain.StatusActive, nil},
		{domain.StatusActive, domain.TriggerStart, domain.StatusActive, nil},
		{domain.StatusActive, domain.TriggerStop, domain.StatusIdle, nil},
		{domain.StatusActive, domain.TriggerExpire, domain.StatusIdle, nil},
		{domain.StatusActive, domain.TriggerRemind, domain.StatusActive, nil},
		{domain.StatusIdle, domain.TriggerStop, domain.StatusIdle, apperrors.ErrNoActiveSession},
		{domain.StatusIdle, domain.TriggerExpire, domain.StatusIdle, domain.ErrStaleTimer},
		{domain.StatusIdle, domain.TriggerRemind, domain.StatusIdle, domain.ErrStaleTimer},
	}
	for _, tt := range tests {
		got, err := domain.Transition(tt.from, tt.trigger)
		if got != tt.want {
			t.Fatalf("%s --%s--> expected %s, got %s", tt.from, tt.trigger, tt.want, got)
		}
		if tt.err == nil && err != nil {
			t.Fatalf("%s --%s--> unexpected error %v", tt.from, tt.trigger, err)
		}
		if tt.err != nil && !errors.Is(err, tt.err) {
			t.Fatalf("%s --%s--> expected %v, got %v", tt.from, tt.trigger, tt.err, err)
		}
	}
	if _, err := domain.Transition(domain.StatusIdle, domain.Trigger("pause")); err == nil {
		t.Fatalf("expected unknown trigger to be rejected")
	}
}

func TestSessionRemaining(t *testing.T) {
	t.Parallel()
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s := domain.FocusSession{DurationMinutes: 0.1, StartedAt: start, Status: domain.StatusActive}
	if s.Duration() != 6*time.Second {
		t.Fatalf("0.1 minutes should be 6s, got %s", s.Duration())
	}
	if got := s.Remaining(start.Add(2 * time.Second)); got != 4*time.Second {
		t.Fatalf("unexpected remaining: %s", got)
	}
	if got := s.Remaining(start.Add(time.Minute)); got != 0 {
		t.Fatalf("remaining should clamp to zero, got %s", got)
	}
	idle := domain.FocusSession{Status: domain.StatusIdle}
	if idle.Remaining(start) != 0 || !idle.EndsAt().IsZero() {
		t.Fatalf("idle session has no deadline")
	}
}

func TestBuildRules(t *testing.T) {
	t.Parallel()
	rules := domain.BuildRules([]string{"a.com", "b.com"}, "/blocked")
	if len(rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(rules))
	}
	for i, r := range rules {
		if r.ID != i+1 || r.Destination != "/blocked" || r.Scope != domain.ScopeMainFrame {
			t.Fatalf("unexpected rule %d: %+v", i, r)
		}
	}
	if rules[0].URLFilter() != "*://a.com/*" {
		t.Fatalf("unexpected filter: %s", rules[0].URLFilter())
	}
	ids := domain.RuleIDs(3)
	if len(ids) != 3 || ids[0] != 1 || ids[2] != 3 {
		t.Fatalf("unexpected ids: %v", ids)
	}
	if len(domain.RuleIDs(0)) != 0 {
		t.Fatalf("expected no ids for zero rules")
	}
}

func TestRuleMatches(t *testing.T) {
	t.Parallel()
	rule := domain.Rule{ID: 1, Domain: "a.com", Destination: "/blocked", Scope: domain.ScopeMainFrame}
	tests := []struct {
		url   string
		scope domain.ResourceScope
		want  bool
	}{
		{"https://a.com/watch?v=1", domain.ScopeMainFrame, true},
		{"http://A.com", domain.ScopeMainFrame, true},
		{"https://a.com:8443/x", domain.ScopeMainFrame, true},
		{"https://www.a.com/", domain.ScopeMainFrame, false},
		{"https://a.com.evil.net/", domain.ScopeMainFrame, false},
		{"https://a.com/", domain.ScopeSubFrame, false},
		{"not a url", domain.ScopeMainFrame, false},
	}
	for _, tt := range tests {
		if got := rule.Matches(tt.url, tt.scope); got != tt.want {
			t.Fatalf("Matches(%q, %s) = %v, want %v", tt.url, tt.scope, got, tt.want)
		}
	}
}

func TestParseBlockTime(t *testing.T) {
	t.Parallel()
	valid := map[string]float64{"25": 25, " 0.1 ": 0.1, "25 min": 25, ".5": 0.5, "1e1": 10, "1.5e8": 1.5e8}
	for raw, want := range valid {
		got, err := domain.ParseBlockTime(raw)
		if err != nil || got != want {
			t.Fatalf("ParseBlockTime(%q) = %v, %v; want %v", raw, got, err, want)
		}
	}
	for _, raw := range []string{"", "0", "-5", "abc", "Infinity", "NaN", "1e999", "2e8", "1e300"} {
		_, err := domain.ParseBlockTime(raw)
		if !errors.Is(err, apperrors.ErrInvalidInput) {
			t.Fatalf("ParseBlockTime(%q) expected invalid input, got %v", raw, err)
		}
		var verr *domain.ValidationError
		if !errors.As(err, &verr) || verr.Reason != domain.ReasonBlockTimeRange {
			t.Fatalf("ParseBlockTime(%q) expected validation error, got %v", raw, err)
		}
	}
}

func TestParseSiteListAcceptsNewlinesAndCommas(t *testing.T) {
	t.Parallel()
	got := domain.ParseSiteList("a.com\nb.com, c.com\r\n\n ,d.com")
	want := []string{"a.com", "b.com", "c.com", "d.com"}
	if len(got) != len(want) {
		t.Fatalf("unexpected sites: %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected sites: %v", got)
		}
	}
}

func TestValidateSites(t *testing.T) {
	t.Parallel()
	if _, err := domain.ValidateSites([]string{" ", ""}); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected blank list to be rejected, got %v", err)
	}
	got, err := domain.ValidateSites([]string{" a.com "})
	if err != nil || len(got) != 1 || got[0] != "a.com" {
		t.Fatalf("unexpected result: %v %v", got, err)
	}
	got, err = domain.ValidateSites([]string{"a.com", "b.com", " a.com", "A.COM", "c.com", "b.com"})
	want := []string{"a.com", "b.com", "c.com"}
	if err != nil || len(got) != len(want) {
		t.Fatalf("expected duplicates dropped, got %v %v", got, err)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected first occurrences in order, got %v", got)
		}
	}
}

func TestIsBlockedIsSubstringMatch(t *testing.T) {
	t.Parallel()
	sites := []string{"", "a.com"}
	if site, ok := domain.IsBlocked("https://mail.a.com/inbox", sites); !ok || site != "a.com" {
		t.Fatalf("expected substring match, got %q %v", site, ok)
	}
	if _, ok := domain.IsBlocked("https://example.org/?ref=a.com", sites); !ok {
		t.Fatalf("check is intentionally loose and matches query strings")
	}
	if _, ok := domain.IsBlocked("https://b.org", sites); ok {
		t.Fatalf("unexpected match")
	}
}

func TestCollaboratorErrorUnwraps(t *testing.T) {
	t.Parallel()
	cause := errors.New("dbus down")
	err := error(&domain.CollaboratorError{Collaborator: domain.CollaboratorNotification, Op: "show", Err: cause})
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to unwrap")
	}
	if err.Error() != "notification show: dbus down" {
		t.Fatalf("unexpected message: %s", err.Error())
	}
}

func TestStartedMessage(t *testing.T) {
	t.Parallel()
	if got := domain.StartedMessage(0.1); got != "You have 0.1 minutes to focus." {
		t.Fatalf("unexpected message: %s", got)
	}
}
