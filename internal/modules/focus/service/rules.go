package service

import (
	"context"

	"focuslock/internal/modules/focus/domain"
	focusout "focuslock/internal/modules/focus/port/out"
)

// RuleSet tracks how many rules are installed so every update removes
// exactly the previously installed ids. Callers serialize access.
type RuleSet struct {
	engine      focusout.RuleEngine
	destination string
	installed   int
}

func NewRuleSet(engine focusout.RuleEngine, destination string) *RuleSet {
	return &RuleSet{engine: engine, destination: destination}
}

// Install replaces the previous rules with one rule per site in a single update.
func (r *RuleSet) Install(ctx context.Context, sites []string) error {
	prev := r.installed
	rules := domain.BuildRules(sites, r.destination)
	if err := r.engine.Update(ctx, domain.RuleIDs(prev), rules); err != nil {
		r.installed = max(prev, len(rules))
		return &domain.CollaboratorError{Collaborator: domain.CollaboratorRuleEngine, Op: "install", Err: err}
	}
	r.installed = len(rules)
	return nil
}

func (r *RuleSet) Clear(ctx context.Context) error {
	prev := r.installed
	if prev == 0 {
		return nil
	}
	if err := r.engine.Update(ctx, domain.RuleIDs(prev), nil); err != nil {
		return &domain.CollaboratorError{Collaborator: domain.CollaboratorRuleEngine, Op: "clear", Err: err}
	}
	r.installed = 0
	return nil
}

// Adopt records rules left installed by an earlier process so the next
// Clear or Install removes them.
func (r *RuleSet) Adopt(n int) {
	if n > r.installed {
		r.installed = n
	}
}

func (r *RuleSet) Installed() int {
	return r.installed
}
