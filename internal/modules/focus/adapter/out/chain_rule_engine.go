package out

import (
	"context"
	"errors"
	"fmt"

	"focuslock/internal/modules/focus/domain"
	focusout "focuslock/internal/modules/focus/port/out"
)

// ChainRuleEngine applies every update to each engine in order. All
// engines see the update even when an earlier one fails.
type ChainRuleEngine struct {
	engines []focusout.RuleEngine
}

func NewChainRuleEngine(engines ...focusout.RuleEngine) *ChainRuleEngine {
	return &ChainRuleEngine{engines: engines}
}

func (c *ChainRuleEngine) Update(ctx context.Context, removeIDs []int, addRules []domain.Rule) error {
	var errs []error
	for idx, engine := range c.engines {
		if err := engine.Update(ctx, removeIDs, addRules); err != nil {
			errs = append(errs, fmt.Errorf("engine %d: %w", idx, err))
		}
	}
	return errors.Join(errs...)
}
