package out_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	out "focuslock/internal/modules/focus/adapter/out"
	"focuslock/internal/modules/focus/domain"
)

type recordingEngine struct {
	calls int
	err   error
}

func (r *recordingEngine) Update(context.Context, []int, []domain.Rule) error {
	r.calls++
	return r.err
}

func TestChainRuleEngineReachesEveryEngine(t *testing.T) {
	t.Parallel()
	failing := &recordingEngine{err: errors.New("hosts file locked")}
	ok := &recordingEngine{}
	chain := out.NewChainRuleEngine(failing, ok)

	err := chain.Update(context.Background(), []int{1}, domain.BuildRules([]string{"a.com"}, "/blocked"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hosts file locked")
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, ok.calls)

	require.NoError(t, out.NewChainRuleEngine(ok).Update(context.Background(), nil, nil))
}
