package out

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallContextBoundsCallsWithoutDeadline(t *testing.T) {
	t.Parallel()
	ctx, cancel := callContext(context.Background(), defaultPluginCallTimeout)
	defer cancel()

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(defaultPluginCallTimeout), deadline, time.Second)
}

func TestCallContextKeepsCallerDeadline(t *testing.T) {
	t.Parallel()
	parent, parentCancel := context.WithTimeout(context.Background(), time.Minute)
	defer parentCancel()
	want, _ := parent.Deadline()

	ctx, cancel := callContext(parent, defaultPluginCallTimeout)
	defer cancel()

	got, ok := ctx.Deadline()
	require.True(t, ok)
	assert.Equal(t, want, got)
}
