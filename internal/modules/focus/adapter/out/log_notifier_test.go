package out_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	out "focuslock/internal/modules/focus/adapter/out"
	historydto "focuslock/internal/modules/history/dto"
)

func TestLogNotifierIssuesDistinctHandles(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	notifier := out.NewLogNotifier(hclog.New(&hclog.LoggerOptions{Output: &buf, Level: hclog.Debug}))
	ctx := context.Background()

	first, err := notifier.Show(ctx, "Focus session started", "You have 25 minutes to focus.", 2)
	require.NoError(t, err)
	second, err := notifier.Show(ctx, "Reminder", "Stay focused!", 1)
	require.NoError(t, err)

	assert.Equal(t, "log-1", first)
	assert.Equal(t, "log-2", second)
	require.NoError(t, notifier.Dismiss(ctx, first))
	assert.Contains(t, buf.String(), "You have 25 minutes to focus.")
	assert.Contains(t, buf.String(), "notification dismissed")
}

type recordingHistory struct {
	inputs []historydto.RecordInput
}

func (h *recordingHistory) Record(_ context.Context, input historydto.RecordInput) (historydto.Entry, error) {
	h.inputs = append(h.inputs, input)
	return historydto.Entry{DurationMinutes: input.DurationMinutes}, nil
}

func (h *recordingHistory) List(context.Context) (historydto.ListOutput, error) {
	return historydto.ListOutput{}, nil
}

func (h *recordingHistory) Export(context.Context, string) (historydto.ExportOutput, error) {
	return historydto.ExportOutput{}, nil
}

func TestHistoryRecorderForwardsMinutes(t *testing.T) {
	t.Parallel()
	history := &recordingHistory{}
	recorder := out.NewHistoryRecorder(history)

	require.NoError(t, recorder.Record(context.Background(), 0.5))
	require.Len(t, history.inputs, 1)
	assert.Equal(t, 0.5, history.inputs[0].DurationMinutes)
}
