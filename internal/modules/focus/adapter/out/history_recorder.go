package out

import (
	"context"

	focusout "focuslock/internal/modules/focus/port/out"
	historydto "focuslock/internal/modules/history/dto"
	historyin "focuslock/internal/modules/history/port/in"
)

// HistoryRecorder appends completed sessions through the history module.
type HistoryRecorder struct {
	history historyin.Usecase
}

func NewHistoryRecorder(history historyin.Usecase) focusout.HistoryRecorder {
	return &HistoryRecorder{history: history}
}

func (r *HistoryRecorder) Record(ctx context.Context, minutes float64) error {
	_, err := r.history.Record(ctx, historydto.RecordInput{DurationMinutes: minutes})
	return err
}
