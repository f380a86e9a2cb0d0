package service

import (
	"context"
	"fmt"
	"math"
	"sync"

	"focuslock/internal/modules/history/domain"
	historyout "focuslock/internal/modules/history/port/out"
	"focuslock/internal/platform/clock"
	apperrors "focuslock/internal/platform/errors"
)

// HistoryService owns the read-modify-write of the history list. Appends
// from one process are serialized; only the daemon process appends.
type HistoryService struct {
	clock clock.Clock
	store historyout.RecordStore

	mu sync.Mutex
}

func NewHistoryService(clk clock.Clock, store historyout.RecordStore) *HistoryService {
	return &HistoryService{clock: clk, store: store}
}

func (s *HistoryService) Append(ctx context.Context, minutes float64) (domain.Record, error) {
	if minutes <= 0 || math.IsNaN(minutes) || math.IsInf(minutes, 0) {
		return domain.Record{}, fmt.Errorf("%w: duration must be positive", apperrors.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.store.Load(ctx)
	if err != nil {
		return domain.Record{}, err
	}
	record := domain.Record{
		DurationMinutes: minutes,
		EndedAt:         s.clock.Now(),
		Kind:            domain.KindDuration,
	}
	records = append(records, record)
	if err := s.store.Save(ctx, records); err != nil {
		return domain.Record{}, err
	}
	return record, nil
}

func (s *HistoryService) List(ctx context.Context) ([]domain.Record, error) {
	return s.store.Load(ctx)
}
