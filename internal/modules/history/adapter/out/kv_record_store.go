package out

import (
	"context"

	"focuslock/internal/modules/history/domain"
	historyout "focuslock/internal/modules/history/port/out"
	"focuslock/internal/platform/kv"
)

type KVRecordStore struct {
	store kv.Store
}

func NewKVRecordStore(store kv.Store) historyout.RecordStore {
	return &KVRecordStore{store: store}
}

func (s *KVRecordStore) Load(ctx context.Context) ([]domain.Record, error) {
	raw, ok, err := s.store.Get(ctx, kv.KeyFocusHistory)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []domain.Record{}, nil
	}
	return domain.DecodeRecords(raw)
}

func (s *KVRecordStore) Save(ctx context.Context, records []domain.Record) error {
	raw, err := domain.EncodeRecords(records)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, kv.KeyFocusHistory, raw)
}
