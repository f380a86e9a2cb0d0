package out

import (
	"context"

	"focuslock/internal/modules/history/domain"
)

type RecordStore interface {
	Load(ctx context.Context) ([]domain.Record, error)
	Save(ctx context.Context, records []domain.Record) error
}

type Exporter interface {
	Export(records []domain.Record, format string) ([]byte, error)
}
