package in

import (
	"context"

	"focuslock/internal/modules/history/dto"
)

type Usecase interface {
	Record(ctx context.Context, input dto.RecordInput) (dto.Entry, error)
	List(ctx context.Context) (dto.ListOutput, error)
	Export(ctx context.Context, format string) (dto.ExportOutput, error)
}
