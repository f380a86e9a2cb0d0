package in

import (
	"context"

	historydto "focuslock/internal/modules/history/dto"
	historyin "focuslock/internal/modules/history/port/in"
)

type CLIHandler struct {
	usecase historyin.Usecase
}

func NewCLIHandler(usecase historyin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) List(ctx context.Context) (historydto.ListOutput, error) {
	return h.usecase.List(ctx)
}

func (h CLIHandler) Export(ctx context.Context, format string) (historydto.ExportOutput, error) {
	return h.usecase.Export(ctx, format)
}
