package in

import (
	"context"

	"focuslock/internal/modules/focus/dto"
	focusin "focuslock/internal/modules/focus/port/in"
)

type CLIHandler struct {
	usecase focusin.Usecase
}

func NewCLIHandler(usecase focusin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Start(ctx context.Context, minutes string, websites []string) (dto.StartOutput, error) {
	return h.usecase.Start(ctx, dto.StartInput{BlockTime: dto.BlockTime(minutes), Websites: websites})
}

func (h CLIHandler) Stop(ctx context.Context) (dto.StopOutput, error) {
	return h.usecase.Stop(ctx)
}

func (h CLIHandler) Status(ctx context.Context) (dto.StatusOutput, error) {
	return h.usecase.Status(ctx)
}

func (h CLIHandler) SaveSites(ctx context.Context, websites []string) (dto.SitesOutput, error) {
	return h.usecase.SaveSites(ctx, websites)
}

func (h CLIHandler) Sites(ctx context.Context) (dto.SitesOutput, error) {
	return h.usecase.Sites(ctx)
}

func (h CLIHandler) Check(ctx context.Context, rawURL string) (dto.CheckOutput, error) {
	return h.usecase.Check(ctx, rawURL)
}

func (h CLIHandler) RunDaemon(ctx context.Context) error {
	return h.usecase.RunDaemon(ctx)
}

func (h CLIHandler) StartDaemon(ctx context.Context) error {
	return h.usecase.StartDaemon(ctx)
}

func (h CLIHandler) StopDaemon(ctx context.Context) error {
	return h.usecase.StopDaemon(ctx)
}

func (h CLIHandler) DaemonStatus(ctx context.Context) (dto.DaemonStatusOutput, error) {
	return h.usecase.DaemonStatus(ctx)
}

func (h CLIHandler) DaemonLogs(ctx context.Context, tail int) (string, error) {
	return h.usecase.DaemonLogs(ctx, tail)
}
