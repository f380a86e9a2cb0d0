package in

import (
	"context"

	"focuslock/internal/modules/focus/dto"
)

type Usecase interface {
	Start(ctx context.Context, input dto.StartInput) (dto.StartOutput, error)
	Stop(ctx context.Context) (dto.StopOutput, error)
	Status(ctx context.Context) (dto.StatusOutput, error)
	SaveSites(ctx context.Context, sites []string) (dto.SitesOutput, error)
	Sites(ctx context.Context) (dto.SitesOutput, error)
	Check(ctx context.Context, rawURL string) (dto.CheckOutput, error)

	RunDaemon(ctx context.Context) error
	StartDaemon(ctx context.Context) error
	StopDaemon(ctx context.Context) error
	DaemonStatus(ctx context.Context) (dto.DaemonStatusOutput, error)
	DaemonLogs(ctx context.Context, tail int) (string, error)
}
