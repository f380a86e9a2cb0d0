package usecase

import (
	"context"
	"errors"
	"strings"

	"focuslock/internal/modules/focus/domain"
	"focuslock/internal/modules/focus/dto"
	focusin "focuslock/internal/modules/focus/port/in"
	apperrors "focuslock/internal/platform/errors"
)

type servicePort interface {
	RunDaemon(ctx context.Context) error
	StartDaemon(ctx context.Context) error
	StopDaemon(ctx context.Context) error
	DaemonStatus(ctx context.Context) (dto.DaemonStatusOutput, error)
	DaemonLogs(ctx context.Context, tail int) (string, error)
	StartSession(ctx context.Context, input dto.StartInput) (dto.StartOutput, error)
	StopSession(ctx context.Context) (dto.StopOutput, error)
	Status(ctx context.Context) (dto.StatusOutput, error)
	SaveSites(ctx context.Context, sites []string) (dto.SitesOutput, error)
	Sites(ctx context.Context) ([]string, error)
}

type Interactor struct {
	svc servicePort
}

func NewInteractor(svc servicePort) focusin.Usecase {
	return &Interactor{svc: svc}
}

// Start hands the request to the daemon, launching it first when none is
// running. A running daemon validates the request itself so rejections
// raise its error notification; a request that would fail anyway does not
// launch one.
func (i *Interactor) Start(ctx context.Context, input dto.StartInput) (dto.StartOutput, error) {
	out, err := i.svc.StartSession(ctx, input)
	if !errors.Is(err, apperrors.ErrDaemonNotRunning) {
		return out, err
	}
	if _, err := domain.ValidateSites(input.Websites); err != nil {
		return dto.StartOutput{}, err
	}
	if _, err := domain.ParseBlockTime(string(input.BlockTime)); err != nil {
		return dto.StartOutput{}, err
	}
	if err := i.svc.StartDaemon(ctx); err != nil {
		return dto.StartOutput{}, err
	}
	return i.svc.StartSession(ctx, input)
}

func (i *Interactor) Stop(ctx context.Context) (dto.StopOutput, error) {
	out, err := i.svc.StopSession(ctx)
	if errors.Is(err, apperrors.ErrDaemonNotRunning) {
		return dto.StopOutput{}, apperrors.ErrNoActiveSession
	}
	return out, err
}

func (i *Interactor) Status(ctx context.Context) (dto.StatusOutput, error) {
	return i.svc.Status(ctx)
}

func (i *Interactor) SaveSites(ctx context.Context, sites []string) (dto.SitesOutput, error) {
	return i.svc.SaveSites(ctx, sites)
}

func (i *Interactor) Sites(ctx context.Context) (dto.SitesOutput, error) {
	sites, err := i.svc.Sites(ctx)
	if err != nil {
		return dto.SitesOutput{}, err
	}
	return dto.SitesOutput{Sites: sites}, nil
}

// Check reports whether rawURL contains any persisted site. It is the
// loose client-side check and does not consult the daemon.
func (i *Interactor) Check(ctx context.Context, rawURL string) (dto.CheckOutput, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return dto.CheckOutput{}, &domain.ValidationError{Field: "url", Reason: "url is required"}
	}
	sites, err := i.svc.Sites(ctx)
	if err != nil {
		return dto.CheckOutput{}, err
	}
	out := dto.CheckOutput{URL: rawURL}
	out.Site, out.Blocked = domain.IsBlocked(rawURL, sites)
	return out, nil
}

func (i *Interactor) RunDaemon(ctx context.Context) error {
	return i.svc.RunDaemon(ctx)
}

func (i *Interactor) StartDaemon(ctx context.Context) error {
	return i.svc.StartDaemon(ctx)
}

func (i *Interactor) StopDaemon(ctx context.Context) error {
	return i.svc.StopDaemon(ctx)
}

func (i *Interactor) DaemonStatus(ctx context.Context) (dto.DaemonStatusOutput, error) {
	return i.svc.DaemonStatus(ctx)
}

func (i *Interactor) DaemonLogs(ctx context.Context, tail int) (string, error) {
	return i.svc.DaemonLogs(ctx, tail)
}
