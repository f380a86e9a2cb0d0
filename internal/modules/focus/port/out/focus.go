package out

import (
	"context"

	"focuslock/internal/modules/focus/domain"
	"focuslock/internal/modules/focus/dto"
)

// RuleEngine applies a batch of rule removals and additions atomically.
type RuleEngine interface {
	Update(ctx context.Context, removeIDs []int, addRules []domain.Rule) error
}

// RuleMatcher answers which installed rule, if any, applies to a navigation.
type RuleMatcher interface {
	Match(ctx context.Context, rawURL string, scope domain.ResourceScope) (domain.Rule, bool, error)
	Count(ctx context.Context) (int, error)
}

type Notifier interface {
	Show(ctx context.Context, title, message string, priority int) (string, error)
	Dismiss(ctx context.Context, handle string) error
}

type SoundPlayer interface {
	Play(ctx context.Context, resource string) error
}

// SiteStore persists the ordered blocked-site list.
type SiteStore interface {
	Load(ctx context.Context) ([]string, error)
	Save(ctx context.Context, sites []string) error
}

type HistoryRecorder interface {
	Record(ctx context.Context, minutes float64) error
}

type DaemonStore interface {
	WritePID(ctx context.Context, pid int) error
	ReadPID(ctx context.Context) (int, error)
	ClearPID(ctx context.Context) error
	SocketPath() string
	LogPath() string
}

// IPCServer serves the daemon JSON-RPC API.
type IPCServer interface {
	Serve(ctx context.Context, socketPath string, handler IPCHandler) error
}

// IPCClient talks to the local daemon JSON-RPC API.
type IPCClient interface {
	StartSession(ctx context.Context, socketPath string, input dto.StartInput) (dto.StartOutput, error)
	StopSession(ctx context.Context, socketPath string) (dto.StopOutput, error)
	Status(ctx context.Context, socketPath string) (dto.StatusOutput, error)
	SaveSites(ctx context.Context, socketPath string, sites []string) (dto.SitesOutput, error)
	Shutdown(ctx context.Context, socketPath string) error
}

type IPCHandler interface {
	StartSession(ctx context.Context, input dto.StartInput) (dto.StartOutput, error)
	StopSession(ctx context.Context) (dto.StopOutput, error)
	Status(ctx context.Context) (dto.StatusOutput, error)
	SaveSites(ctx context.Context, sites []string) (dto.SitesOutput, error)
	Shutdown(ctx context.Context) error
}

// BlockPageServer serves the redirect destination over local HTTP.
type BlockPageServer interface {
	Serve(ctx context.Context, addr string, handler BlockPageHandler) error
}

type BlockPageHandler interface {
	MatchNavigation(ctx context.Context, rawURL string) (domain.Rule, bool, error)
	Status(ctx context.Context) (dto.StatusOutput, error)
}
