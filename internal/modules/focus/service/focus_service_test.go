package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"focuslock/internal/modules/focus/domain"
	"focuslock/internal/modules/focus/dto"
	focusout "focuslock/internal/modules/focus/port/out"
	"focuslock/internal/modules/focus/service"
	apperrors "focuslock/internal/platform/errors"
)

type memDaemonStore struct {
	mu     sync.Mutex
	pid    int
	socket string
	log    string
}

func (s *memDaemonStore) WritePID(_ context.Context, pid int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pid = pid
	return nil
}

func (s *memDaemonStore) ReadPID(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pid == 0 {
		return 0, os.ErrNotExist
	}
	return s.pid, nil
}

func (s *memDaemonStore) ClearPID(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pid = 0
	return nil
}

func (s *memDaemonStore) SocketPath() string { return s.socket }
func (s *memDaemonStore) LogPath() string    { return s.log }

func (s *memDaemonStore) currentPID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pid
}

// captureIPCServer hands the daemon's handler to the test instead of
// listening on a socket.
type captureIPCServer struct {
	handlers chan focusout.IPCHandler
}

func (s *captureIPCServer) Serve(ctx context.Context, _ string, handler focusout.IPCHandler) error {
	s.handlers <- handler
	<-ctx.Done()
	return ctx.Err()
}

type unreachableIPCClient struct{}

func (unreachableIPCClient) StartSession(context.Context, string, dto.StartInput) (dto.StartOutput, error) {
	return dto.StartOutput{}, errors.New("unexpected ipc call")
}
func (unreachableIPCClient) StopSession(context.Context, string) (dto.StopOutput, error) {
	return dto.StopOutput{}, errors.New("unexpected ipc call")
}
func (unreachableIPCClient) Status(context.Context, string) (dto.StatusOutput, error) {
	return dto.StatusOutput{}, errors.New("unexpected ipc call")
}
func (unreachableIPCClient) SaveSites(context.Context, string, []string) (dto.SitesOutput, error) {
	return dto.SitesOutput{}, errors.New("unexpected ipc call")
}
func (unreachableIPCClient) Shutdown(context.Context, string) error {
	return errors.New("unexpected ipc call")
}

type staleMatcher struct{ stale int }

func (m staleMatcher) Match(context.Context, string, domain.ResourceScope) (domain.Rule, bool, error) {
	return domain.Rule{}, false, nil
}
func (m staleMatcher) Count(context.Context) (int, error) { return m.stale, nil }

func newDaemonStore(t *testing.T) *memDaemonStore {
	t.Helper()
	dir := t.TempDir()
	return &memDaemonStore{
		socket: filepath.Join(dir, "daemon.sock"),
		log:    filepath.Join(dir, "daemon.log"),
	}
}

func TestRunDaemonServesSessionsUntilShutdown(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	store := newDaemonStore(t)
	ipc := &captureIPCServer{handlers: make(chan focusout.IPCHandler, 1)}
	closed := false

	svc := service.NewFocusService(service.FocusServiceDeps{
		StateDir:  t.TempDir(),
		Sites:     h.sites,
		Daemon:    store,
		IPCServer: ipc,
		IPCClient: unreachableIPCClient{},
		NewRuntime: func(context.Context) (service.Runtime, error) {
			return service.Runtime{
				Manager: h.manager,
				Matcher: staleMatcher{stale: 2},
				Close: func() error {
					closed = true
					return nil
				},
			}, nil
		},
	})

	done := make(chan error, 1)
	go func() { done <- svc.RunDaemon(context.Background()) }()

	var handler focusout.IPCHandler
	select {
	case handler = <-ipc.handlers:
	case <-time.After(5 * time.Second):
		t.Fatalf("daemon never started serving")
	}
	if store.currentPID() != os.Getpid() {
		t.Fatalf("expected pid file to hold %d, got %d", os.Getpid(), store.currentPID())
	}
	if !reflect.DeepEqual(h.engine.updates[0].remove, []int{1, 2}) {
		t.Fatalf("stale rules not reconciled: %+v", h.engine.updates[0])
	}

	ctx := context.Background()
	started, err := handler.StartSession(ctx, dto.StartInput{BlockTime: "25", Websites: []string{"a.com"}})
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	if started.Status != domain.StatusStarted || started.Minutes != 25 {
		t.Fatalf("unexpected start output: %+v", started)
	}
	status, err := handler.Status(ctx)
	if err != nil || !status.Active || !status.DaemonRunning || status.Remaining != 25*time.Minute {
		t.Fatalf("unexpected status: %+v (%v)", status, err)
	}

	if _, err := handler.StartSession(ctx, dto.StartInput{BlockTime: "0", Websites: []string{"a.com"}}); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}

	if err := handler.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run daemon: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("daemon did not stop")
	}

	if !closed {
		t.Fatalf("runtime was not closed")
	}
	if store.currentPID() != 0 {
		t.Fatalf("pid file not cleared")
	}
	if h.manager.Snapshot().Session.Active() {
		t.Fatalf("shutdown left the session active")
	}
	if !reflect.DeepEqual(h.engine.last().remove, []int{1}) {
		t.Fatalf("shutdown should clear installed rules: %+v", h.engine.last())
	}
}

func TestOperationsWithoutDaemon(t *testing.T) {
	t.Parallel()
	sites := &fakeSites{}
	svc := service.NewFocusService(service.FocusServiceDeps{
		StateDir:  t.TempDir(),
		Sites:     sites,
		Daemon:    newDaemonStore(t),
		IPCClient: unreachableIPCClient{},
	})
	ctx := context.Background()

	if _, err := svc.StartSession(ctx, dto.StartInput{BlockTime: "25", Websites: []string{"a.com"}}); !errors.Is(err, apperrors.ErrDaemonNotRunning) {
		t.Fatalf("expected daemon not running, got %v", err)
	}
	if _, err := svc.StopSession(ctx); !errors.Is(err, apperrors.ErrDaemonNotRunning) {
		t.Fatalf("expected daemon not running, got %v", err)
	}

	status, err := svc.Status(ctx)
	if err != nil || status.Active || status.DaemonRunning {
		t.Fatalf("expected idle status, got %+v (%v)", status, err)
	}

	saved, err := svc.SaveSites(ctx, []string{" a.com ", "", "b.com"})
	if err != nil {
		t.Fatalf("save sites: %v", err)
	}
	if saved.Status != domain.StatusSaved || !reflect.DeepEqual(sites.saved, []string{"a.com", "b.com"}) {
		t.Fatalf("unexpected save: %+v / %v", saved, sites.saved)
	}
	loaded, err := svc.Sites(ctx)
	if err != nil || !reflect.DeepEqual(loaded, []string{"a.com", "b.com"}) {
		t.Fatalf("unexpected sites: %v (%v)", loaded, err)
	}

	if err := svc.Shutdown(ctx); !errors.Is(err, apperrors.ErrDaemonNotRunning) {
		t.Fatalf("expected daemon not running, got %v", err)
	}
	rule, ok, err := svc.MatchNavigation(ctx, "https://a.com")
	if err != nil || ok || rule.ID != 0 {
		t.Fatalf("no runtime should match nothing")
	}
}

func TestDaemonLogsTail(t *testing.T) {
	t.Parallel()
	store := newDaemonStore(t)
	if err := os.WriteFile(store.log, []byte("one\ntwo\nthree\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	svc := service.NewFocusService(service.FocusServiceDeps{Daemon: store})

	logs, err := svc.DaemonLogs(context.Background(), 2)
	if err != nil || logs != "two\nthree" {
		t.Fatalf("unexpected logs %q (%v)", logs, err)
	}

	status, err := svc.DaemonStatus(context.Background())
	if err != nil || status.Running || status.SocketPath != store.socket {
		t.Fatalf("unexpected daemon status %+v (%v)", status, err)
	}
}
