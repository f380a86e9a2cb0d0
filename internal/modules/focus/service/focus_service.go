package service

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"

	"focuslock/internal/modules/focus/domain"
	"focuslock/internal/modules/focus/dto"
	focusout "focuslock/internal/modules/focus/port/out"
	apperrors "focuslock/internal/platform/errors"
)

const (
	daemonStartTimeout  = 5 * time.Second
	defaultLogTailLines = 200
)

// Runtime is everything the daemon process owns while it runs.
type Runtime struct {
	Manager *SessionManager
	Matcher focusout.RuleMatcher
	Close   func() error
}

// RuntimeFactory builds the daemon runtime. Only `daemon run` calls it, so
// short-lived CLI processes never open notifiers, audio or rule engines.
type RuntimeFactory func(ctx context.Context) (Runtime, error)

type runtimeState struct {
	manager *SessionManager
	matcher focusout.RuleMatcher
	close   func() error
	cancel  context.CancelFunc
}

type FocusService struct {
	stateDir   string
	httpAddr   string
	sites      focusout.SiteStore
	daemon     focusout.DaemonStore
	ipcServer  focusout.IPCServer
	ipcClient  focusout.IPCClient
	blockPage  focusout.BlockPageServer
	newRuntime RuntimeFactory
	logger     hclog.Logger

	mu      sync.RWMutex
	runtime *runtimeState
}

type FocusServiceDeps struct {
	StateDir   string
	HTTPAddr   string
	Sites      focusout.SiteStore
	Daemon     focusout.DaemonStore
	IPCServer  focusout.IPCServer
	IPCClient  focusout.IPCClient
	BlockPage  focusout.BlockPageServer
	NewRuntime RuntimeFactory
	Logger     hclog.Logger
}

func NewFocusService(deps FocusServiceDeps) *FocusService {
	logger := deps.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &FocusService{
		stateDir:   deps.StateDir,
		httpAddr:   deps.HTTPAddr,
		sites:      deps.Sites,
		daemon:     deps.Daemon,
		ipcServer:  deps.IPCServer,
		ipcClient:  deps.IPCClient,
		blockPage:  deps.BlockPage,
		newRuntime: deps.NewRuntime,
		logger:     logger,
	}
}

func (s *FocusService) RunDaemon(ctx context.Context) error {
	if err := s.cleanupStaleArtifacts(ctx); err != nil {
		return err
	}
	if s.newRuntime == nil {
		return fmt.Errorf("daemon runtime is not configured")
	}
	rt, err := s.newRuntime(ctx)
	if err != nil {
		return fmt.Errorf("build daemon runtime: %w", err)
	}
	if rt.Matcher != nil {
		stale, countErr := rt.Matcher.Count(ctx)
		if countErr != nil {
			s.logger.Warn("count stale blocking rules", "error", countErr)
		} else if err := rt.Manager.ReconcileRules(ctx, stale); err != nil {
			s.logger.Warn("remove stale blocking rules", "error", err)
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.runtime = &runtimeState{manager: rt.Manager, matcher: rt.Matcher, close: rt.Close, cancel: cancel}
	s.mu.Unlock()

	if err := s.daemon.WritePID(ctx, os.Getpid()); err != nil {
		cancel()
		s.cleanupRuntime(context.Background())
		return err
	}
	s.logger.Info("focus daemon started", "pid", os.Getpid(), "socket", s.daemon.SocketPath(), "http", s.httpAddr)

	ipcErr := make(chan error, 1)
	go func() {
		if s.ipcServer == nil {
			ipcErr <- fmt.Errorf("ipc server is not configured")
			return
		}
		ipcErr <- s.ipcServer.Serve(runCtx, s.daemon.SocketPath(), s)
	}()

	httpErr := make(chan error, 1)
	if s.blockPage != nil && s.httpAddr != "" {
		go func() {
			httpErr <- s.blockPage.Serve(runCtx, s.httpAddr, s)
		}()
	}

	var runErr error
	select {
	case <-runCtx.Done():
	case err := <-ipcErr:
		if err != nil && !errors.Is(err, net.ErrClosed) && !errors.Is(err, context.Canceled) {
			runErr = err
		}
	case err := <-httpErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			runErr = fmt.Errorf("block page server: %w", err)
		}
	}
	cancel()
	s.cleanupRuntime(context.Background())
	if runErr != nil {
		s.logger.Error("focus daemon stopped", "error", runErr)
		return runErr
	}
	s.logger.Info("focus daemon stopped")
	return nil
}

func (s *FocusService) StartDaemon(ctx context.Context) error {
	if err := s.cleanupStaleArtifacts(ctx); err != nil {
		return err
	}
	status, err := s.DaemonStatus(ctx)
	if err == nil && status.Running {
		if socketReachable(s.daemon.SocketPath()) {
			return nil
		}
		return fmt.Errorf("daemon process %d is alive but socket is unavailable", status.PID)
	}

	execPath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.daemon.LogPath()), 0o755); err != nil {
		return fmt.Errorf("create daemon log dir: %w", err)
	}
	if err := os.Remove(s.daemon.SocketPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stale daemon socket: %w", err)
	}

	logFile, err := os.OpenFile(s.daemon.LogPath(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open daemon log: %w", err)
	}
	defer logFile.Close()

	cmd := exec.Command(execPath, "daemon", "run", "--state-dir", s.stateDir)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.Stdin = nil
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}
	if err := s.daemon.WritePID(ctx, cmd.Process.Pid); err != nil {
		return err
	}
	_ = cmd.Process.Release()

	if err := waitForSocket(s.daemon.SocketPath(), daemonStartTimeout); err != nil {
		_ = s.daemon.ClearPID(ctx)
		return fmt.Errorf("start daemon: %w", err)
	}
	return nil
}

func (s *FocusService) StopDaemon(ctx context.Context) error {
	s.mu.RLock()
	rt := s.runtime
	s.mu.RUnlock()
	if rt != nil && rt.cancel != nil {
		rt.cancel()
		return nil
	}

	if s.ipcClient != nil && socketReachable(s.daemon.SocketPath()) {
		_ = s.ipcClient.Shutdown(ctx, s.daemon.SocketPath())
	}

	pid, err := s.daemon.ReadPID(ctx)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			_ = os.Remove(s.daemon.SocketPath())
			return nil
		}
		return err
	}
	if pid <= 0 || !processAlive(pid) {
		_ = s.daemon.ClearPID(ctx)
		_ = os.Remove(s.daemon.SocketPath())
		return nil
	}
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && processAlive(pid) {
		time.Sleep(100 * time.Millisecond)
	}
	if processAlive(pid) {
		if err := syscall.Kill(pid, syscall.SIGTERM); err != nil && !errors.Is(err, syscall.ESRCH) {
			return fmt.Errorf("stop daemon pid=%d: %w", pid, err)
		}
		deadline = time.Now().Add(2 * time.Second)
		for time.Now().Before(deadline) && processAlive(pid) {
			time.Sleep(100 * time.Millisecond)
		}
	}
	if processAlive(pid) {
		_ = syscall.Kill(pid, syscall.SIGKILL)
	}
	if err := s.daemon.ClearPID(ctx); err != nil {
		return err
	}
	_ = os.Remove(s.daemon.SocketPath())
	return nil
}

func (s *FocusService) DaemonStatus(ctx context.Context) (dto.DaemonStatusOutput, error) {
	out := dto.DaemonStatusOutput{SocketPath: s.daemon.SocketPath(), HTTPAddr: s.httpAddr}

	pid, err := s.daemon.ReadPID(ctx)
	if err == nil {
		out.PID = pid
		out.Running = processAlive(pid)
	}
	if out.Running && s.ipcClient != nil {
		status, statusErr := s.ipcClient.Status(ctx, s.daemon.SocketPath())
		if statusErr == nil {
			out.Session = status
		}
	}
	return out, nil
}

func (s *FocusService) DaemonLogs(_ context.Context, tail int) (string, error) {
	if tail <= 0 {
		tail = defaultLogTailLines
	}
	file, err := os.Open(s.daemon.LogPath())
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("open daemon log: %w", err)
	}
	defer file.Close()

	lines := make([]string, 0, tail)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if len(lines) < tail {
			lines = append(lines, line)
			continue
		}
		copy(lines, lines[1:])
		lines[len(lines)-1] = line
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("scan daemon log: %w", err)
	}
	return strings.Join(lines, "\n"), nil
}

// StartSession runs in the daemon when it owns the runtime and is proxied
// over IPC from every other process.
func (s *FocusService) StartSession(ctx context.Context, input dto.StartInput) (dto.StartOutput, error) {
	rt, err := s.local(ctx)
	if err != nil {
		return dto.StartOutput{}, err
	}
	if rt == nil {
		return s.ipcClient.StartSession(ctx, s.daemon.SocketPath(), input)
	}
	res, err := rt.manager.Start(ctx, string(input.BlockTime), input.Websites)
	if err != nil {
		return dto.StartOutput{}, err
	}
	out := dto.StartOutput{
		Status:    domain.StatusStarted,
		SessionID: res.Session.ID,
		Minutes:   res.Session.DurationMinutes,
		EndsAt:    res.Session.EndsAt(),
		Restarted: res.Restarted,
	}
	if res.RuleErr != nil {
		out.Warning = res.RuleErr.Error()
	}
	return out, nil
}

func (s *FocusService) StopSession(ctx context.Context) (dto.StopOutput, error) {
	rt, err := s.local(ctx)
	if err != nil {
		return dto.StopOutput{}, err
	}
	if rt == nil {
		return s.ipcClient.StopSession(ctx, s.daemon.SocketPath())
	}
	res, err := rt.manager.Stop(ctx)
	if err != nil {
		return dto.StopOutput{}, err
	}
	status := domain.StatusStopped
	if res.RuleErr != nil {
		status += " (" + res.RuleErr.Error() + ")"
	}
	return dto.StopOutput{Status: status, SessionID: res.Session.ID}, nil
}

// Status reports an idle session when no daemon is running.
func (s *FocusService) Status(ctx context.Context) (dto.StatusOutput, error) {
	rt, err := s.local(ctx)
	if errors.Is(err, apperrors.ErrDaemonNotRunning) {
		return dto.StatusOutput{}, nil
	}
	if err != nil {
		return dto.StatusOutput{}, err
	}
	if rt == nil {
		return s.ipcClient.Status(ctx, s.daemon.SocketPath())
	}
	snap := rt.manager.Snapshot()
	return dto.StatusOutput{
		Active:          snap.Session.Active(),
		SessionID:       snap.Session.ID,
		Sites:           snap.Session.BlockedSites,
		DurationMinutes: snap.Session.DurationMinutes,
		StartedAt:       snap.Session.StartedAt,
		EndsAt:          snap.EndsAt,
		Remaining:       snap.Remaining,
		Reminders:       snap.Reminders,
		Notification:    snap.Notification,
		DaemonRunning:   true,
	}, nil
}

// SaveSites goes through the daemon when one is running so it stays the
// only storage writer; otherwise the list is written directly.
func (s *FocusService) SaveSites(ctx context.Context, sites []string) (dto.SitesOutput, error) {
	rt, err := s.local(ctx)
	switch {
	case errors.Is(err, apperrors.ErrDaemonNotRunning):
		normalized := domain.NormalizeSites(sites)
		if err := s.sites.Save(ctx, normalized); err != nil {
			return dto.SitesOutput{}, err
		}
		return dto.SitesOutput{Status: domain.StatusSaved, Sites: normalized}, nil
	case err != nil:
		return dto.SitesOutput{}, err
	case rt == nil:
		return s.ipcClient.SaveSites(ctx, s.daemon.SocketPath(), sites)
	}
	saved, err := rt.manager.SaveSites(ctx, sites)
	if err != nil {
		return dto.SitesOutput{}, err
	}
	return dto.SitesOutput{Status: domain.StatusSaved, Sites: saved}, nil
}

func (s *FocusService) Sites(ctx context.Context) ([]string, error) {
	return s.sites.Load(ctx)
}

func (s *FocusService) Shutdown(_ context.Context) error {
	s.mu.RLock()
	rt := s.runtime
	s.mu.RUnlock()
	if rt == nil || rt.cancel == nil {
		return apperrors.ErrDaemonNotRunning
	}
	go rt.cancel()
	return nil
}

// MatchNavigation answers the block page's redirect check.
func (s *FocusService) MatchNavigation(ctx context.Context, rawURL string) (domain.Rule, bool, error) {
	s.mu.RLock()
	rt := s.runtime
	s.mu.RUnlock()
	if rt == nil || rt.matcher == nil {
		return domain.Rule{}, false, nil
	}
	return rt.matcher.Match(ctx, rawURL, domain.ScopeMainFrame)
}

// local returns the in-process runtime, or nil when a daemon socket is
// reachable and the caller should go over IPC.
func (s *FocusService) local(_ context.Context) (*runtimeState, error) {
	s.mu.RLock()
	rt := s.runtime
	s.mu.RUnlock()
	if rt != nil {
		return rt, nil
	}
	if s.ipcClient != nil && socketReachable(s.daemon.SocketPath()) {
		return nil, nil
	}
	return nil, apperrors.ErrDaemonNotRunning
}

func (s *FocusService) cleanupRuntime(ctx context.Context) {
	s.mu.Lock()
	rt := s.runtime
	s.runtime = nil
	s.mu.Unlock()
	if rt != nil {
		rt.manager.Shutdown(ctx)
		if rt.close != nil {
			if err := rt.close(); err != nil {
				s.logger.Warn("close daemon runtime", "error", err)
			}
		}
	}
	_ = s.daemon.ClearPID(ctx)
	_ = os.Remove(s.daemon.SocketPath())
}

func (s *FocusService) cleanupStaleArtifacts(ctx context.Context) error {
	pid, err := s.daemon.ReadPID(ctx)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
	} else if pid > 0 && !processAlive(pid) {
		_ = s.daemon.ClearPID(ctx)
		_ = os.Remove(s.daemon.SocketPath())
	}

	if _, statErr := os.Stat(s.daemon.SocketPath()); statErr == nil {
		if !socketReachable(s.daemon.SocketPath()) {
			if removeErr := os.Remove(s.daemon.SocketPath()); removeErr != nil && !os.IsNotExist(removeErr) {
				return fmt.Errorf("remove stale daemon socket: %w", removeErr)
			}
		}
	}
	return nil
}

func waitForSocket(path string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if socketReachable(path) {
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("daemon socket not ready: %s", path)
}

func socketReachable(path string) bool {
	conn, err := net.DialTimeout("unix", path, 150*time.Millisecond)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := syscall.Kill(pid, 0)
	return err == nil || errors.Is(err, syscall.EPERM)
}
