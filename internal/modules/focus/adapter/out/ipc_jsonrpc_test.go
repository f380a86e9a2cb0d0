package out_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	out "focuslock/internal/modules/focus/adapter/out"
	"focuslock/internal/modules/focus/domain"
	"focuslock/internal/modules/focus/dto"
	apperrors "focuslock/internal/platform/errors"
)

type fakeIPCHandler struct {
	mu       sync.Mutex
	active   bool
	inputs   []dto.StartInput
	sites    []string
	shutdown bool
}

func (h *fakeIPCHandler) StartSession(_ context.Context, input dto.StartInput) (dto.StartOutput, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, err := domain.ParseBlockTime(string(input.BlockTime)); err != nil {
		return dto.StartOutput{}, err
	}
	h.inputs = append(h.inputs, input)
	h.active = true
	return dto.StartOutput{Status: domain.StatusStarted, SessionID: "session-1", Minutes: 25}, nil
}

func (h *fakeIPCHandler) StopSession(context.Context) (dto.StopOutput, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.active {
		return dto.StopOutput{}, apperrors.ErrNoActiveSession
	}
	h.active = false
	return dto.StopOutput{Status: domain.StatusStopped, SessionID: "session-1"}, nil
}

func (h *fakeIPCHandler) Status(context.Context) (dto.StatusOutput, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return dto.StatusOutput{Active: h.active, SessionID: "session-1", Remaining: 90 * time.Second, DaemonRunning: true}, nil
}

func (h *fakeIPCHandler) SaveSites(_ context.Context, sites []string) (dto.SitesOutput, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sites = domain.NormalizeSites(sites)
	return dto.SitesOutput{Status: domain.StatusSaved, Sites: h.sites}, nil
}

func (h *fakeIPCHandler) Shutdown(context.Context) error {
	h.mu.Lock()
	h.shutdown = true
	h.mu.Unlock()
	return nil
}

func shortSocketPath(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "fl")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	return filepath.Join(dir, "d.sock")
}

func TestJSONRPCServerClientContract(t *testing.T) {
	t.Parallel()
	h := &fakeIPCHandler{}
	server := out.NewJSONRPCServer()
	client := out.NewJSONRPCClient()
	socketPath := shortSocketPath(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Serve(ctx, socketPath, h)
	}()

	require.Eventually(t, func() bool {
		_, err := client.Status(context.Background(), socketPath)
		return err == nil
	}, 2*time.Second, 50*time.Millisecond)

	started, err := client.StartSession(context.Background(), socketPath, dto.StartInput{BlockTime: "25", Websites: []string{"a.com"}})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusStarted, started.Status)
	assert.Equal(t, "session-1", started.SessionID)

	status, err := client.Status(context.Background(), socketPath)
	require.NoError(t, err)
	assert.True(t, status.Active)
	assert.Equal(t, 90*time.Second, status.Remaining)

	saved, err := client.SaveSites(context.Background(), socketPath, []string{" b.com ", ""})
	require.NoError(t, err)
	assert.Equal(t, []string{"b.com"}, saved.Sites)

	stopped, err := client.StopSession(context.Background(), socketPath)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusStopped, stopped.Status)

	require.NoError(t, client.Shutdown(context.Background(), socketPath))
	h.mu.Lock()
	assert.True(t, h.shutdown)
	assert.Equal(t, []string{"a.com"}, h.inputs[0].Websites)
	h.mu.Unlock()

	cancel()
	select {
	case err := <-serveErr:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop after cancel")
	}
}

func TestJSONRPCClientRebuildsTypedErrors(t *testing.T) {
	t.Parallel()
	h := &fakeIPCHandler{}
	server := out.NewJSONRPCServer()
	client := out.NewJSONRPCClient()
	socketPath := shortSocketPath(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = server.Serve(ctx, socketPath, h) }()
	require.Eventually(t, func() bool {
		_, err := client.Status(context.Background(), socketPath)
		return err == nil
	}, 2*time.Second, 50*time.Millisecond)

	_, err := client.StopSession(context.Background(), socketPath)
	require.ErrorIs(t, err, apperrors.ErrNoActiveSession)

	_, err = client.StartSession(context.Background(), socketPath, dto.StartInput{BlockTime: "0", Websites: []string{"a.com"}})
	require.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Equal(t, domain.ReasonBlockTimeRange, err.Error())
}

func TestJSONRPCClientFailsWithoutServer(t *testing.T) {
	t.Parallel()
	client := out.NewJSONRPCClient()
	_, err := client.Status(context.Background(), filepath.Join(t.TempDir(), "missing.sock"))
	require.Error(t, err)
}
