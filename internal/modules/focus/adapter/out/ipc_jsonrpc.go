package out

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"path/filepath"
	"time"

	"focuslock/internal/modules/focus/domain"
	"focuslock/internal/modules/focus/dto"
	focusout "focuslock/internal/modules/focus/port/out"
	apperrors "focuslock/internal/platform/errors"
)

const (
	ActionStartSession = "startSession"
	ActionStopSession  = "stopSession"

	codeInvalidInput    = "invalid_input"
	codeNoActiveSession = "no_active_session"
)

type JSONRPCServer struct{}

type JSONRPCClient struct{}

func NewJSONRPCServer() focusout.IPCServer {
	return &JSONRPCServer{}
}

func NewJSONRPCClient() focusout.IPCClient {
	return &JSONRPCClient{}
}

type rpcHandler struct {
	h focusout.IPCHandler
}

type startSessionReq struct {
	Action    string
	BlockTime dto.BlockTime
	Websites  []string
}

type startSessionResp struct {
	Status string
	Code   string
	Result dto.StartOutput
}

type stopSessionReq struct {
	Action string
}

type stopSessionResp struct {
	Status string
	Code   string
	Result dto.StopOutput
}

type saveSitesReq struct {
	Websites []string
}

type saveSitesResp struct {
	Status string
	Code   string
	Sites  []string
}

type statusResp struct {
	Status dto.StatusOutput
}

type empty struct{}

func (s *rpcHandler) StartSession(req startSessionReq, resp *startSessionResp) error {
	if req.Action != "" && req.Action != ActionStartSession {
		return fmt.Errorf("unexpected action %q", req.Action)
	}
	out, err := s.h.StartSession(context.Background(), dto.StartInput{BlockTime: req.BlockTime, Websites: req.Websites})
	if code, ok := errorCode(err); ok {
		resp.Status = err.Error()
		resp.Code = code
		return nil
	}
	if err != nil {
		return err
	}
	resp.Status = out.Status
	resp.Result = out
	return nil
}

func (s *rpcHandler) StopSession(req stopSessionReq, resp *stopSessionResp) error {
	if req.Action != "" && req.Action != ActionStopSession {
		return fmt.Errorf("unexpected action %q", req.Action)
	}
	out, err := s.h.StopSession(context.Background())
	if code, ok := errorCode(err); ok {
		resp.Status = err.Error()
		resp.Code = code
		return nil
	}
	if err != nil {
		return err
	}
	resp.Status = out.Status
	resp.Result = out
	return nil
}

func (s *rpcHandler) SaveSites(req saveSitesReq, resp *saveSitesResp) error {
	out, err := s.h.SaveSites(context.Background(), req.Websites)
	if code, ok := errorCode(err); ok {
		resp.Status = err.Error()
		resp.Code = code
		return nil
	}
	if err != nil {
		return err
	}
	resp.Status = out.Status
	resp.Sites = out.Sites
	return nil
}

func (s *rpcHandler) Status(_ empty, resp *statusResp) error {
	status, err := s.h.Status(context.Background())
	if err != nil {
		return err
	}
	resp.Status = status
	return nil
}

func (s *rpcHandler) Shutdown(_ empty, _ *empty) error {
	return s.h.Shutdown(context.Background())
}

func (s *JSONRPCServer) Serve(ctx context.Context, socketPath string, handler focusout.IPCHandler) error {
	if err := os.MkdirAll(filepath.Dir(socketPath), 0o755); err != nil {
		return fmt.Errorf("create ipc dir: %w", err)
	}
	if err := os.Remove(socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stale ipc socket: %w", err)
	}
	ln, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("listen ipc socket: %w", err)
	}
	if err := os.Chmod(socketPath, 0o600); err != nil {
		_ = ln.Close()
		return fmt.Errorf("chmod ipc socket: %w", err)
	}
	defer ln.Close()

	rpcSrv := rpc.NewServer()
	if err := rpcSrv.RegisterName("Focus", &rpcHandler{h: handler}); err != nil {
		return fmt.Errorf("register ipc handler: %w", err)
	}

	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = ln.Close()
		case <-stop:
		}
	}()
	defer close(stop)

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			return err
		}
		go rpcSrv.ServeCodec(jsonrpc.NewServerCodec(conn))
	}
}

func (c *JSONRPCClient) StartSession(ctx context.Context, socketPath string, input dto.StartInput) (dto.StartOutput, error) {
	client, err := dialClient(ctx, socketPath)
	if err != nil {
		return dto.StartOutput{}, err
	}
	defer client.Close()
	req := startSessionReq{Action: ActionStartSession, BlockTime: input.BlockTime, Websites: input.Websites}
	resp := startSessionResp{}
	if err := client.Call("Focus.StartSession", req, &resp); err != nil {
		return dto.StartOutput{}, err
	}
	if err := decodeError(resp.Code, resp.Status); err != nil {
		return dto.StartOutput{}, err
	}
	return resp.Result, nil
}

func (c *JSONRPCClient) StopSession(ctx context.Context, socketPath string) (dto.StopOutput, error) {
	client, err := dialClient(ctx, socketPath)
	if err != nil {
		return dto.StopOutput{}, err
	}
	defer client.Close()
	resp := stopSessionResp{}
	if err := client.Call("Focus.StopSession", stopSessionReq{Action: ActionStopSession}, &resp); err != nil {
		return dto.StopOutput{}, err
	}
	if err := decodeError(resp.Code, resp.Status); err != nil {
		return dto.StopOutput{}, err
	}
	return resp.Result, nil
}

func (c *JSONRPCClient) Status(ctx context.Context, socketPath string) (dto.StatusOutput, error) {
	client, err := dialClient(ctx, socketPath)
	if err != nil {
		return dto.StatusOutput{}, err
	}
	defer client.Close()
	resp := statusResp{}
	if err := client.Call("Focus.Status", empty{}, &resp); err != nil {
		return dto.StatusOutput{}, err
	}
	return resp.Status, nil
}

func (c *JSONRPCClient) SaveSites(ctx context.Context, socketPath string, sites []string) (dto.SitesOutput, error) {
	client, err := dialClient(ctx, socketPath)
	if err != nil {
		return dto.SitesOutput{}, err
	}
	defer client.Close()
	resp := saveSitesResp{}
	if err := client.Call("Focus.SaveSites", saveSitesReq{Websites: sites}, &resp); err != nil {
		return dto.SitesOutput{}, err
	}
	if err := decodeError(resp.Code, resp.Status); err != nil {
		return dto.SitesOutput{}, err
	}
	return dto.SitesOutput{Status: resp.Status, Sites: resp.Sites}, nil
}

func (c *JSONRPCClient) Shutdown(ctx context.Context, socketPath string) error {
	client, err := dialClient(ctx, socketPath)
	if err != nil {
		return err
	}
	defer client.Close()
	return client.Call("Focus.Shutdown", empty{}, &empty{})
}

func dialClient(ctx context.Context, socketPath string) (*rpc.Client, error) {
	d := net.Dialer{}
	conn, err := d.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return nil, err
	}
	_ = conn.SetDeadline(time.Now().Add(10 * time.Second))
	client := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return client, nil
}

// errorCode maps the errors a client can act on to stable codes; net/rpc
// otherwise flattens them into plain strings.
func errorCode(err error) (string, bool) {
	switch {
	case err == nil:
		return "", false
	case errors.Is(err, apperrors.ErrNoActiveSession):
		return codeNoActiveSession, true
	case errors.Is(err, apperrors.ErrInvalidInput):
		return codeInvalidInput, true
	default:
		return "", false
	}
}

func decodeError(code, status string) error {
	switch code {
	case "":
		return nil
	case codeNoActiveSession:
		return apperrors.ErrNoActiveSession
	case codeInvalidInput:
		return &domain.ValidationError{Reason: status}
	default:
		return fmt.Errorf("daemon error %s: %s", code, status)
	}
}
