package main

import (
	"context"
	"os"

	"focuslock/internal/modules/focus/adapter/out/rulesrpc"

	"github.com/hashicorp/go-plugin"
)

const defaultHostsPath = "/etc/hosts"

type server struct {
	hosts hostsFile
}

func (s *server) GetMetadata(_ context.Context, _ *rulesrpc.Empty) (*rulesrpc.Metadata, error) {
	return &rulesrpc.Metadata{Name: "hostsfile", Version: "1.0.0"}, nil
}

func (s *server) Apply(_ context.Context, in *rulesrpc.ApplyRequest) (*rulesrpc.ApplyResponse, error) {
	removeIDs := make([]int, 0, len(in.RemoveIDs))
	for _, id := range in.RemoveIDs {
		removeIDs = append(removeIDs, int(id))
	}
	add := make([]hostsEntry, 0, len(in.AddRules))
	for _, rule := range in.AddRules {
		add = append(add, hostsEntry{id: int(rule.ID), domain: rule.Domain})
	}
	installed, err := s.hosts.apply(removeIDs, add)
	if err != nil {
		return nil, err
	}
	return &rulesrpc.ApplyResponse{Installed: int32(installed)}, nil
}

func main() {
	path := os.Getenv("FOCUSLOCK_HOSTS_FILE")
	if path == "" {
		path = defaultHostsPath
	}
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: rulesrpc.HandshakeConfig,
		Plugins:         rulesrpc.PluginMap(&server{hosts: hostsFile{path: path}}),
		GRPCServer:      plugin.DefaultGRPCServer,
	})
}
