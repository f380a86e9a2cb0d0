package out

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	hclog "github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"

	"focuslock/internal/modules/focus/adapter/out/rulesrpc"
	"focuslock/internal/modules/focus/domain"
)

const (
	defaultPluginStartTimeout = 3 * time.Second
	defaultPluginCallTimeout  = 5 * time.Second
)

// PluginRuleEngine forwards rule updates to an external enforcement
// binary. The plugin is started for each call and killed afterwards.
type PluginRuleEngine struct {
	binary string
	logger hclog.Logger
}

func NewPluginRuleEngine(binary string, logger hclog.Logger) *PluginRuleEngine {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &PluginRuleEngine{binary: binary, logger: logger.Named("rules-plugin")}
}

// Check starts the plugin once and reads its metadata.
func (e *PluginRuleEngine) Check(ctx context.Context) (rulesrpc.Metadata, error) {
	client, closeFn, err := e.connect()
	if err != nil {
		return rulesrpc.Metadata{}, err
	}
	defer closeFn()

	callCtx, cancel := callContext(ctx, defaultPluginCallTimeout)
	defer cancel()
	meta, err := client.GetMetadata(callCtx)
	if err != nil {
		return rulesrpc.Metadata{}, fmt.Errorf("get plugin metadata: %w", err)
	}
	return *meta, nil
}

func (e *PluginRuleEngine) Update(ctx context.Context, removeIDs []int, addRules []domain.Rule) error {
	client, closeFn, err := e.connect()
	if err != nil {
		return err
	}
	defer closeFn()

	req := &rulesrpc.ApplyRequest{
		RemoveIDs: make([]int32, 0, len(removeIDs)),
		AddRules:  make([]rulesrpc.RuleSpec, 0, len(addRules)),
	}
	for _, id := range removeIDs {
		req.RemoveIDs = append(req.RemoveIDs, int32(id))
	}
	for _, rule := range addRules {
		req.AddRules = append(req.AddRules, rulesrpc.RuleSpec{
			ID:          int32(rule.ID),
			Domain:      rule.Domain,
			URLFilter:   rule.URLFilter(),
			Destination: rule.Destination,
			Scope:       string(rule.Scope),
		})
	}

	callCtx, cancel := callContext(ctx, defaultPluginCallTimeout)
	defer cancel()
	resp, err := client.Apply(callCtx, req)
	if err != nil {
		if callCtx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("apply rules: plugin timed out after %s", defaultPluginCallTimeout)
		}
		return fmt.Errorf("apply rules: %w", err)
	}
	e.logger.Debug("plugin applied rules", "removed", len(removeIDs), "added", len(addRules), "installed", resp.Installed)
	return nil
}

func (e *PluginRuleEngine) connect() (rulesrpc.RuleEnforcerClient, func(), error) {
	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig:  rulesrpc.HandshakeConfig,
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolGRPC},
		Plugins:          rulesrpc.PluginMap(nil),
		Cmd:              exec.Command(e.binary),
		Managed:          true,
		StartTimeout:     defaultPluginStartTimeout,
		Logger:           e.logger,
	})
	closeFn := func() { client.Kill() }

	rpcClient, err := client.Client()
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("start rules plugin %s: %w", e.binary, err)
	}
	raw, err := rpcClient.Dispense(rulesrpc.PluginMapKey)
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("dispense rules plugin: %w", err)
	}
	typed, ok := raw.(rulesrpc.RuleEnforcerClient)
	if !ok {
		closeFn()
		return nil, nil, fmt.Errorf("rules plugin client type mismatch")
	}
	return typed, closeFn, nil
}

func callContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := parent.Deadline(); ok {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}
