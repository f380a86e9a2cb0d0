package rulesrpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hashicorp/go-plugin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

const (
	PluginMapKey      = "rules"
	serviceName       = "focuslock.rules.v1.RuleEnforcer"
	jsonCodecName     = "json"
	methodGetMetadata = "/" + serviceName + "/GetMetadata"
	methodApply       = "/" + serviceName + "/Apply"
)

var HandshakeConfig = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "FOCUSLOCK_RULES_PLUGIN",
	MagicCookieValue: "focuslock",
}

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return jsonCodecName
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

type Empty struct{}

type Metadata struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type RuleSpec struct {
	ID          int32  `json:"id"`
	Domain      string `json:"domain"`
	URLFilter   string `json:"url_filter"`
	Destination string `json:"destination"`
	Scope       string `json:"scope"`
}

type ApplyRequest struct {
	RemoveIDs []int32    `json:"remove_ids"`
	AddRules  []RuleSpec `json:"add_rules"`
}

type ApplyResponse struct {
	Installed int32 `json:"installed"`
}

type RuleEnforcerServer interface {
	GetMetadata(ctx context.Context, in *Empty) (*Metadata, error)
	Apply(ctx context.Context, in *ApplyRequest) (*ApplyResponse, error)
}

type RuleEnforcerClient interface {
	GetMetadata(ctx context.Context) (*Metadata, error)
	Apply(ctx context.Context, in *ApplyRequest) (*ApplyResponse, error)
}

type ruleEnforcerClient struct {
	conn *grpc.ClientConn
}

func NewRuleEnforcerClient(conn *grpc.ClientConn) RuleEnforcerClient {
	return &ruleEnforcerClient{conn: conn}
}

func (c *ruleEnforcerClient) GetMetadata(ctx context.Context) (*Metadata, error) {
	out := &Metadata{}
	if err := c.conn.Invoke(ctx, methodGetMetadata, &Empty{}, out, grpc.CallContentSubtype(jsonCodecName)); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ruleEnforcerClient) Apply(ctx context.Context, in *ApplyRequest) (*ApplyResponse, error) {
	out := &ApplyResponse{}
	if err := c.conn.Invoke(ctx, methodApply, in, out, grpc.CallContentSubtype(jsonCodecName)); err != nil {
		return nil, err
	}
	return out, nil
}

func RegisterRuleEnforcerServer(server grpc.ServiceRegistrar, impl RuleEnforcerServer) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: serviceName,
		HandlerType: (*RuleEnforcerServer)(nil),
		Methods: []grpc.MethodDesc{
			{
				MethodName: "GetMetadata",
				Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
					in := &Empty{}
					if err := dec(in); err != nil {
						return nil, err
					}
					if interceptor == nil {
						return impl.GetMetadata(ctx, in)
					}
					info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodGetMetadata}
					handler := func(ctx context.Context, req any) (any, error) {
						empty, ok := req.(*Empty)
						if !ok {
							return nil, fmt.Errorf("invalid request type")
						}
						return impl.GetMetadata(ctx, empty)
					}
					return interceptor(ctx, in, info, handler)
				},
			},
			{
				MethodName: "Apply",
				Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
					in := &ApplyRequest{}
					if err := dec(in); err != nil {
						return nil, err
					}
					if interceptor == nil {
						return impl.Apply(ctx, in)
					}
					info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodApply}
					handler := func(ctx context.Context, req any) (any, error) {
						inReq, ok := req.(*ApplyRequest)
						if !ok {
							return nil, fmt.Errorf("invalid request type")
						}
						return impl.Apply(ctx, inReq)
					}
					return interceptor(ctx, in, info, handler)
				},
			},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "focuslock/rules/v1",
	}, impl)
}

type GRPCPlugin struct {
	plugin.NetRPCUnsupportedPlugin
	Impl RuleEnforcerServer
}

func (p *GRPCPlugin) GRPCServer(_ *plugin.GRPCBroker, server *grpc.Server) error {
	RegisterRuleEnforcerServer(server, p.Impl)
	return nil
}

func (p *GRPCPlugin) GRPCClient(_ context.Context, _ *plugin.GRPCBroker, conn *grpc.ClientConn) (any, error) {
	return NewRuleEnforcerClient(conn), nil
}

func PluginMap(impl RuleEnforcerServer) map[string]plugin.Plugin {
	return map[string]plugin.Plugin{
		PluginMapKey: &GRPCPlugin{Impl: impl},
	}
}
