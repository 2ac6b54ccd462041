package rpc

import (
	"context"
	"fmt"
	"time"

	platformrpc "studywarden/internal/platform/rpc"

	"github.com/hashicorp/go-plugin"
	"google.golang.org/grpc"
)

const (
	PluginMapKey      = "vision"
	serviceName       = "studywarden.vision.v1.Vision"
	methodGetMetadata = "/" + serviceName + "/GetMetadata"
	methodAnalyze     = "/" + serviceName + "/Analyze"
)

var HandshakeConfig = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "STUDYWARDEN_VISION",
	MagicCookieValue: "studywarden",
}

type Empty struct{}

type Metadata struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Model   string `json:"model"`
}

type AnalyzeRequest struct {
	SessionID  string    `json:"session_id"`
	Image      []byte    `json:"image"`
	CapturedAt time.Time `json:"captured_at"`
}

type AnalyzeResponse struct {
	Focused   bool    `json:"focused"`
	OnSeat    bool    `json:"on_seat"`
	CostUnits float64 `json:"cost_units"`
}

type VisionServer interface {
	GetMetadata(ctx context.Context, in *Empty) (*Metadata, error)
	Analyze(ctx context.Context, in *AnalyzeRequest) (*AnalyzeResponse, error)
}

type VisionClient interface {
	GetMetadata(ctx context.Context) (*Metadata, error)
	Analyze(ctx context.Context, in *AnalyzeRequest) (*AnalyzeResponse, error)
}

type visionClient struct {
	conn *grpc.ClientConn
}

func NewVisionClient(conn *grpc.ClientConn) VisionClient {
	return &visionClient{conn: conn}
}

func (c *visionClient) GetMetadata(ctx context.Context) (*Metadata, error) {
	out := &Metadata{}
	if err := c.conn.Invoke(ctx, methodGetMetadata, &Empty{}, out, grpc.CallContentSubtype(platformrpc.JSONCodecName)); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *visionClient) Analyze(ctx context.Context, in *AnalyzeRequest) (*AnalyzeResponse, error) {
	out := &AnalyzeResponse{}
	if err := c.conn.Invoke(ctx, methodAnalyze, in, out, grpc.CallContentSubtype(platformrpc.JSONCodecName)); err != nil {
		return nil, err
	}
	return out, nil
}

func RegisterVisionServer(server grpc.ServiceRegistrar, impl VisionServer) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: serviceName,
		HandlerType: (*VisionServer)(nil),
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
				MethodName: "Analyze",
				Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
					in := &AnalyzeRequest{}
					if err := dec(in); err != nil {
						return nil, err
					}
					if interceptor == nil {
						return impl.Analyze(ctx, in)
					}
					info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodAnalyze}
					handler := func(ctx context.Context, req any) (any, error) {
						frame, ok := req.(*AnalyzeRequest)
						if !ok {
							return nil, fmt.Errorf("invalid request type")
						}
						return impl.Analyze(ctx, frame)
					}
					return interceptor(ctx, in, info, handler)
				},
			},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "schemas/vision-rpc-v1",
	}, impl)
}

type GRPCPlugin struct {
	plugin.NetRPCUnsupportedPlugin
	Impl VisionServer
}

func (p *GRPCPlugin) GRPCServer(_ *plugin.GRPCBroker, server *grpc.Server) error {
	RegisterVisionServer(server, p.Impl)
	return nil
}

func (p *GRPCPlugin) GRPCClient(_ context.Context, _ *plugin.GRPCBroker, conn *grpc.ClientConn) (any, error) {
	return NewVisionClient(conn), nil
}

func PluginMap(impl VisionServer) map[string]plugin.Plugin {
	return map[string]plugin.Plugin{
		PluginMapKey: &GRPCPlugin{Impl: impl},
	}
}
