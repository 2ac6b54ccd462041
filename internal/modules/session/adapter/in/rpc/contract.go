package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	budgetdto "studywarden/internal/modules/budget/dto"
	profiledto "studywarden/internal/modules/profile/dto"
	progressiondto "studywarden/internal/modules/progression/dto"
	sessiondto "studywarden/internal/modules/session/dto"
	platformrpc "studywarden/internal/platform/rpc"

	"google.golang.org/grpc"
)

const (
	serviceName     = "studywarden.v1.Warden"
	methodSubscribe = "/" + serviceName + "/Subscribe"
)

type Empty struct{}

type StartSessionRequest struct {
	ProfileID string `json:"profile_id"`
}

type SessionRequest struct {
	SessionID string `json:"session_id"`
}

type BreakRequest struct {
	SessionID string `json:"session_id"`
	Kind      string `json:"kind"`
}

// SnapshotRequest selects a session by id, or the profile's active session
// when only ProfileID is set.
type SnapshotRequest struct {
	SessionID string `json:"session_id,omitempty"`
	ProfileID string `json:"profile_id,omitempty"`
}

type ProfileRequest struct {
	ProfileID string `json:"profile_id"`
}

type CreateProfileRequest struct {
	Name string `json:"name"`
	Tier string `json:"tier"`
}

type SettingsRequest struct {
	ProfileID              string         `json:"profile_id"`
	Tier                   *string        `json:"tier,omitempty"`
	ContinuousLimitSeconds *int           `json:"continuous_limit_seconds,omitempty"`
	ForcedBreakSeconds     *int           `json:"forced_break_seconds,omitempty"`
	BreakCaps              map[string]int `json:"break_caps,omitempty"`
}

type FrameRequest struct {
	SessionID string `json:"session_id"`
	Image     []byte `json:"image"`
}

type SubscribeRequest struct {
	ProfileID string `json:"profile_id"`
}

// EventMessage is a notification on the wire. Payload keeps the encoded value
// so clients decode it by Kind.
type EventMessage struct {
	Kind       string          `json:"kind"`
	ProfileID  string          `json:"profile_id,omitempty"`
	SessionID  string          `json:"session_id,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

type EventStream interface {
	Context() context.Context
	Send(*EventMessage) error
}

type WardenServer interface {
	StartSession(ctx context.Context, in *StartSessionRequest) (*sessiondto.SessionOutput, error)
	StopSession(ctx context.Context, in *SessionRequest) (*sessiondto.SessionOutput, error)
	RequestBreak(ctx context.Context, in *BreakRequest) (*sessiondto.SessionOutput, error)
	Resume(ctx context.Context, in *SessionRequest) (*sessiondto.SessionOutput, error)
	GetSessionSnapshot(ctx context.Context, in *SnapshotRequest) (*sessiondto.SessionOutput, error)
	GetRemainingBudget(ctx context.Context, in *ProfileRequest) (*budgetdto.BudgetOutput, error)
	GetProgression(ctx context.Context, in *ProfileRequest) (*progressiondto.ProgressionOutput, error)
	CreateProfile(ctx context.Context, in *CreateProfileRequest) (*profiledto.ProfileOutput, error)
	GetProfile(ctx context.Context, in *ProfileRequest) (*profiledto.ProfileOutput, error)
	UpdateSettings(ctx context.Context, in *SettingsRequest) (*profiledto.ProfileOutput, error)
	PushFrame(ctx context.Context, in *FrameRequest) (*Empty, error)
	Subscribe(in *SubscribeRequest, stream EventStream) error
}

func RegisterWardenServer(server grpc.ServiceRegistrar, impl WardenServer) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: serviceName,
		HandlerType: (*WardenServer)(nil),
		Methods: []grpc.MethodDesc{
			unary("StartSession", impl.StartSession),
			unary("StopSession", impl.StopSession),
			unary("RequestBreak", impl.RequestBreak),
			unary("Resume", impl.Resume),
			unary("GetSessionSnapshot", impl.GetSessionSnapshot),
			unary("GetRemainingBudget", impl.GetRemainingBudget),
			unary("GetProgression", impl.GetProgression),
			unary("CreateProfile", impl.CreateProfile),
			unary("GetProfile", impl.GetProfile),
			unary("UpdateSettings", impl.UpdateSettings),
			unary("PushFrame", impl.PushFrame),
		},
		Streams: []grpc.StreamDesc{
			{
				StreamName:    "Subscribe",
				ServerStreams: true,
				Handler: func(_ any, stream grpc.ServerStream) error {
					in := &SubscribeRequest{}
					if err := stream.RecvMsg(in); err != nil {
						return err
					}
					return impl.Subscribe(in, &eventServerStream{ServerStream: stream})
				},
			},
		},
		Metadata: "schemas/warden-rpc-v1",
	}, impl)
}

func unary[Req any, Resp any](name string, call func(context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + serviceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				out, err := call(ctx, in)
				return out, err
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				typed, ok := req.(*Req)
				if !ok {
					return nil, fmt.Errorf("invalid request type %T", req)
				}
				out, err := call(ctx, typed)
				return out, err
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

type eventServerStream struct {
	grpc.ServerStream
}

func (s *eventServerStream) Send(msg *EventMessage) error {
	return s.ServerStream.SendMsg(msg)
}

// Client calls a Warden server and rebuilds coded errors from statuses.
type Client struct {
	conn grpc.ClientConnInterface
}

func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

func invoke[Resp any](ctx context.Context, conn grpc.ClientConnInterface, name string, in any) (Resp, error) {
	var out Resp
	err := conn.Invoke(ctx, "/"+serviceName+"/"+name, in, &out, grpc.CallContentSubtype(platformrpc.JSONCodecName))
	if err != nil {
		return out, platformrpc.FromStatus(err)
	}
	return out, nil
}

func (c *Client) StartSession(ctx context.Context, profileID string) (sessiondto.SessionOutput, error) {
	return invoke[sessiondto.SessionOutput](ctx, c.conn, "StartSession", &StartSessionRequest{ProfileID: profileID})
}

func (c *Client) StopSession(ctx context.Context, sessionID string) (sessiondto.SessionOutput, error) {
	return invoke[sessiondto.SessionOutput](ctx, c.conn, "StopSession", &SessionRequest{SessionID: sessionID})
}

func (c *Client) RequestBreak(ctx context.Context, sessionID, kind string) (sessiondto.SessionOutput, error) {
	return invoke[sessiondto.SessionOutput](ctx, c.conn, "RequestBreak", &BreakRequest{SessionID: sessionID, Kind: kind})
}

func (c *Client) Resume(ctx context.Context, sessionID string) (sessiondto.SessionOutput, error) {
	return invoke[sessiondto.SessionOutput](ctx, c.conn, "Resume", &SessionRequest{SessionID: sessionID})
}

func (c *Client) GetSessionSnapshot(ctx context.Context, in SnapshotRequest) (sessiondto.SessionOutput, error) {
	return invoke[sessiondto.SessionOutput](ctx, c.conn, "GetSessionSnapshot", &in)
}

func (c *Client) GetRemainingBudget(ctx context.Context, profileID string) (budgetdto.BudgetOutput, error) {
	return invoke[budgetdto.BudgetOutput](ctx, c.conn, "GetRemainingBudget", &ProfileRequest{ProfileID: profileID})
}

func (c *Client) GetProgression(ctx context.Context, profileID string) (progressiondto.ProgressionOutput, error) {
	return invoke[progressiondto.ProgressionOutput](ctx, c.conn, "GetProgression", &ProfileRequest{ProfileID: profileID})
}

func (c *Client) CreateProfile(ctx context.Context, name, tier string) (profiledto.ProfileOutput, error) {
	return invoke[profiledto.ProfileOutput](ctx, c.conn, "CreateProfile", &CreateProfileRequest{Name: name, Tier: tier})
}

func (c *Client) GetProfile(ctx context.Context, profileID string) (profiledto.ProfileOutput, error) {
	return invoke[profiledto.ProfileOutput](ctx, c.conn, "GetProfile", &ProfileRequest{ProfileID: profileID})
}

func (c *Client) UpdateSettings(ctx context.Context, in SettingsRequest) (profiledto.ProfileOutput, error) {
	return invoke[profiledto.ProfileOutput](ctx, c.conn, "UpdateSettings", &in)
}

func (c *Client) PushFrame(ctx context.Context, sessionID string, image []byte) error {
	_, err := invoke[Empty](ctx, c.conn, "PushFrame", &FrameRequest{SessionID: sessionID, Image: image})
	return err
}

// EventReceiver yields events until the stream ends.
type EventReceiver interface {
	Recv() (*EventMessage, error)
}

type eventClientStream struct {
	stream grpc.ClientStream
}

func (s *eventClientStream) Recv() (*EventMessage, error) {
	msg := &EventMessage{}
	if err := s.stream.RecvMsg(msg); err != nil {
		return nil, platformrpc.FromStatus(err)
	}
	return msg, nil
}

// Subscribe streams the profile's events until ctx is done.
func (c *Client) Subscribe(ctx context.Context, profileID string) (EventReceiver, error) {
	desc := &grpc.StreamDesc{StreamName: "Subscribe", ServerStreams: true}
	stream, err := c.conn.NewStream(ctx, desc, methodSubscribe, grpc.CallContentSubtype(platformrpc.JSONCodecName))
	if err != nil {
		return nil, platformrpc.FromStatus(err)
	}
	if err := stream.SendMsg(&SubscribeRequest{ProfileID: profileID}); err != nil {
		return nil, platformrpc.FromStatus(err)
	}
	if err := stream.CloseSend(); err != nil {
		return nil, platformrpc.FromStatus(err)
	}
	return &eventClientStream{stream: stream}, nil
}
