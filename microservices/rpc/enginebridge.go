// Package rpc declares the engine bridge gRPC service: a bidirectional stream
// of UCI text lines, one engine process per stream. Messages are the protobuf
// StringValue well-known type, so no generated code is needed.
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ServiceName = "enginebridge.EngineBridge"
	LinesMethod = "/enginebridge.EngineBridge/Lines"
)

type EngineBridgeServer interface {
	Lines(stream LinesServer) error
}

type LinesServer interface {
	Send(*wrapperspb.StringValue) error
	Recv() (*wrapperspb.StringValue, error)
	Context() context.Context
}

type LinesClient interface {
	Send(*wrapperspb.StringValue) error
	Recv() (*wrapperspb.StringValue, error)
	CloseSend() error
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*EngineBridgeServer)(nil),
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Lines",
			Handler:       linesHandler,
			ServerStreams: true,
			ClientStreams: true,
		},
	},
	Metadata: "enginebridge",
}

func RegisterEngineBridgeServer(s grpc.ServiceRegistrar, srv EngineBridgeServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func linesHandler(srv any, stream grpc.ServerStream) error {
	return srv.(EngineBridgeServer).Lines(&linesServer{stream})
}

type linesServer struct {
	grpc.ServerStream
}

func (s *linesServer) Send(m *wrapperspb.StringValue) error {
	return s.ServerStream.SendMsg(m)
}

func (s *linesServer) Recv() (*wrapperspb.StringValue, error) {
	m := new(wrapperspb.StringValue)
	if err := s.ServerStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

type EngineBridgeClient struct {
	cc grpc.ClientConnInterface
}

func NewEngineBridgeClient(cc grpc.ClientConnInterface) *EngineBridgeClient {
	return &EngineBridgeClient{cc: cc}
}

func (c *EngineBridgeClient) Lines(ctx context.Context, opts ...grpc.CallOption) (LinesClient, error) {
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], LinesMethod, opts...)
	if err != nil {
		return nil, err
	}
	return &linesClient{stream}, nil
}

type linesClient struct {
	grpc.ClientStream
}

func (c *linesClient) Send(m *wrapperspb.StringValue) error {
	return c.ClientStream.SendMsg(m)
}

func (c *linesClient) Recv() (*wrapperspb.StringValue, error) {
	m := new(wrapperspb.StringValue)
	if err := c.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}
