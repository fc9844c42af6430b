package tei

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	ServiceName      = "tei.v1.Embed"
	EmbedBatchMethod = "/tei.v1.Embed/EmbedBatch"
)

// EmbedClient is the client API for the tei.v1.Embed service.
type EmbedClient interface {
	EmbedBatch(ctx context.Context, in *EmbedBatchRequest, opts ...grpc.CallOption) (*EmbedBatchResponse, error)
}

type embedClient struct {
	cc grpc.ClientConnInterface
}

// NewEmbedClient creates an EmbedClient over cc.
func NewEmbedClient(cc grpc.ClientConnInterface) EmbedClient {
	return &embedClient{cc}
}

func (c *embedClient) EmbedBatch(ctx context.Context, in *EmbedBatchRequest, opts ...grpc.CallOption) (*EmbedBatchResponse, error) {
	out := new(EmbedBatchResponse)
	opts = append(opts, grpc.ForceCodec(Codec{}))
	if err := c.cc.Invoke(ctx, EmbedBatchMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// EmbedServer is the server API for the tei.v1.Embed service.
type EmbedServer interface {
	EmbedBatch(context.Context, *EmbedBatchRequest) (*EmbedBatchResponse, error)
}

// UnimplementedEmbedServer returns Unimplemented for every method.
type UnimplementedEmbedServer struct{}

func (UnimplementedEmbedServer) EmbedBatch(context.Context, *EmbedBatchRequest) (*EmbedBatchResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method EmbedBatch not implemented")
}

// RegisterEmbedServer registers srv with s. The server must be built with
// ServerCodec.
func RegisterEmbedServer(s grpc.ServiceRegistrar, srv EmbedServer) {
	s.RegisterService(&Embed_ServiceDesc, srv)
}

func _Embed_EmbedBatch_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(EmbedBatchRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(EmbedServer).EmbedBatch(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: EmbedBatchMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(EmbedServer).EmbedBatch(ctx, req.(*EmbedBatchRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// Embed_ServiceDesc is the grpc.ServiceDesc for tei.v1.Embed.
var Embed_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*EmbedServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "EmbedBatch", Handler: _Embed_EmbedBatch_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "tei/v1/tei.proto",
}
