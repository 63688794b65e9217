package vaultpb

import (
	"context"

	"google.golang.org/grpc"
)

// KeysPairsServiceServer is the server-side contract for the vault's single
// RPC. Implementations embed UnimplementedKeysPairsServiceServer for
// forward compatibility, the way generated code would.
type KeysPairsServiceServer interface {
	KeysPairs(context.Context, *EncryptKeysRequest) (*EncryptKeysResponse, error)
}

// UnimplementedKeysPairsServiceServer must be embedded by any server
// implementation that doesn't implement every method — there is only one
// method today, but the embed keeps the contract extensible the way a
// generated Unimplemented type would.
type UnimplementedKeysPairsServiceServer struct{}

func (UnimplementedKeysPairsServiceServer) KeysPairs(context.Context, *EncryptKeysRequest) (*EncryptKeysResponse, error) {
	return nil, grpcUnimplemented("KeysPairs")
}

var _serviceDesc = grpc.ServiceDesc{
	ServiceName: "vault.KeysPairsService",
	HandlerType: (*KeysPairsServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "keysPairs",
			Handler:    keysPairsHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "vault/keyspairs.proto",
}

func keysPairsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(EncryptKeysRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(KeysPairsServiceServer).KeysPairs(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/vault.KeysPairsService/keysPairs",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(KeysPairsServiceServer).KeysPairs(ctx, req.(*EncryptKeysRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// RegisterKeysPairsServiceServer wires an implementation into a
// *grpc.Server, standing in for the generated RegisterXxxServer function.
func RegisterKeysPairsServiceServer(s *grpc.Server, srv KeysPairsServiceServer) {
	s.RegisterService(&_serviceDesc, srv)
}

// KeysPairsServiceClient is the client-side contract, standing in for a
// generated client interface.
type KeysPairsServiceClient interface {
	KeysPairs(ctx context.Context, in *EncryptKeysRequest, opts ...grpc.CallOption) (*EncryptKeysResponse, error)
}

type keysPairsServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewKeysPairsServiceClient wraps a dialed connection as a typed client.
func NewKeysPairsServiceClient(cc grpc.ClientConnInterface) KeysPairsServiceClient {
	return &keysPairsServiceClient{cc: cc}
}

func (c *keysPairsServiceClient) KeysPairs(ctx context.Context, in *EncryptKeysRequest, opts ...grpc.CallOption) (*EncryptKeysResponse, error) {
	out := new(EncryptKeysResponse)
	if err := c.cc.Invoke(ctx, "/vault.KeysPairsService/keysPairs", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
