package grpcvault

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ProfileVaultServer is the server API for the ProfileVault gRPC service.
//
// We intentionally use protobuf well-known wrapper types so this package does
// not require a protoc/codegen toolchain. The request string is the profile
// key `<id>@<version>`; the Lookup reply carries the profile's YAML bytes.
//
// Proto definition: vault.proto.
type ProfileVaultServer interface {
	Lookup(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error)
	Has(context.Context, *wrapperspb.StringValue) (*wrapperspb.BoolValue, error)
}

// UnimplementedProfileVaultServer can be embedded to have forward compatible implementations.
type UnimplementedProfileVaultServer struct{}

func (UnimplementedProfileVaultServer) Lookup(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	return nil, status.Error(codes.Unimplemented, "method Lookup not implemented")
}
func (UnimplementedProfileVaultServer) Has(context.Context, *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	return nil, status.Error(codes.Unimplemented, "method Has not implemented")
}

// RegisterProfileVaultServer registers the ProfileVault service on a gRPC server.
func RegisterProfileVaultServer(s grpc.ServiceRegistrar, srv ProfileVaultServer) {
	s.RegisterService(&ProfileVault_ServiceDesc, srv)
}

// ProfileVaultClient is the client API for the ProfileVault gRPC service.
type ProfileVaultClient interface {
	Lookup(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
	Has(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error)
}

type profileVaultClient struct{ cc grpc.ClientConnInterface }

func NewProfileVaultClient(cc grpc.ClientConnInterface) ProfileVaultClient {
	return &profileVaultClient{cc: cc}
}

func (c *profileVaultClient) Lookup(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	err := c.cc.Invoke(ctx, "/wraithspec.vault.v1.ProfileVault/Lookup", in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *profileVaultClient) Has(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error) {
	out := new(wrapperspb.BoolValue)
	err := c.cc.Invoke(ctx, "/wraithspec.vault.v1.ProfileVault/Has", in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func _ProfileVault_Lookup_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ProfileVaultServer).Lookup(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/wraithspec.vault.v1.ProfileVault/Lookup"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ProfileVaultServer).Lookup(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func _ProfileVault_Has_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ProfileVaultServer).Has(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/wraithspec.vault.v1.ProfileVault/Has"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ProfileVaultServer).Has(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

// ProfileVault_ServiceDesc is the grpc.ServiceDesc for the ProfileVault service.
var ProfileVault_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "wraithspec.vault.v1.ProfileVault",
	HandlerType: (*ProfileVaultServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Lookup", Handler: _ProfileVault_Lookup_Handler},
		{MethodName: "Has", Handler: _ProfileVault_Has_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "vault.proto",
}
