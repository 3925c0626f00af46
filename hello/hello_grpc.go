package hello

import (
	"context"

	"google.golang.org/grpc"

	"github.com/bx-d/hello-dual/codec"
)

const (
	// ServiceName is the fully-qualified gRPC service name.
	ServiceName = "hello.Greeter"
	// SayHelloFullMethod is the method path seen by interceptors.
	SayHelloFullMethod = "/hello.Greeter/SayHello"
)

// GreeterServer is the server API for the hello.Greeter service.
type GreeterServer interface {
	SayHello(ctx context.Context, req *HelloRequest) (*HelloReply, error)
}

// GreeterClient is the client API for the hello.Greeter service.
type GreeterClient interface {
	SayHello(ctx context.Context, in *HelloRequest, opts ...grpc.CallOption) (*HelloReply, error)
}

type greeterClient struct {
	cc grpc.ClientConnInterface
}

// NewGreeterClient returns a client stub that encodes with codec.Codec.
func NewGreeterClient(cc grpc.ClientConnInterface) GreeterClient {
	return &greeterClient{cc: cc}
}

func (c *greeterClient) SayHello(ctx context.Context, in *HelloRequest, opts ...grpc.CallOption) (*HelloReply, error) {
	out := new(HelloReply)
	opts = append([]grpc.CallOption{grpc.ForceCodec(codec.Codec{})}, opts...)
	if err := c.cc.Invoke(ctx, SayHelloFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// RegisterGreeterServer registers srv on s. The server must have been created
// with grpc.ForceServerCodec(codec.Codec{}).
func RegisterGreeterServer(s grpc.ServiceRegistrar, srv GreeterServer) {
	s.RegisterService(&GreeterServiceDesc, srv)
}

func sayHelloHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(HelloRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(GreeterServer).SayHello(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: SayHelloFullMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(GreeterServer).SayHello(ctx, req.(*HelloRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// GreeterServiceDesc is the grpc.ServiceDesc for hello.Greeter.
var GreeterServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*GreeterServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "SayHello",
			Handler:    sayHelloHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "hello.proto",
}
