// Package client is a small convenience wrapper around the hello.Greeter stub.
package client

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"github.com/bx-d/hello-dual/hello"
	"github.com/bx-d/hello-dual/middleware"
)

// Client calls hello.Greeter over one gRPC connection. It is safe for
// concurrent use.
type Client struct {
	conn    *grpc.ClientConn
	greeter hello.GreeterClient
}

// Dial creates a plaintext client for target. The connection is established
// lazily on the first call. opts are appended after the defaults.
func Dial(target string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}, opts...)

	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", target, err)
	}
	return &Client{conn: conn, greeter: hello.NewGreeterClient(conn)}, nil
}

// SayHello returns the server's greeting for name.
func (c *Client) SayHello(ctx context.Context, name string) (string, error) {
	reply, err := c.greeter.SayHello(ctx, &hello.HelloRequest{Name: name})
	if err != nil {
		return "", err
	}
	return reply.Message, nil
}

// WithRequestID attaches id to outgoing calls made with the returned context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, middleware.MetadataRequestID, id)
}

func (c *Client) Close() error {
	return c.conn.Close()
}
