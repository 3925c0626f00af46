package server

import (
	"context"

	"go.uber.org/zap"

	"github.com/bx-d/hello-dual/hello"
	"github.com/bx-d/hello-dual/middleware"
)

// Greeter implements hello.GreeterServer.
type Greeter struct {
	logger *zap.Logger
}

var _ hello.GreeterServer = (*Greeter)(nil)

// NewGreeter returns a Greeter logging to logger.
func NewGreeter(logger *zap.Logger) *Greeter {
	return &Greeter{logger: logger}
}

// SayHello answers "Hello <name>!" for any name, including the empty one.
func (g *Greeter) SayHello(ctx context.Context, req *hello.HelloRequest) (*hello.HelloReply, error) {
	g.logger.Info("Got a request from",
		zap.String("peer", middleware.PeerAddr(ctx)),
		zap.String("request_id", middleware.RequestIDFromContext(ctx)),
	)
	return &hello.HelloReply{Message: Greeting(req.Name)}, nil
}

// Greeting builds the reply message for name.
func Greeting(name string) string {
	return "Hello " + name + "!"
}
