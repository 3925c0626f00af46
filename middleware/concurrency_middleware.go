package middleware

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/bx-d/hello-dual/limiter"
)

// UnaryConcurrencyInterceptor admits a call only once l has a free slot and
// holds the slot until the handler returns.
func UnaryConcurrencyInterceptor(l *limiter.Limiter) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		release, err := l.Acquire(ctx)
		if err != nil {
			return nil, status.FromContextError(err).Err()
		}
		defer release()
		return handler(ctx, req)
	}
}

// StreamConcurrencyInterceptor is UnaryConcurrencyInterceptor for streams; the
// slot is held for the lifetime of the stream.
func StreamConcurrencyInterceptor(l *limiter.Limiter) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		release, err := l.Acquire(ss.Context())
		if err != nil {
			return status.FromContextError(err).Err()
		}
		defer release()
		return handler(srv, ss)
	}
}
