package middleware

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
)

// UnaryLoggingInterceptor logs every inbound call before it reaches the
// handler: method, peer, metadata and a text dump of the request.
func UnaryLoggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		md, _ := metadata.FromIncomingContext(ctx)
		id := requestIDFromMetadata(md)
		ctx = WithRequestID(ctx, id)

		logger.Info("Received request",
			zap.String("request_id", id),
			zap.String("method", info.FullMethod),
			zap.String("peer", PeerAddr(ctx)),
			zap.Any("metadata", md),
			zap.String("request", fmt.Sprint(req)),
		)
		return handler(ctx, req)
	}
}

// PeerAddr returns the transport address of the gRPC caller, or "unknown".
func PeerAddr(ctx context.Context) string {
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		return p.Addr.String()
	}
	return "unknown"
}
