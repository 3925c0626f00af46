package middleware

import (
	"context"

	"go.uber.org/zap"
)

// Logging logs every request as described by describe, then calls next exactly
// once and returns its result untouched. The request ID is taken from ctx or
// generated and stored in the context passed to next.
func Logging[Req, Resp any](logger *zap.Logger, describe func(Req) string) Middleware[Req, Resp] {
	return func(next HandlerFunc[Req, Resp]) HandlerFunc[Req, Resp] {
		return func(ctx context.Context, req Req) (Resp, error) {
			id := RequestIDFromContext(ctx)
			if id == "" {
				id = NewRequestID()
				ctx = WithRequestID(ctx, id)
			}
			logger.Info("Handling request",
				zap.String("request_id", id),
				zap.String("request", describe(req)),
			)
			return next(ctx, req)
		}
	}
}
