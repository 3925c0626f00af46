// Package middleware holds the request decorators shared by both servers: a
// generic handler chain with a logging decorator, request IDs, and the gRPC
// interceptors for logging and admission control.
package middleware

import "context"

// HandlerFunc handles one request of type Req and produces a Resp.
type HandlerFunc[Req, Resp any] func(ctx context.Context, req Req) (Resp, error)

// Middleware wraps a HandlerFunc with another of the same shape.
type Middleware[Req, Resp any] func(next HandlerFunc[Req, Resp]) HandlerFunc[Req, Resp]

// Chain composes middlewares so that the first one is outermost:
// Chain(A, B, C)(h) == A(B(C(h))).
func Chain[Req, Resp any](middlewares ...Middleware[Req, Resp]) Middleware[Req, Resp] {
	return func(next HandlerFunc[Req, Resp]) HandlerFunc[Req, Resp] {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}
