package middleware

import (
	"context"
	"strings"

	"github.com/oklog/ulid/v2"
	"google.golang.org/grpc/metadata"
)

const (
	// HeaderXRequestID carries a caller-supplied request ID over HTTP.
	HeaderXRequestID = "X-Request-ID"
	// MetadataRequestID carries a caller-supplied request ID over gRPC.
	MetadataRequestID = "x-request-id"
)

type requestIDKey struct{}

// NewRequestID returns a fresh, time-sortable ID.
func NewRequestID() string {
	return ulid.Make().String()
}

// WithRequestID returns a copy of ctx carrying id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the ID stored by WithRequestID, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// requestIDFromMetadata returns the first non-blank x-request-id value, or a
// new ID when the caller sent none.
func requestIDFromMetadata(md metadata.MD) string {
	for _, v := range md.Get(MetadataRequestID) {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return NewRequestID()
}
