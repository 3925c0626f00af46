package registry

import "context"

// ServiceInstance is one announced listener.
type ServiceInstance struct {
	Addr     string `json:"addr"`
	Protocol string `json:"protocol"` // "grpc" or "http"
	Version  string `json:"version,omitempty"`
}

// Registry announces listeners so other processes can find them.
type Registry interface {
	Register(ctx context.Context, serviceName string, instance ServiceInstance, ttl int64) error
	Deregister(ctx context.Context, serviceName string, addr string) error
	Discover(ctx context.Context, serviceName string) ([]ServiceInstance, error)
}
