package server

import (
	"go.uber.org/zap"

	"github.com/bx-d/hello-dual/hello"
	"github.com/bx-d/hello-dual/limiter"
	"github.com/bx-d/hello-dual/registry"
)

const (
	DefaultRPCAddr  = "[::1]:50051"
	DefaultHTTPAddr = "[::1]:8080"
	// DefaultRegistryTTL is the lease TTL, in seconds, of announced instances.
	DefaultRegistryTTL int64 = 10
)

// Options configures a Server.
type Options struct {
	RPCAddr        string
	HTTPAddr       string
	MaxConcurrency int // in-flight gRPC calls; <= 0 means limiter.DefaultLimit
	Logger         *zap.Logger
	Greeter        hello.GreeterServer // nil means NewGreeter(Logger)
	Registry       registry.Registry   // nil disables announcement
	RegistryTTL    int64
}

// Option configures Options.
type Option func(*Options)

// NewOptions returns the defaults.
func NewOptions() *Options {
	return &Options{
		RPCAddr:        DefaultRPCAddr,
		HTTPAddr:       DefaultHTTPAddr,
		MaxConcurrency: limiter.DefaultLimit,
		RegistryTTL:    DefaultRegistryTTL,
	}
}

func WithRPCAddr(addr string) Option {
	return func(o *Options) { o.RPCAddr = addr }
}

func WithHTTPAddr(addr string) Option {
	return func(o *Options) { o.HTTPAddr = addr }
}

func WithMaxConcurrency(n int) Option {
	return func(o *Options) { o.MaxConcurrency = n }
}

func WithLogger(l *zap.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// WithGreeter replaces the handler behind hello.Greeter.
func WithGreeter(g hello.GreeterServer) Option {
	return func(o *Options) { o.Greeter = g }
}

func WithRegistry(r registry.Registry) Option {
	return func(o *Options) { o.Registry = r }
}

func WithRegistryTTL(ttl int64) Option {
	return func(o *Options) { o.RegistryTTL = ttl }
}
