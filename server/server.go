// Package server runs the hello.Greeter gRPC server and the HTTP echo server
// side by side in one process.
//
// Lifecycle:
//
//	Listen   bind gRPC then HTTP; any bind failure releases what was bound
//	Serve    both accept loops in their own goroutine, joined with a WaitGroup
//	         (a failing loop is logged at once and never stops its sibling)
//	         plus a background registry announcement when one is configured
//	Shutdown stop both servers, waiting for in-flight requests up to a timeout
//
// Request pipelines:
//
//	gRPC: accept → concurrency gate → logging interceptor → Greeter.SayHello
//	HTTP: accept → Logging decorator → Echo
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/bx-d/hello-dual/codec"
	"github.com/bx-d/hello-dual/hello"
	"github.com/bx-d/hello-dual/limiter"
	"github.com/bx-d/hello-dual/middleware"
	"github.com/bx-d/hello-dual/registry"
)

// Announced service names.
const (
	RPCServiceName  = hello.ServiceName
	HTTPServiceName = "hello.HTTP"
)

// Version is announced with every instance. Override at link time with
// -ldflags "-X github.com/bx-d/hello-dual/server.Version=...".
var Version = "dev"

// announceTimeout bounds each registry round trip.
const announceTimeout = 5 * time.Second

// Server owns both listeners and both protocol servers.
type Server struct {
	opts    *Options
	logger  *zap.Logger
	limiter *limiter.Limiter

	rpc  *grpc.Server
	http *http.Server

	rpcListener  net.Listener
	httpListener net.Listener

	shutdown atomic.Bool // set before stopping so accept errors are not reported

	announceMu     sync.Mutex
	announceCancel context.CancelFunc
	announceDone   chan struct{}
}

// NewServer builds both servers. Nothing is bound until Listen.
func NewServer(opts ...Option) *Server {
	o := NewOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Greeter == nil {
		o.Greeter = NewGreeter(o.Logger)
	}

	s := &Server{
		opts:    o,
		logger:  o.Logger,
		limiter: limiter.New(o.MaxConcurrency),
	}

	// The gate is outermost: a queued call is not logged until it is admitted.
	s.rpc = grpc.NewServer(
		grpc.ForceServerCodec(codec.Codec{}),
		grpc.ChainUnaryInterceptor(
			middleware.UnaryConcurrencyInterceptor(s.limiter),
			middleware.UnaryLoggingInterceptor(s.logger),
		),
		grpc.ChainStreamInterceptor(
			middleware.StreamConcurrencyInterceptor(s.limiter),
		),
	)
	hello.RegisterGreeterServer(s.rpc, o.Greeter)

	s.http = &http.Server{
		Handler:           newHTTPHandler(s.logger),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          zap.NewStdLog(s.logger.Named("http")),
	}
	return s
}

// Listen binds the gRPC address, then the HTTP address.
//
// Flow:
//  1. Bind the gRPC address
//  2. Bind the HTTP address; on failure close the gRPC socket and return
//  3. Keep both listeners for Serve
//
// The server never starts half bound, so a failed Listen leaves no port taken.
func (s *Server) Listen() error {
	if s.rpcListener != nil || s.httpListener != nil {
		return errors.New("server: already listening")
	}

	rpcLis, err := net.Listen("tcp", s.opts.RPCAddr)
	if err != nil {
		return fmt.Errorf("listen grpc on %s: %w", s.opts.RPCAddr, err)
	}
	httpLis, err := net.Listen("tcp", s.opts.HTTPAddr)
	if err != nil {
		_ = rpcLis.Close()
		return fmt.Errorf("listen http on %s: %w", s.opts.HTTPAddr, err)
	}

	s.rpcListener = rpcLis
	s.httpListener = httpLis
	return nil
}

// Serve runs both servers until both have returned.
//
// Flow:
//  1. Log the banner for each bound address
//  2. Start the gRPC and HTTP accept loops, each in its own goroutine
//  3. Announce both listeners in the background, if a registry is set
//  4. Wait for both loops to return
//
// A server whose accept loop fails is reported immediately; the other keeps
// serving. The returned error combines both outcomes and is nil after a
// Shutdown. A slow registry never delays either accept loop.
func (s *Server) Serve() error {
	if s.rpcListener == nil || s.httpListener == nil {
		return errors.New("server: Serve called before Listen")
	}

	s.logger.Info("gRPC server listening on", zap.Stringer("addr", s.rpcListener.Addr()))
	s.logger.Info("HTTP server listening on", zap.Stringer("addr", s.httpListener.Addr()))

	var (
		wg      sync.WaitGroup
		rpcErr  error
		httpErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		rpcErr = s.serveRPC()
	}()
	go func() {
		defer wg.Done()
		httpErr = s.serveHTTP()
	}()
	s.startAnnounce()
	wg.Wait()

	return multierr.Combine(rpcErr, httpErr)
}

// ListenAndServe is Listen followed by Serve.
func (s *Server) ListenAndServe() error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve()
}

func (s *Server) serveRPC() error {
	err := s.rpc.Serve(s.rpcListener)
	if err == nil || s.shutdown.Load() {
		return nil
	}
	err = fmt.Errorf("grpc server: %w", err)
	s.logger.Error("gRPC server error", zap.Error(err))
	return err
}

func (s *Server) serveHTTP() error {
	err := s.http.Serve(s.httpListener)
	if errors.Is(err, http.ErrServerClosed) || s.shutdown.Load() {
		return nil
	}
	err = fmt.Errorf("http server: %w", err)
	s.logger.Error("HTTP server error", zap.Error(err))
	return err
}

// Shutdown withdraws announcements and stops both servers, waiting up to
// timeout for in-flight requests. gRPC calls still running at the deadline
// are cut off. A pending announcement is canceled before withdrawing.
func (s *Server) Shutdown(timeout time.Duration) error {
	s.shutdown.Store(true)
	s.stopAnnounce()
	s.withdraw()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs error
	if err := s.http.Shutdown(ctx); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("shutdown http server: %w", err))
	}

	done := make(chan struct{})
	go func() {
		s.rpc.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.rpc.Stop()
		errs = multierr.Append(errs, fmt.Errorf("timeout waiting for in-flight gRPC calls: %w", ctx.Err()))
	}

	// Serve may never have run; the servers only close listeners they served on.
	for _, lis := range []net.Listener{s.rpcListener, s.httpListener} {
		if lis != nil {
			_ = lis.Close()
		}
	}
	return errs
}

// RPCAddr returns the bound gRPC address, or nil before Listen.
func (s *Server) RPCAddr() net.Addr {
	if s.rpcListener == nil {
		return nil
	}
	return s.rpcListener.Addr()
}

// HTTPAddr returns the bound HTTP address, or nil before Listen.
func (s *Server) HTTPAddr() net.Addr {
	if s.httpListener == nil {
		return nil
	}
	return s.httpListener.Addr()
}

// Limiter exposes the gRPC admission gate for inspection.
func (s *Server) Limiter() *limiter.Limiter {
	return s.limiter
}

func (s *Server) instances() map[string]registry.ServiceInstance {
	return map[string]registry.ServiceInstance{
		RPCServiceName:  {Addr: s.rpcListener.Addr().String(), Protocol: "grpc", Version: Version},
		HTTPServiceName: {Addr: s.httpListener.Addr().String(), Protocol: "http", Version: Version},
	}
}

// startAnnounce runs announce in its own goroutine. It does nothing once
// Shutdown has begun.
func (s *Server) startAnnounce() {
	if s.opts.Registry == nil {
		return
	}
	s.announceMu.Lock()
	defer s.announceMu.Unlock()
	if s.shutdown.Load() || s.announceCancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.announceCancel = cancel
	s.announceDone = done
	go func() {
		defer close(done)
		s.announce(ctx)
	}()
}

// stopAnnounce cancels a pending announcement and waits for it to return, so
// withdraw sees every registration that went through.
func (s *Server) stopAnnounce() {
	s.announceMu.Lock()
	cancel, done := s.announceCancel, s.announceDone
	s.announceMu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// announce registers both listeners. Failures are logged; serving goes on.
func (s *Server) announce(ctx context.Context) {
	for name, inst := range s.instances() {
		if ctx.Err() != nil {
			return
		}
		rctx, cancel := context.WithTimeout(ctx, announceTimeout)
		err := s.opts.Registry.Register(rctx, name, inst, s.opts.RegistryTTL)
		cancel()
		if err != nil {
			s.logger.Warn("failed to announce service",
				zap.String("service", name), zap.String("addr", inst.Addr), zap.Error(err))
		}
	}
}

func (s *Server) withdraw() {
	if s.opts.Registry == nil || s.rpcListener == nil || s.httpListener == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), announceTimeout)
	defer cancel()

	for name, inst := range s.instances() {
		if err := s.opts.Registry.Deregister(ctx, name, inst.Addr); err != nil {
			s.logger.Warn("failed to withdraw service",
				zap.String("service", name), zap.String("addr", inst.Addr), zap.Error(err))
		}
	}
}
