package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/bx-d/hello-dual/hello"
	"github.com/bx-d/hello-dual/limiter"
)

type echoResp struct {
	Body string
}

func echoHandler(ctx context.Context, req string) (*echoResp, error) {
	return &echoResp{Body: "echo:" + req}, nil
}

func TestLoggingCallsInnerOnce(t *testing.T) {
	calls := 0
	want := &echoResp{Body: "ok"}
	inner := func(ctx context.Context, req string) (*echoResp, error) {
		calls++
		return want, nil
	}

	h := Logging[string, *echoResp](zap.NewNop(), func(s string) string { return s })(inner)
	got, err := h(context.Background(), "GET /")

	require.NoError(t, err)
	assert.Same(t, want, got)
	assert.Equal(t, 1, calls)
}

func TestLoggingPropagatesInnerError(t *testing.T) {
	boom := errors.New("boom")
	inner := func(ctx context.Context, req int) (int, error) { return 7, boom }

	h := Logging[int, int](zap.NewNop(), func(int) string { return "n" })(inner)
	got, err := h(context.Background(), 1)

	assert.Same(t, boom, err)
	assert.Equal(t, 7, got)
}

func TestLoggingWritesEntry(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	var seenID string
	inner := func(ctx context.Context, req string) (*echoResp, error) {
		seenID = RequestIDFromContext(ctx)
		return echoHandler(ctx, req)
	}

	h := Logging[string, *echoResp](zap.New(core), func(s string) string { return "describe:" + s })(inner)
	_, err := h(context.Background(), "POST /x")
	require.NoError(t, err)

	entries := logs.FilterMessage("Handling request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "describe:POST /x", fields["request"])
	assert.NotEmpty(t, seenID)
	assert.Equal(t, seenID, fields["request_id"])
}

func TestLoggingKeepsExistingRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	h := Logging[string, *echoResp](zap.New(core), func(s string) string { return s })(echoHandler)

	_, err := h(WithRequestID(context.Background(), "abc"), "x")
	require.NoError(t, err)
	assert.Equal(t, "abc", logs.All()[0].ContextMap()["request_id"])
}

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) Middleware[string, *echoResp] {
		return func(next HandlerFunc[string, *echoResp]) HandlerFunc[string, *echoResp] {
			return func(ctx context.Context, req string) (*echoResp, error) {
				order = append(order, name+".before")
				resp, err := next(ctx, req)
				order = append(order, name+".after")
				return resp, err
			}
		}
	}

	h := Chain(mark("A"), mark("B"))(echoHandler)
	resp, err := h(context.Background(), "hi")

	require.NoError(t, err)
	assert.Equal(t, "echo:hi", resp.Body)
	assert.Equal(t, []string{"A.before", "B.before", "B.after", "A.after"}, order)
}

func TestUnaryLoggingInterceptor(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	interceptor := UnaryLoggingInterceptor(zap.New(core))

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(MetadataRequestID, "req-1"))
	info := &grpc.UnaryServerInfo{FullMethod: hello.SayHelloFullMethod}

	var handlerID string
	resp, err := interceptor(ctx, &hello.HelloRequest{Name: "Ada"}, info, func(ctx context.Context, req any) (any, error) {
		handlerID = RequestIDFromContext(ctx)
		return &hello.HelloReply{Message: "Hello Ada!"}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, "Hello Ada!", resp.(*hello.HelloReply).Message)
	assert.Equal(t, "req-1", handlerID)

	entries := logs.FilterMessage("Received request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, hello.SayHelloFullMethod, fields["method"])
	assert.Equal(t, "unknown", fields["peer"])
	assert.Equal(t, `name:"Ada"`, fields["request"])
}

func TestUnaryLoggingInterceptorGeneratesRequestID(t *testing.T) {
	interceptor := UnaryLoggingInterceptor(zap.NewNop())
	info := &grpc.UnaryServerInfo{FullMethod: hello.SayHelloFullMethod}

	var id string
	_, err := interceptor(context.Background(), &hello.HelloRequest{}, info, func(ctx context.Context, req any) (any, error) {
		id = RequestIDFromContext(ctx)
		return nil, nil
	})
	require.NoError(t, err)
	assert.Len(t, id, 26)
}

func TestUnaryConcurrencyInterceptorQueues(t *testing.T) {
	const n = 2
	l := limiter.New(n)
	interceptor := UnaryConcurrencyInterceptor(l)
	info := &grpc.UnaryServerInfo{FullMethod: hello.SayHelloFullMethod}

	gate := make(chan struct{})
	entered := make(chan int, n+1)
	slow := func(id int) grpc.UnaryHandler {
		return func(ctx context.Context, req any) (any, error) {
			entered <- id
			<-gate
			return id, nil
		}
	}

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			_, err := interceptor(context.Background(), nil, info, slow(id))
			assert.NoError(t, err)
		}(i)
	}
	for i := 0; i < n; i++ {
		<-entered
	}

	extraDone := make(chan struct{})
	go func() {
		defer close(extraDone)
		resp, err := interceptor(context.Background(), nil, info, func(ctx context.Context, req any) (any, error) {
			return "extra", nil
		})
		assert.NoError(t, err)
		assert.Equal(t, "extra", resp)
	}()

	select {
	case <-extraDone:
		t.Fatal("call N+1 completed while N calls were in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(gate)
	select {
	case <-extraDone:
	case <-time.After(time.Second):
		t.Fatal("call N+1 never completed")
	}
	wg.Wait()
	assert.Equal(t, 0, l.InFlight())
}

func TestUnaryConcurrencyInterceptorReleasesOnError(t *testing.T) {
	l := limiter.New(1)
	interceptor := UnaryConcurrencyInterceptor(l)
	info := &grpc.UnaryServerInfo{FullMethod: hello.SayHelloFullMethod}
	failing := func(ctx context.Context, req any) (any, error) {
		return nil, status.Error(codes.Internal, "boom")
	}

	for i := 0; i < 3; i++ {
		_, err := interceptor(context.Background(), nil, info, failing)
		assert.Equal(t, codes.Internal, status.Code(err))
	}
	assert.Equal(t, 0, l.InFlight())
}

func TestUnaryConcurrencyInterceptorCanceledWhileQueued(t *testing.T) {
	l := limiter.New(1)
	release, err := l.Acquire(context.Background())
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	_, err = UnaryConcurrencyInterceptor(l)(ctx, nil, &grpc.UnaryServerInfo{}, func(ctx context.Context, req any) (any, error) {
		called = true
		return nil, nil
	})
	assert.Equal(t, codes.Canceled, status.Code(err))
	assert.False(t, called)
}

type fakeStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (f *fakeStream) Context() context.Context { return f.ctx }

func TestStreamConcurrencyInterceptorHoldsSlot(t *testing.T) {
	l := limiter.New(1)
	interceptor := StreamConcurrencyInterceptor(l)

	var during int
	err := interceptor(nil, &fakeStream{ctx: context.Background()}, &grpc.StreamServerInfo{}, func(srv any, ss grpc.ServerStream) error {
		during = l.InFlight()
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, during)
	assert.Equal(t, 0, l.InFlight())
}
