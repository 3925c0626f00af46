package logging

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// gatedWriter blocks every Write until release is closed.
type gatedWriter struct {
	syncBuffer
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedWriter() *gatedWriter {
	return &gatedWriter{entered: make(chan struct{}), release: make(chan struct{})}
}

func (g *gatedWriter) Write(p []byte) (int, error) {
	g.once.Do(func() { close(g.entered) })
	<-g.release
	return g.syncBuffer.Write(p)
}

func TestAsyncWriterDropsInsteadOfBlocking(t *testing.T) {
	out := newGatedWriter()
	w := NewAsyncWriter(out, 1)
	defer w.Close()

	_, _ = w.Write([]byte("first\n"))
	select {
	case <-out.entered:
	case <-time.After(time.Second):
		t.Fatal("drain goroutine never picked up the first entry")
	}

	// The drain goroutine is stuck on "first"; "second" fills the queue.
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = w.Write([]byte("second\n"))
		n, err := w.Write([]byte("third\n"))
		assert.NoError(t, err)
		assert.Equal(t, len("third\n"), n)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Write blocked on a full queue")
	}
	assert.EqualValues(t, 1, w.Dropped())

	close(out.release)
	require.NoError(t, w.Sync())

	got := out.String()
	assert.Contains(t, got, "first\n")
	assert.Contains(t, got, "second\n")
	assert.NotContains(t, got, "third\n")
	assert.Contains(t, got, "dropped 1 entries")
}

func TestAsyncWriterSyncFlushes(t *testing.T) {
	var out syncBuffer
	w := NewAsyncWriter(&out, 16)
	defer w.Close()

	for i := 0; i < 10; i++ {
		_, _ = w.Write([]byte("line\n"))
	}
	require.NoError(t, w.Sync())
	assert.Equal(t, 10, strings.Count(out.String(), "line\n"))
}

func TestNewSplitsLevelsAcrossStreams(t *testing.T) {
	var stdout, stderr syncBuffer
	logger := New(WithStdout(&stdout), WithStderr(&stderr))

	logger.Info("gRPC server listening on", zap.String("addr", "[::1]:50051"))
	logger.Error("HTTP server error", zap.Error(errors.New("accept: use of closed network connection")))
	require.NoError(t, logger.Sync())

	assert.Contains(t, stdout.String(), "gRPC server listening on")
	assert.NotContains(t, stdout.String(), "HTTP server error")
	assert.Contains(t, stderr.String(), "HTTP server error")
	assert.Contains(t, stderr.String(), "use of closed network connection")
	assert.NotContains(t, stderr.String(), "listening on")
}

func TestNewHonoursLevel(t *testing.T) {
	var stdout syncBuffer
	logger := New(WithStdout(&stdout), WithStderr(&syncBuffer{}), WithLevel(zap.WarnLevel))

	logger.Info("hidden")
	logger.Warn("shown")
	require.NoError(t, logger.Sync())

	assert.NotContains(t, stdout.String(), "hidden")
	assert.Contains(t, stdout.String(), "shown")
}
