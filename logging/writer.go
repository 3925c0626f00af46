package logging

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"
)

// DefaultQueueSize is the number of entries an AsyncWriter buffers before it
// starts dropping.
const DefaultQueueSize = 1024

// AsyncWriter is a zapcore.WriteSyncer that never blocks the caller. Entries
// are copied onto a bounded queue drained by a single goroutine; when the queue
// is full the entry is dropped and counted.
type AsyncWriter struct {
	out     io.Writer
	queue   chan []byte
	flushCh chan chan struct{}
	done    chan struct{}
	once    sync.Once

	dropped atomic.Int64 // not yet reported
	total   atomic.Int64
	report  rate.Sometimes
}

var _ zapcore.WriteSyncer = (*AsyncWriter)(nil)

// NewAsyncWriter starts the drain goroutine for out.
func NewAsyncWriter(out io.Writer, size int) *AsyncWriter {
	if size <= 0 {
		size = DefaultQueueSize
	}
	w := &AsyncWriter{
		out:     out,
		queue:   make(chan []byte, size),
		flushCh: make(chan chan struct{}),
		done:    make(chan struct{}),
		report:  rate.Sometimes{Interval: time.Second},
	}
	go w.run()
	return w
}

// Write enqueues a copy of p. It reports success even when the entry is
// dropped: zap must not treat a full queue as a write failure.
func (w *AsyncWriter) Write(p []byte) (int, error) {
	b := make([]byte, len(p))
	copy(b, p)

	select {
	case w.queue <- b:
	default:
		w.dropped.Add(1)
		w.total.Add(1)
	}
	return len(p), nil
}

// Sync blocks until every entry queued before the call has been written.
func (w *AsyncWriter) Sync() error {
	ack := make(chan struct{})
	select {
	case w.flushCh <- ack:
		<-ack
	case <-w.done:
	}
	if s, ok := w.out.(interface{ Sync() error }); ok {
		// stdout on a terminal or pipe rejects fsync; nothing to report.
		_ = s.Sync()
	}
	return nil
}

// Close flushes what is queued and stops the drain goroutine.
func (w *AsyncWriter) Close() error {
	err := w.Sync()
	w.once.Do(func() { close(w.done) })
	return err
}

// Dropped returns the number of entries dropped since the writer started.
func (w *AsyncWriter) Dropped() int64 {
	return w.total.Load()
}

func (w *AsyncWriter) run() {
	for {
		select {
		case b := <-w.queue:
			w.write(b)
		case ack := <-w.flushCh:
			w.drain()
			close(ack)
		case <-w.done:
			w.drain()
			return
		}
	}
}

func (w *AsyncWriter) drain() {
	for {
		select {
		case b := <-w.queue:
			w.write(b)
		default:
			return
		}
	}
}

func (w *AsyncWriter) write(b []byte) {
	_, _ = w.out.Write(b)

	if w.dropped.Load() == 0 {
		return
	}
	w.report.Do(func() {
		if n := w.dropped.Swap(0); n > 0 {
			_, _ = fmt.Fprintf(w.out, "logging: dropped %d entries, sink is too slow\n", n)
		}
	})
}
