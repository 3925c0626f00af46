// Package logging builds the process logger.
//
// Entries below error level go to stdout through an AsyncWriter so a slow
// consumer of stdout can never stall request handling. Error entries go to
// stderr synchronously.
package logging

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options configures New.
type Options struct {
	Level     zapcore.Level
	Stdout    io.Writer
	Stderr    io.Writer
	QueueSize int
}

// Option configures Options.
type Option func(*Options)

// NewOptions returns the defaults: info level, os.Stdout, os.Stderr.
func NewOptions() *Options {
	return &Options{
		Level:     zapcore.InfoLevel,
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
		QueueSize: DefaultQueueSize,
	}
}

func WithLevel(l zapcore.Level) Option {
	return func(o *Options) { o.Level = l }
}

func WithStdout(w io.Writer) Option {
	return func(o *Options) { o.Stdout = w }
}

func WithStderr(w io.Writer) Option {
	return func(o *Options) { o.Stderr = w }
}

func WithQueueSize(n int) Option {
	return func(o *Options) { o.QueueSize = n }
}

// New returns a console-encoded logger. Call Sync before exit to flush the
// stdout queue.
func New(opts ...Option) *zap.Logger {
	o := NewOptions()
	for _, opt := range opts {
		opt(o)
	}

	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	enc := zapcore.NewConsoleEncoder(cfg)

	stdout := NewAsyncWriter(o.Stdout, o.QueueSize)
	stderr := zapcore.Lock(zapcore.AddSync(o.Stderr))

	info := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return l >= o.Level && l < zapcore.ErrorLevel
	})
	errs := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return l >= o.Level && l >= zapcore.ErrorLevel
	})

	core := zapcore.NewTee(
		zapcore.NewCore(enc, stdout, info),
		zapcore.NewCore(enc.Clone(), stderr, errs),
	)
	return zap.New(core, zap.ErrorOutput(stderr))
}
