package main

import (
	"os"

	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"

	"github.com/bx-d/hello-dual/logging"
	"github.com/bx-d/hello-dual/server"
)

const (
	rpcAddr        = "[::1]:50051"
	httpAddr       = "[::1]:8080"
	maxConcurrency = 64
)

func main() {
	os.Exit(run())
}

func run() int {
	logger := logging.New()
	defer logger.Sync()

	if _, err := maxprocs.Set(maxprocs.Logger(logger.Sugar().Infof)); err != nil {
		logger.Warn("failed to set GOMAXPROCS", zap.Error(err))
	}

	srv := server.NewServer(
		server.WithRPCAddr(rpcAddr),
		server.WithHTTPAddr(httpAddr),
		server.WithMaxConcurrency(maxConcurrency),
		server.WithLogger(logger),
	)

	// Fatal would exit before the stdout queue is flushed.
	if err := srv.Listen(); err != nil {
		logger.Error("failed to start", zap.Error(err))
		return 1
	}
	if err := srv.Serve(); err != nil {
		return 1
	}
	return 0
}
