// Package main starts the roster service process lifecycle.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"

	rostercmd "github.com/louisbranch/raidroster/internal/cmd/roster"
	entrypoint "github.com/louisbranch/raidroster/internal/platform/cmd"
	"github.com/louisbranch/raidroster/internal/platform/config"
	"github.com/louisbranch/raidroster/internal/platform/logging"
)

func main() {
	cfg, err := rostercmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Fatal(entrypoint.ServiceRoster, err)
	}
	logger, err := logging.New(entrypoint.ServiceRoster)
	if err != nil {
		config.Fatal(entrypoint.ServiceRoster, err)
	}
	defer func() { _ = logger.Sync() }()
	if _, err := maxprocs.Set(maxprocs.Logger(logger.Sugar().Infof)); err != nil {
		logger.Warn("set maxprocs", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rostercmd.Run(ctx, cfg, logger); err != nil {
		logger.Error("roster stopped", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}
