// Package main runs the roster operations CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/louisbranch/raidroster/internal/cmd/rosterctl"
	entrypoint "github.com/louisbranch/raidroster/internal/platform/cmd"
	"github.com/louisbranch/raidroster/internal/platform/config"
	"github.com/louisbranch/raidroster/internal/platform/logging"
)

func main() {
	logger, err := logging.New(entrypoint.ServiceRosterCtl)
	if err != nil {
		config.Fatal(entrypoint.ServiceRosterCtl, err)
	}
	defer func() { _ = logger.Sync() }()

	root, err := rosterctl.NewRootCommand(rosterctl.Options{Out: os.Stdout, Logger: logger})
	if err != nil {
		config.Fatal(entrypoint.ServiceRosterCtl, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceRosterCtl, entrypoint.RunOptions{Logger: logger}, func(ctx context.Context) error {
		return rosterctl.Execute(ctx, root, os.Args[1:])
	})
	if err != nil {
		stop()
		config.Fatal(entrypoint.ServiceRosterCtl, err)
	}
}
