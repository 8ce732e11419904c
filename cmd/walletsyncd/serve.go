package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/congo-pay/walletsync/internal/infra"
	"github.com/congo-pay/walletsync/internal/server"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the wallet polling loops",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := infra.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("open resources", "error", err)
		return err
	}
	defer res.Close(logger)

	srv, err := server.New(ctx, cfg, res, logger)
	if err != nil {
		logger.Error("build server", "error", err)
		return err
	}

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		return err
	}

	logger.Info("server exited cleanly")
	return nil
}
