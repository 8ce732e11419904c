package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/congo-pay/walletsync/internal/config"
	"github.com/congo-pay/walletsync/internal/logging"
)

const configEnvVar = "WALLETSYNC_CONFIG"

var configPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           filepath.Base(os.Args[0]),
		Short:         "Keeps the wallet list of an ETC node in sync with the wallet UI",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default is ./walletsync.json)")

	root.AddCommand(newServeCmd())
	root.AddCommand(newWalletsCmd())
	root.AddCommand(newPhraseCmd())
	return root
}

// loadConfig reads the configuration and builds the process logger. One-shot
// commands log to stderr.
func loadConfig(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	if configPath != "" {
		if err := os.Setenv(configEnvVar, configPath); err != nil {
			return config.Config{}, nil, err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	if cmd.Name() == "serve" || !cmd.HasParent() {
		return cfg, logging.New(cfg.LogLevel, cfg.LogFormat), nil
	}
	return cfg, logging.NewStderr(cfg.LogLevel, cfg.LogFormat), nil
}
