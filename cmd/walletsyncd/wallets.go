package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/congo-pay/walletsync/internal/infra"
	"github.com/congo-pay/walletsync/internal/server"
)

func newWalletsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "wallets",
		Short: "Print the wallets the node holds as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			res, err := infra.Open(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer res.Close(logger)

			svc, _, err := server.NewWalletService(ctx, cfg, res, logger)
			if err != nil {
				return err
			}
			wallets, err := svc.GetWallets(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd, wallets)
		},
	}
}

func newPhraseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "phrase",
		Short: "Generate a new 12 word recovery phrase",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			svc, _, err := server.NewWalletService(cmd.Context(), cfg, nil, logger)
			if err != nil {
				return err
			}
			words, err := svc.GetWalletRecoveryPhrase(cmd.Context())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), strings.Join(words, " "))
			return err
		},
	}
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}
