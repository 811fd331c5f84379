package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/user/chatwire/pkg/rest"
)

func init() {
	rootCmd.AddCommand(gatewayCmd)
}

var gatewayCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Show the stream gateway connection details for this account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		setupLogging(cfg)

		client := rest.New(cfg.Token, &rest.Options{BaseURL: cfg.API.BaseURL})
		info, err := client.GatewayInfo(cmd.Context())
		if err != nil {
			return fmt.Errorf("fetch gateway info: %w", err)
		}

		fmt.Fprintf(os.Stdout, "url: %s\n", info.URL)
		fmt.Fprintf(os.Stdout, "recommended shards: %d\n", info.Shards)
		fmt.Fprintf(os.Stdout, "session starts remaining: %d/%d\n",
			info.SessionStartLimit.Remaining, info.SessionStartLimit.Total)
		return nil
	},
}
