package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/chatwire/pkg/chatwire"
	"github.com/user/chatwire/pkg/gateway"
	"github.com/user/chatwire/pkg/rest"
)

func init() {
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Connect the event stream and log incoming events",
	Args:  cobra.NoArgs,
	RunE:  runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	setupLogging(cfg)

	if cfg.Token == "" {
		return fmt.Errorf("no token configured (set %q in the config file or CHATWIRE_TOKEN)", "token")
	}

	client, err := chatwire.New(chatwire.Config{
		Token:      cfg.Token,
		Intents:    gateway.Intents(cfg.Stream.Intents),
		Shard:      [2]int{cfg.Stream.ShardIndex, cfg.Stream.ShardCount},
		BaseURL:    cfg.API.BaseURL,
		GatewayURL: cfg.Stream.GatewayURL,
		Logger:     slog.Default(),
		REST: &rest.Options{
			MaxInflight: int64(cfg.API.MaxInflight),
			Timeout:     time.Duration(cfg.API.TimeoutSeconds) * time.Second,
		},
	})
	if err != nil {
		return err
	}

	client.On("MESSAGE_CREATE", func(ev gateway.Event) {
		msg := ev.(gateway.MessageCreate)
		slog.Info("message",
			"channel_id", msg.ChannelID,
			"author", msg.Author.Username,
			"content", msg.Content,
		)
	})
	client.OnAny(func(ev gateway.Event) {
		slog.Debug("event", "type", ev.EventType())
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("chatwire starting",
		"shard_index", cfg.Stream.ShardIndex,
		"shard_count", cfg.Stream.ShardCount,
	)
	if err := client.Run(ctx); err != nil {
		return fmt.Errorf("stream session: %w", err)
	}
	slog.Info("shutting down")
	return nil
}
