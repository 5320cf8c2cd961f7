package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wekeepgrowing/semo-credits/internal/config"
	"github.com/wekeepgrowing/semo-credits/internal/usecase"
	"github.com/wekeepgrowing/semo-credits/pkg/messaging"
)

func eventsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "events",
		Short: "Print purchase resolution events as they are published",
		Long: `Subscribes to the Redis channel the service announces confirmed purchases on
and prints one line per event until interrupted. Useful to watch a sweep or a
webhook replay take effect.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			client, err := messaging.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
			if err != nil {
				return err
			}
			defer client.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			messages, err := client.Subscribe(ctx, usecase.EventPurchaseResolved)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for msg := range messages {
				var event usecase.PurchaseResolvedEvent
				if err := json.Unmarshal(msg.Payload, &event); err != nil {
					fmt.Fprintf(out, "%s unreadable event: %s\n", msg.Time.Format("15:04:05"), msg.Payload)
					continue
				}
				fmt.Fprintln(out, formatEvent(event))
			}
			return nil
		},
	}
}

func formatEvent(e usecase.PurchaseResolvedEvent) string {
	return fmt.Sprintf("%s purchase=%s user=%s status=%s credits=%d provider=%s",
		e.ResolvedAt.Format("2006-01-02T15:04:05Z07:00"), e.PurchaseID, e.UserID, e.Status, e.Credits, e.Provider)
}
