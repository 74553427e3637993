package main

import (
	"context"
	"fmt"

	"github.com/bit-cook/ClawX/internal/config"
	"github.com/bit-cook/ClawX/internal/gateway"

	"github.com/spf13/cobra"
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the session history on the gateway",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withGateway(cmd, func(ctx context.Context, client *gateway.Client, loaded *config.Config) error {
			ack, err := client.Clear(ctx, loaded.Chat.SessionKey)
			if err != nil {
				return fmt.Errorf("failed to clear history: %w", err)
			}
			if !ack.OK {
				msg := ack.Err
				if msg == "" {
					msg = "gateway rejected the request"
				}
				return fmt.Errorf("failed to clear history: %s", msg)
			}

			fmt.Printf("✓ History for session '%s' cleared.\n", loaded.Chat.SessionKey)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(clearCmd)
}
