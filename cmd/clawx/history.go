package main

import (
	"context"
	"fmt"
	"os"

	"github.com/bit-cook/ClawX/internal/chat"
	"github.com/bit-cook/ClawX/internal/config"
	"github.com/bit-cook/ClawX/internal/gateway"
	"github.com/bit-cook/ClawX/internal/render"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print the session transcript",
	Long:  `Fetch the session's history from the gateway and print it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, err := cmd.Flags().GetInt("limit")
		if err != nil {
			return err
		}

		return withGateway(cmd, func(ctx context.Context, client *gateway.Client, loaded *config.Config) error {
			if limit <= 0 {
				limit = loaded.Chat.HistoryLimit
			}

			state := chat.NewState()
			session := chat.NewSession(client, state, loaded.Chat.SessionKey)
			session.LoadHistory(ctx, limit)

			snap := state.Snapshot()
			if len(snap.Messages) == 0 {
				fmt.Println("No messages.")
				return nil
			}

			printer := render.NewPrinter(os.Stdout, render.DefaultStyles())
			printer.DumpAll(snap)
			return nil
		})
	},
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 0, "maximum number of messages to fetch (default from config)")
	rootCmd.AddCommand(historyCmd)
}
