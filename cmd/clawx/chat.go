package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/bit-cook/ClawX/internal/chat"
	"github.com/bit-cook/ClawX/internal/concurrency"
	"github.com/bit-cook/ClawX/internal/config"
	"github.com/bit-cook/ClawX/internal/gateway"
	"github.com/bit-cook/ClawX/internal/lock"
	"github.com/bit-cook/ClawX/internal/render"

	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long:  `Connect to the gateway and chat from the terminal. One clawx instance owns a session at a time.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionKey := cfg.Chat.SessionKey

		lockPath, err := config.LockPath(cfg.State.Dir, sessionKey)
		if err != nil {
			return fmt.Errorf("failed to resolve lock path: %w", err)
		}
		sessionLock, err := lock.Acquire(lockPath, sessionKey, lock.Config{})
		if err != nil {
			return err
		}
		defer sessionLock.Release()

		return withGateway(cmd, func(ctx context.Context, client *gateway.Client, loaded *config.Config) error {
			state := chat.NewState()
			reconciler := chat.NewReconciler(state)
			session := chat.NewSession(client, state, sessionKey)
			printer := render.NewPrinter(os.Stdout, render.DefaultStyles())

			concurrency.SafeGo("event-pump", func() {
				pumpEvents(ctx, client, reconciler, sessionKey)
			})

			session.LoadHistory(ctx, loaded.Chat.HistoryLimit)
			printer.DumpAll(state.Snapshot())

			unsubscribe := state.Subscribe(func() {
				printer.Update(state.Snapshot())
			})
			defer unsubscribe()

			repl := newREPL(loaded, client, state, session, printer)
			defer repl.Close()
			return repl.Start(ctx)
		})
	},
}

// pumpEvents feeds gateway pushes to the reconciler, one at a time. Events
// addressed to other sessions on the same socket are skipped.
func pumpEvents(ctx context.Context, client *gateway.Client, reconciler *chat.Reconciler, sessionKey string) {
	for {
		select {
		case ev := <-client.Events():
			if ev.SessionKey != "" && ev.SessionKey != sessionKey {
				slog.Debug("event for another session ignored", "session_key", ev.SessionKey, "run_id", ev.RunID)
				continue
			}
			reconciler.OnEvent(ev)
		case <-client.Done():
			return
		case <-ctx.Done():
			return
		}
	}
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
