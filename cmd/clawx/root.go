package main

import (
	"fmt"
	"os"

	"github.com/bit-cook/ClawX/internal/config"
	"github.com/bit-cook/ClawX/internal/logger"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "clawx",
	Short: "ClawX chat client",
	Long:  `ClawX is a terminal client for a ClawX gateway. It sends chat requests, follows run progress over the gateway's push channel, and keeps a reconciled transcript locally.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cmd)
		if err != nil {
			return err
		}

		logger.Setup(cfg.Log.Level)
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.clawx/config.yaml)")
	rootCmd.PersistentFlags().String("log.level", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("gateway.url", config.DefaultGatewayURL, "gateway websocket url")
	rootCmd.PersistentFlags().String("chat.session_key", config.DefaultChatSessionKey, "session key to chat under")
}
