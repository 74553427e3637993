package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bit-cook/ClawX/internal/config"
	"github.com/bit-cook/ClawX/internal/gateway"

	"github.com/spf13/cobra"
)

// withGateway loads config, dials the gateway, and hands both to fn together
// with a signal-aware context. The connection is closed when fn returns.
func withGateway(cmd *cobra.Command, fn func(ctx context.Context, client *gateway.Client, loaded *config.Config) error) error {
	loaded := cfg
	if loaded == nil {
		var err error
		loaded, err = config.Load(cmd)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts, err := gatewayOptions(loaded)
	if err != nil {
		return err
	}

	client, err := gateway.Dial(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to connect to gateway at %s: %w", opts.URL, err)
	}
	defer client.Close()

	return fn(ctx, client, loaded)
}

func gatewayOptions(loaded *config.Config) (gateway.Options, error) {
	dialTimeout, err := config.DurationOrDefault(loaded.Gateway.DialTimeout, config.DefaultGatewayDialTimeout)
	if err != nil {
		return gateway.Options{}, fmt.Errorf("gateway.dial_timeout: %w", err)
	}
	requestTimeout, err := config.DurationOrDefault(loaded.Gateway.RequestTimeout, config.DefaultGatewayRequestTimeout)
	if err != nil {
		return gateway.Options{}, fmt.Errorf("gateway.request_timeout: %w", err)
	}
	pingInterval, err := config.DurationOrDefault(loaded.Gateway.PingInterval, config.DefaultGatewayPingInterval)
	if err != nil {
		return gateway.Options{}, fmt.Errorf("gateway.ping_interval: %w", err)
	}

	return gateway.Options{
		URL:            loaded.Gateway.URL,
		Token:          loaded.Gateway.Token,
		DialTimeout:    dialTimeout,
		RequestTimeout: requestTimeout,
		PingInterval:   pingInterval,
		EventBuffer:    loaded.Gateway.EventBuffer,
	}, nil
}
