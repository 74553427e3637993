package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bit-cook/ClawX/internal/pathutil"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"
)

type Config struct {
	Gateway GatewayConfig `koanf:"gateway" yaml:"gateway"`
	Chat    ChatConfig    `koanf:"chat" yaml:"chat"`
	State   StateConfig   `koanf:"state" yaml:"state"`
	Export  ExportConfig  `koanf:"export" yaml:"export"`
	Log     LogConfig     `koanf:"log" yaml:"log"`
}

type GatewayConfig struct {
	URL            string `koanf:"url" yaml:"url"`
	Token          string `koanf:"token" yaml:"token"`
	DialTimeout    string `koanf:"dial_timeout" yaml:"dial_timeout"`
	RequestTimeout string `koanf:"request_timeout" yaml:"request_timeout"`
	PingInterval   string `koanf:"ping_interval" yaml:"ping_interval"`
	EventBuffer    int    `koanf:"event_buffer" yaml:"event_buffer"`
}

type ChatConfig struct {
	SessionKey   string `koanf:"session_key" yaml:"session_key"`
	HistoryLimit int    `koanf:"history_limit" yaml:"history_limit"`
}

type StateConfig struct {
	Dir string `koanf:"dir" yaml:"dir"`
}

type ExportConfig struct {
	Dir string `koanf:"dir" yaml:"dir"`
}

type LogConfig struct {
	Level string `koanf:"level" yaml:"level"`
}

const (
	DefaultGatewayURL            = "ws://127.0.0.1:18789"
	DefaultGatewayDialTimeout    = "10s"
	DefaultGatewayRequestTimeout = "30s"
	DefaultGatewayPingInterval   = "30s"
	DefaultGatewayEventBuffer    = 64
	DefaultChatSessionKey        = "main"
	DefaultChatHistoryLimit      = 200
	DefaultLockTimeout           = "2s"
	DefaultLockRetry             = "100ms"
	DefaultLockMaxRetry          = 20
	DefaultLogLevel              = "info"
)

// Defaults returns a Config populated with the built-in defaults, with paths
// left in their portable "~" form. Used to seed a fresh config file.
func Defaults() *Config {
	return &Config{
		Gateway: GatewayConfig{
			URL:            DefaultGatewayURL,
			DialTimeout:    DefaultGatewayDialTimeout,
			RequestTimeout: DefaultGatewayRequestTimeout,
			PingInterval:   DefaultGatewayPingInterval,
			EventBuffer:    DefaultGatewayEventBuffer,
		},
		Chat: ChatConfig{
			SessionKey:   DefaultChatSessionKey,
			HistoryLimit: DefaultChatHistoryLimit,
		},
		State:  StateConfig{Dir: "~/.clawx"},
		Export: ExportConfig{Dir: "~/.clawx/exports"},
		Log:    LogConfig{Level: DefaultLogLevel},
	}
}

func Load(cmd *cobra.Command) (*Config, error) {
	k := koanf.New(".")

	// Hardcoded Defaults
	defaults := map[string]interface{}{
		"gateway.url":             DefaultGatewayURL,
		"gateway.dial_timeout":    DefaultGatewayDialTimeout,
		"gateway.request_timeout": DefaultGatewayRequestTimeout,
		"gateway.ping_interval":   DefaultGatewayPingInterval,
		"gateway.event_buffer":    DefaultGatewayEventBuffer,
		"chat.session_key":        DefaultChatSessionKey,
		"chat.history_limit":      DefaultChatHistoryLimit,
		"state.dir":               filepath.Join(os.Getenv("HOME"), ".clawx"),
		"export.dir":              filepath.Join(os.Getenv("HOME"), ".clawx", "exports"),
		"log.level":               DefaultLogLevel,
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	// Config file loading
	configPath := ""
	if cmd != nil {
		if flag := cmd.Flags().Lookup("config"); flag != nil {
			configPath = strings.TrimSpace(flag.Value.String())
		}
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, err
		}
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			globalPath := filepath.Join(home, ".clawx", "config.yaml")
			if err := k.Load(file.Provider(globalPath), yaml.Parser()); err != nil {
				slog.Debug("Global config not found or invalid", "path", globalPath, "error", err)
			}
		}
	}

	// Environment Variables
	k.Load(env.Provider("CLAWX_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "CLAWX_")), "_", ".", -1)
	}), nil)

	// CLI Flags
	if cmd != nil {
		k.Load(posflag.Provider(cmd.Flags(), ".", k), nil)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	if err := normalizePathFields(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func normalizePathFields(cfg *Config) error {
	if cfg == nil {
		return nil
	}

	stateDir, err := expandConfiguredPath(cfg.State.Dir)
	if err != nil {
		return err
	}
	if stateDir != "" {
		cfg.State.Dir = stateDir
	}

	exportDir, err := expandConfiguredPath(cfg.Export.Dir)
	if err != nil {
		return err
	}
	if exportDir != "" {
		cfg.Export.Dir = exportDir
	}

	return nil
}

func expandConfiguredPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	expanded, err := pathutil.Expand(trimmed)
	if err != nil {
		return "", err
	}
	return expanded, nil
}
