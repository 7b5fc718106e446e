// Package main is the entry point for the kurum-sync agent.
package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/kurum-rebirth/kurum-sync/cmd/kurum-sync/app"
	"github.com/kurum-rebirth/kurum-sync/internal/config"
	"github.com/kurum-rebirth/kurum-sync/internal/logger"
)

// getLogLevel reads KURUM_LOG_LEVEL, falling back to LOG_LEVEL, and returns
// the level with the raw value when it could not be parsed
func getLogLevel() (slog.Level, string) {
	v := viper.New()
	v.SetEnvPrefix(config.EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	raw := v.GetString("LOG_LEVEL")
	if raw == "" {
		raw = os.Getenv("LOG_LEVEL")
	}
	level, ok := logger.ParseLevel(raw)
	if !ok {
		return level, raw
	}
	return level, ""
}

func main() {
	// Logs go to stderr so that stdout stays clean for command output
	// (e.g., status --format json)
	level, invalid := getLogLevel()
	slog.SetDefault(slog.New(logger.NewHandler(os.Stderr, level)))
	if invalid != "" {
		slog.Warn("Invalid LOG_LEVEL, using INFO", "value", invalid)
	}

	if err := app.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
