// Package main implements pjmctl, the operator CLI for the pjm service.
package main

import (
	"log/slog"
	"os"

	"pjm/internal/config"
	"pjm/internal/logger"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "pjmctl",
	Short:        "pjmctl - administer the pjm project service",
	SilenceUsage: true,
}

var logLevel string

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error); defaults to LOG_LEVEL")
}

// loadConfig reads .env and the environment; --log-level wins over LOG_LEVEL.
func loadConfig() (*config.Config, *slog.Logger) {
	cfg := config.Load()
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	return cfg, logger.New(os.Stderr, cfg.LogLevel)
}
