package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"portalfetch/config"
	"portalfetch/logger"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "portalfetch",
	Short: "Downloads the quarterly imports table from Infoshare and saves it as a clean CSV.",
	Long: `portalfetch drives headless Chrome through the Infoshare menus, exports the
dataset, waits for the download and writes a normalized CSV next to it.

Configuration comes from .env, an optional YAML file (--config or PORTAL_CONFIG),
DOWNLOAD_DIR, PORTAL_* and DB_* environment variables.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runFetch,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML config file (overrides PORTAL_CONFIG)")
}

// errReported is returned once the failure has already been logged.
var errReported = errors.New("run failed")

func loadConfig(ctx context.Context) (*config.Config, error) {
	log := logger.Get()

	cfg, err := config.Load(ctx, config.Options{ConfigFile: configFile})
	if err != nil {
		log.Error(ctx, "failed to load config", logger.Error(err))
		return nil, errReported
	}

	if cfg.LogFormat == "console" {
		logger.InitConsole()
		log = logger.Get()
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return cfg, nil
}
