package main

import (
	"os"

	"github.com/spf13/cobra"

	"portalfetch/browser"
	"portalfetch/config"
	"portalfetch/database"
	"portalfetch/logger"
	"portalfetch/metrics"
	"portalfetch/portal"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Performs one end-to-end extraction run (the default command).",
	Args:  cobra.NoArgs,
	RunE:  runFetch,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

// chromeOptions overlays the configured browser settings on the defaults.
func chromeOptions(cfg *config.Config) browser.ChromeOptions {
	opts := browser.DefaultChromeOptions()
	opts.ExecPath = cfg.ChromePath
	opts.Headless = cfg.Headless
	if cfg.SettleDelay > 0 {
		opts.SettleDelay = cfg.SettleDelay
	}
	return opts
}

func newFetcher(cfg *config.Config) *portal.Fetcher {
	launcher := browser.NewChromeLauncher(chromeOptions(cfg), logger.Named("browser"))

	options := []portal.Option{
		portal.WithLogger(logger.Get()),
		portal.WithMetrics(metrics.NewManager()),
	}
	if cfg.Database.Enabled() {
		options = append(options, portal.WithPublisher(database.NewPublisher(cfg.Database)))
	}

	return portal.New(launcher, portal.Options{
		Plan:            cfg.Plan,
		DownloadDir:     cfg.DownloadDir,
		OutputPath:      cfg.OutputPath(),
		MarkerPath:      cfg.MarkerPath(),
		MetricsPath:     cfg.MetricsPath(),
		ElementTimeout:  cfg.ElementTimeout,
		DownloadTimeout: cfg.DownloadTimeout,
		PollInterval:    cfg.PollInterval,
	}, options...)
}

func runFetch(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	log := logger.Get()

	res := newFetcher(cfg).Run(ctx)
	printRunSummary(os.Stdout, res)

	if !res.Succeeded() {
		log.Error(ctx, "run failed",
			logger.String("run_id", res.RunID),
			logger.String("stage", res.Stage),
			logger.Error(res.Err),
			logger.Stack(res.Err),
		)
		return errReported
	}
	log.Info(ctx, "run succeeded",
		logger.String("run_id", res.RunID),
		logger.String("output", res.Output),
		logger.Duration("took", res.Elapsed),
	)
	return nil
}
