package main

import (
	"os"

	"github.com/spf13/cobra"

	"portalfetch/logger"
	"portalfetch/portal"
)

var normalizeOut string

var normalizeCmd = &cobra.Command{
	Use:   "normalize <artifact> [--out <path/to/output.csv>]",
	Short: "Normalizes an already downloaded export without opening a browser.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, err := loadConfig(ctx)
		if err != nil {
			return err
		}
		log := logger.Get()

		out := normalizeOut
		if out == "" {
			out = cfg.OutputPath()
		}

		_, stats, err := portal.Normalize(args[0], out)
		if err != nil {
			log.Error(ctx, "normalize failed", logger.String("artifact", args[0]), logger.Error(err))
			return errReported
		}
		printNormalizeSummary(os.Stdout, args[0], stats)
		log.Info(ctx, "saved cleaned file", logger.String("file", stats.Output))
		return nil
	},
}

func init() {
	normalizeCmd.Flags().StringVar(&normalizeOut, "out", "", "output CSV path (defaults to the configured output file)")
	rootCmd.AddCommand(normalizeCmd)
}
