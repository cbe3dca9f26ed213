package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"portalfetch/logger"
)

func main() {
	if err := logger.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logging: %v\n", err)
		os.Exit(1)
	}

	// Root context with cancel on SIGINT/SIGTERM, so Chrome is shut down
	// and the marker still written when a CI job is cancelled.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
