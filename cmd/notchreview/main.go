package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/RyanBlaney/notch-review/cmd/notchreview/app"
	"github.com/RyanBlaney/notch-review/logging"
)

func main() {
	logger := logging.NewWriterLogger(os.Stderr)
	logging.SetGlobalLogger(logger)

	config, err := app.NewConfigFromCLI()
	if err != nil {
		logger.Error(err, "invalid arguments")
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err = app.Run(ctx, config, logger, os.Stdout); err != nil {
		logger.Error(err, "review failed")

		cancel()
		os.Exit(1)
	}
}
