package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/RyanBlaney/notch-review/logging"
	"github.com/RyanBlaney/notch-review/review"
	"github.com/RyanBlaney/notch-review/telemetry"
)

func Run(ctx context.Context, config *Config, logger logging.Logger, out io.Writer) error {
	logging.SetLevel(config.Level)

	path := config.Review.LogPath
	info, err := os.Stat(path)
	if err != nil && os.IsNotExist(err) {
		return fmt.Errorf("log file '%s' does not exist: %w", path, err)
	}
	if err == nil {
		logger.Info("opening log", logging.Fields{
			"path": path,
			"size": humanize.Bytes(uint64(info.Size())),
		})
	}

	log, err := telemetry.OpenSQLite(ctx, path)
	if err != nil {
		return err
	}
	defer log.Close()

	reviewer, err := review.NewReviewer(config.Review)
	if err != nil {
		return err
	}
	report, err := reviewer.Review(ctx, log)
	if err != nil {
		return err
	}

	if config.JSON {
		return report.WriteJSON(out)
	}
	return report.WriteText(out)
}
