package app

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/RyanBlaney/notch-review/config"
	"github.com/RyanBlaney/notch-review/logging"
)

type Config struct {
	Review *config.ReviewConfig
	Level  logging.Level
	JSON   bool
}

func NewConfigFromCLI() (*Config, error) {
	return ParseArgs(os.Args[1:], os.Stderr)
}

// ParseArgs builds the run configuration. A YAML file given with -config is
// loaded first; flags set on the command line override it.
func ParseArgs(args []string, output io.Writer) (*Config, error) {
	fs := flag.NewFlagSet("notchreview", flag.ContinueOnError)
	fs.SetOutput(output)

	var (
		c          Config
		configPath string
		logPath    string
		level      string
		version    int
		backend    string
		scale      string
		window     int
		windowType string
		wpb        int
		workers    int
		gyroFilter float64
		start, end float64
	)
	fs.StringVar(&logPath, "log", "", "Path to the SQLite flight log")
	fs.StringVar(&configPath, "config", "", "Path to a YAML review configuration")
	fs.StringVar(&level, "level", "info", "Log level. [debug, info, warn, error]")
	fs.IntVar(&version, "filter-version", int(config.FilterV2), "Notch filter version of the firmware. [1, 2]")
	fs.StringVar(&backend, "backend", "godsp", "FFT backend. [godsp, gonum, algofft]")
	fs.StringVar(&scale, "scale", "linear", "Amplitude scale. [linear, db, psd]")
	fs.IntVar(&window, "window", 1024, "FFT window size, a power of two. 0 derives it from -wpb")
	fs.StringVar(&windowType, "window-type", "hann", "FFT window. [hann, hamming, blackman, rectangular]")
	fs.IntVar(&wpb, "wpb", 1, "Windows per batch when the window size is derived")
	fs.IntVar(&workers, "workers", 0, "FFT worker goroutines, 0 for one per CPU")
	fs.Float64Var(&gyroFilter, "gyro-filter", 20, "Gyro low-pass cutoff in Hz, 0 to disable")
	fs.Float64Var(&start, "start", 0, "Start of the summary time range in seconds")
	fs.Float64Var(&end, "end", 0, "End of the summary time range in seconds, 0 for the end of the log")
	fs.BoolVar(&c.JSON, "json", false, "Write the report as JSON")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	c.Review = config.DefaultReviewConfig()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		c.Review = loaded
	}

	analysis := &c.Review.Analysis
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "log":
			c.Review.LogPath = logPath
		case "level":
			c.Review.LogLevel = level
		case "filter-version":
			c.Review.FilterVersion = config.FilterVersion(version)
		case "backend":
			analysis.Backend = backend
		case "scale":
			analysis.AmplitudeScale = scale
		case "window":
			analysis.WindowSize = window
		case "window-type":
			analysis.WindowType = windowType
		case "wpb":
			analysis.WindowsPerBatch = wpb
		case "workers":
			analysis.Workers = workers
		case "gyro-filter":
			analysis.GyroFilterHz = gyroFilter
		case "start":
			analysis.TimeStart = start
		case "end":
			analysis.TimeEnd = end
		}
	})

	var err error
	if c.Review.LogPath == "" {
		err = errors.New("log path is required")
	} else if c.Level, err = logging.ParseLevel(c.Review.LogLevel); err != nil {
		err = fmt.Errorf("log level: %w", err)
	} else {
		err = c.Review.Validate()
	}

	if err != nil {
		fs.Usage()
		return nil, err
	}
	return &c, nil
}
