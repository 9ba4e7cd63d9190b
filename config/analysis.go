package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps every configuration validation failure
var ErrInvalid = errors.New("invalid configuration")

var (
	validBackends = map[string]struct{}{
		"":        {},
		"godsp":   {},
		"gonum":   {},
		"algofft": {},
	}

	validWindows = map[string]struct{}{
		"":            {},
		"hann":        {},
		"hamming":     {},
		"blackman":    {},
		"rectangular": {},
	}

	validScales = map[string]struct{}{
		"":       {},
		"linear": {},
		"db":     {},
		"psd":    {},
	}
)

// AnalysisConfig configures the spectral and tracking analysis
type AnalysisConfig struct {
	// WindowSize fixes the FFT length; 0 derives it from WindowsPerBatch
	WindowSize      int    `json:"window_size" yaml:"window_size"`
	WindowsPerBatch int    `json:"windows_per_batch" yaml:"windows_per_batch"`
	WindowType      string `json:"window_type" yaml:"window_type"`

	Backend        string  `json:"backend" yaml:"backend"`
	Workers        int     `json:"workers" yaml:"workers"`
	AmplitudeScale string  `json:"amplitude_scale" yaml:"amplitude_scale"`
	GyroFilterHz   float64 `json:"gyro_filter_hz" yaml:"gyro_filter_hz"`

	// ESCStaleWindow is how long an ESC report stays usable for averaging
	ESCStaleWindow float64 `json:"esc_stale_window" yaml:"esc_stale_window"`

	// Summary time range in seconds; TimeEnd 0 means the end of the log
	TimeStart float64 `json:"time_start" yaml:"time_start"`
	TimeEnd   float64 `json:"time_end" yaml:"time_end"`
}

// DefaultAnalysisConfig returns the default analysis settings
func DefaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		WindowSize:      1024,
		WindowsPerBatch: 1,
		WindowType:      "hann",
		Backend:         "godsp",
		AmplitudeScale:  "linear",
		GyroFilterHz:    20,
		ESCStaleWindow:  1.0,
	}
}

// End returns TimeEnd with 0 mapped to +Inf
func (a AnalysisConfig) End() float64 {
	if a.TimeEnd == 0 {
		return math.Inf(1)
	}
	return a.TimeEnd
}

// Validate checks ranges and enumerations
func (a AnalysisConfig) Validate() error {
	if a.WindowSize < 0 || (a.WindowSize > 0 && a.WindowSize&(a.WindowSize-1) != 0) {
		return fmt.Errorf("%w: window size %d must be a power of two", ErrInvalid, a.WindowSize)
	}
	if a.WindowsPerBatch < 0 {
		return fmt.Errorf("%w: windows per batch %d", ErrInvalid, a.WindowsPerBatch)
	}
	if _, ok := validWindows[a.WindowType]; !ok {
		return fmt.Errorf("%w: unknown window type %q", ErrInvalid, a.WindowType)
	}
	if _, ok := validBackends[a.Backend]; !ok {
		return fmt.Errorf("%w: unknown fft backend %q", ErrInvalid, a.Backend)
	}
	if _, ok := validScales[a.AmplitudeScale]; !ok {
		return fmt.Errorf("%w: unknown amplitude scale %q", ErrInvalid, a.AmplitudeScale)
	}
	if a.ESCStaleWindow <= 0 {
		return fmt.Errorf("%w: esc stale window %v must be positive", ErrInvalid, a.ESCStaleWindow)
	}
	if a.TimeEnd != 0 && a.TimeEnd < a.TimeStart {
		return fmt.Errorf("%w: time range [%v, %v]", ErrInvalid, a.TimeStart, a.TimeEnd)
	}
	return nil
}

// ReviewConfig is the complete configuration of a notch review run
type ReviewConfig struct {
	LogPath       string        `json:"log_path" yaml:"log_path"`
	LogLevel      string        `json:"log_level" yaml:"log_level"`
	FilterVersion FilterVersion `json:"filter_version" yaml:"filter_version"`

	Analysis AnalysisConfig `json:"analysis" yaml:"analysis"`

	// Notches overrides the notch parameters logged in the flight log
	Notches []HarmonicNotchParams `json:"notches,omitempty" yaml:"notches,omitempty"`
}

// DefaultReviewConfig returns the default review configuration
func DefaultReviewConfig() *ReviewConfig {
	return &ReviewConfig{
		LogLevel:      "info",
		FilterVersion: FilterV2,
		Analysis:      DefaultAnalysisConfig(),
	}
}

// Validate checks the whole configuration
func (c *ReviewConfig) Validate() error {
	if c.FilterVersion != FilterV1 && c.FilterVersion != FilterV2 {
		return fmt.Errorf("%w: filter version %d", ErrInvalid, c.FilterVersion)
	}
	if err := c.Analysis.Validate(); err != nil {
		return fmt.Errorf("analysis: %w", err)
	}
	return nil
}

// Parse decodes YAML over the defaults and validates the result
func Parse(data []byte) (*ReviewConfig, error) {
	cfg := DefaultReviewConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads and parses a YAML configuration file
func Load(path string) (*ReviewConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return Parse(data)
}
