package tracking

import (
	"math"

	"github.com/RyanBlaney/notch-review/config"
)

// Static is a notch fixed at its configured frequency. It needs no telemetry
// and spans the analysed time range.
type Static struct {
	start, end float64
}

// NewStatic returns a static source spanning [start, end] seconds
func NewStatic(start, end float64) *Static {
	return &Static{start: start, end: end}
}

func (s *Static) Name() string {
	return "Static"
}

func (s *Static) Mode() Mode {
	return ModeStatic
}

// Target returns the notch frequency. Version 2 firmware uses its
// magnitude; a negative frequency is how it marks a static notch.
func (s *Static) Target(cfg config.NotchConfig) float64 {
	if cfg.FilterVersion == config.FilterV2 {
		return math.Abs(cfg.Freq)
	}
	return cfg.Freq
}

func (s *Static) HasData(config.NotchConfig) bool {
	return true
}

func (s *Static) TargetFreq(cfg config.NotchConfig) (TargetFreq, bool) {
	f := s.Target(cfg)
	return TargetFreq{
		Kind: Aggregate,
		Aggregate: Series{
			Time:  []float64{s.start, s.end},
			Value: []float64{f, f},
		},
	}, true
}

// Interpolate is a no-op; the target does not vary with time
func (s *Static) Interpolate(int, []float64) error {
	return nil
}

func (s *Static) InterpolatedTargetFreq(_, _ int, cfg config.NotchConfig) ([]float64, bool) {
	return []float64{s.Target(cfg)}, true
}

// Mean is undefined for a static notch
func (s *Static) Mean(float64, float64) (float64, bool) {
	return 0, false
}
