// Package tracking turns flight telemetry into harmonic notch target
// frequency tracks. Each Estimator reads one telemetry modality and maps it
// to the frequency the notch would be centered on.
//
// Estimators are built once from a log and are not safe for concurrent use:
// Interpolate replaces cached state read by InterpolatedTargetFreq.
package tracking

import (
	"github.com/RyanBlaney/notch-review/config"
)

// Mode is the notch MODE parameter value selecting a tracking source
type Mode int

const (
	ModeStatic   Mode = 0
	ModeThrottle Mode = 1
	ModeRPM1     Mode = 2
	ModeESC      Mode = 3
	ModeFFT      Mode = 4
	ModeRPM2     Mode = 5

	// ModeLogged marks the logged filter output, which has no mode value
	ModeLogged Mode = -1
)

// Series is a time ordered sequence of samples; Time is in seconds.
type Series struct {
	Time  []float64 `json:"time"`
	Value []float64 `json:"value"`
}

// Len returns the number of samples
func (s Series) Len() int {
	return len(s.Time)
}

// Empty reports whether the series holds no samples
func (s Series) Empty() bool {
	return len(s.Time) == 0
}

// ResultKind tags the shape of a TargetFreq
type ResultKind int

const (
	// Aggregate is a single frequency track
	Aggregate ResultKind = iota

	// PerInstance is one track per motor, peak or notch
	PerInstance
)

func (k ResultKind) String() string {
	if k == PerInstance {
		return "per_instance"
	}
	return "aggregate"
}

// TargetFreq is a notch target frequency track. Exactly one of Aggregate
// and Instances is populated, as selected by Kind.
type TargetFreq struct {
	Kind      ResultKind `json:"kind"`
	Aggregate Series     `json:"aggregate"`
	Instances []Series   `json:"instances,omitempty"`
}

// Tracks returns the populated series regardless of kind
func (t TargetFreq) Tracks() []Series {
	if t.Kind == PerInstance {
		return t.Instances
	}
	return []Series{t.Aggregate}
}

// Estimator produces a notch target frequency from one telemetry source
type Estimator interface {
	// Name identifies the source, e.g. "ESC" or "RPM1"
	Name() string

	// Mode is the notch MODE value that selects this source
	Mode() Mode

	// HasData reports whether a target can be produced for cfg
	HasData(cfg config.NotchConfig) bool

	// TargetFreq maps the raw telemetry to target frequencies. It reports
	// false when the source has no data for cfg.
	TargetFreq(cfg config.NotchConfig) (TargetFreq, bool)

	// Interpolate resamples the source onto times and caches the result
	// under the caller's instance id, replacing any earlier result.
	Interpolate(instance int, times []float64) error

	// InterpolatedTargetFreq returns the target frequencies at one index of
	// the times passed to Interpolate: one value for an aggregate track,
	// one per source instance for a dynamic notch.
	InterpolatedTargetFreq(instance, index int, cfg config.NotchConfig) ([]float64, bool)

	// Mean averages the raw source values over [start, end] seconds
	Mean(start, end float64) (float64, bool)
}
