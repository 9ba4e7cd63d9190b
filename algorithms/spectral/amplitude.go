package spectral

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/notch-review/algorithms/common"
	"github.com/RyanBlaney/notch-review/algorithms/windowing"
)

// AmplitudeScale selects how averaged magnitude spectra are reported
type AmplitudeScale string

const (
	ScaleLinear AmplitudeScale = "linear"
	ScaleDB     AmplitudeScale = "db"
	ScalePSD    AmplitudeScale = "psd"
)

// ParseAmplitudeScale parses a scale name; empty means linear.
func ParseAmplitudeScale(s string) (AmplitudeScale, error) {
	switch AmplitudeScale(s) {
	case ScaleLinear, "":
		return ScaleLinear, nil
	case ScaleDB:
		return ScaleDB, nil
	case ScalePSD:
		return ScalePSD, nil
	}
	return "", fmt.Errorf("unknown amplitude scale %q", s)
}

// Prepare maps a magnitude spectrum into the domain that is averaged: power
// for PSD, magnitude otherwise.
func (a AmplitudeScale) Prepare(magnitude []float64) []float64 {
	if a == ScalePSD {
		out, _ := common.Mul(magnitude, magnitude)
		return out
	}
	return append([]float64(nil), magnitude...)
}

// Finish converts an averaged, corrected spectrum to display units.
func (a AmplitudeScale) Finish(x []float64) []float64 {
	switch a {
	case ScalePSD:
		return common.Scale(common.Log10(x), 10)
	case ScaleDB:
		return common.Scale(common.Log10(x), 20)
	default:
		return x
	}
}

// WindowCorrection returns the factor undoing window gain. resolution is the
// bin width in Hz and only matters for PSD.
func (a AmplitudeScale) WindowCorrection(c windowing.Correction, resolution float64) float64 {
	if a == ScalePSD {
		return (c.Energy * c.Energy * 0.5) / resolution
	}
	return c.Linear
}

// QuantizationCorrection returns the factor applied to a quantization noise
// floor so it can be compared against a corrected spectrum.
func (a AmplitudeScale) QuantizationCorrection(c windowing.Correction) float64 {
	if a == ScalePSD {
		return 1 / (c.Energy * math.Sqrt2 / 2)
	}
	return 1 / c.Linear
}

// Unit returns the display unit label
func (a AmplitudeScale) Unit() string {
	switch a {
	case ScalePSD:
		return "dB/Hz"
	case ScaleDB:
		return "dB"
	default:
		return ""
	}
}
