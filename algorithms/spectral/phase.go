package spectral

const (
	// Notches cause large positive phase jumps, so the unwrap accepts
	// positive steps up to 360-unwrapNegThreshold degrees.
	unwrapNegThreshold = 45.0
	unwrapPosThreshold = 360.0 - unwrapNegThreshold
)

// UnwrapPhaseDegrees removes 360 degree wraps from a phase response in
// degrees. The thresholds are asymmetric to track notch filters.
func UnwrapPhaseDegrees(phase []float64) []float64 {
	if len(phase) == 0 {
		return []float64{}
	}
	out := make([]float64, len(phase))
	out[0] = phase[0]
	for i := 1; i < len(phase); i++ {
		diff := phase[i] - phase[i-1]
		if diff > unwrapPosThreshold {
			diff -= 360
		} else if diff < -unwrapNegThreshold {
			diff += 360
		}
		out[i] = out[i-1] + diff
	}
	return out
}
