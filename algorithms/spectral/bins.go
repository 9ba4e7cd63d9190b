package spectral

import "github.com/RyanBlaney/notch-review/algorithms/common"

// RFFTFreq returns the bin center frequencies of an n point real FFT with
// sample period d seconds.
func RFFTFreq(n int, d float64) []float64 {
	freq := make([]float64, RealLength(n))
	for i := range freq {
		freq[i] = float64(i) / (float64(n) * d)
	}
	return freq
}

// ToDoubleSided rebuilds the full conjugate-symmetric spectrum from a scaled
// one-sided spectrum, halving interior bins to undo the one-sided doubling.
// The result has 2*(len-1) points.
func ToDoubleSided(x common.Complex) common.Complex {
	realLen := x.Len()
	if realLen < 2 {
		return x.Clone()
	}
	fullLen := (realLen - 1) * 2
	out := common.NewComplex(fullLen)

	// DC
	out.Re[0] = x.Re[0]
	out.Im[0] = x.Im[0]

	// Nyquist
	out.Re[realLen-1] = x.Re[realLen-1]
	out.Im[realLen-1] = x.Im[realLen-1]

	for i := 1; i < realLen-1; i++ {
		out.Re[i] = x.Re[i] * 0.5
		out.Im[i] = x.Im[i] * 0.5

		rhs := fullLen - i
		out.Re[rhs] = x.Re[i] * 0.5
		out.Im[rhs] = x.Im[i] * -0.5
	}
	return out
}

// PeakBin returns the index and frequency of the largest magnitude, ignoring
// the DC bin when skipDC is set. It returns -1 for an empty spectrum.
func PeakBin(magnitude, freq []float64, skipDC bool) (int, float64) {
	offset := 0
	if skipDC && len(magnitude) > 1 {
		offset = 1
	}
	idx := common.ArgMax(magnitude[offset:])
	if idx < 0 {
		return -1, 0
	}
	idx += offset
	if idx >= len(freq) {
		return idx, 0
	}
	return idx, freq[idx]
}
