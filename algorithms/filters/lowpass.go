package filters

import "math"

// LowPass is the 2nd order Butterworth low-pass applied to raw gyro data.
type LowPass struct {
	Cutoff float64
}

// NewLowPass returns a low-pass with the given cutoff in Hz. A cutoff of
// zero or less disables the filter.
func NewLowPass(cutoff float64) *LowPass {
	return &LowPass{Cutoff: cutoff}
}

// Enabled reports whether the filter has any effect
func (l *LowPass) Enabled() bool {
	return l != nil && l.Cutoff > 0
}

// Coefficients returns b0, b1, b2, a1, a2 at the sample rate; a0 is 1.
func (l *LowPass) Coefficients(sampleRate float64) (b0, b1, b2, a1, a2 float64) {
	fr := sampleRate / l.Cutoff
	ohm := math.Tan(math.Pi / fr)
	cos := math.Cos(math.Pi / 4)
	c := 1 + 2*cos*ohm + ohm*ohm

	b0 = ohm * ohm / c
	b1 = 2 * b0
	b2 = b0
	a1 = 2 * (ohm*ohm - 1) / c
	a2 = (1 - 2*cos*ohm + ohm*ohm) / c
	return b0, b1, b2, a1, a2
}

// Apply multiplies the filter into t
func (l *LowPass) Apply(t Transfer, sampleRate float64, z ZPoints) {
	if !l.Enabled() {
		return
	}
	b0, b1, b2, a1, a2 := l.Coefficients(sampleRate)
	t.biquad(z, b0, b1, b2, 1, a1, a2)
}
