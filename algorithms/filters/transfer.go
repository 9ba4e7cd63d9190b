// Package filters evaluates the frequency response of the gyro filter chain:
// a 2nd order low-pass followed by any number of harmonic notch filters.
//
// Filters are evaluated in the z-domain. Each filter multiplies its numerator
// and denominator polynomials into a running Transfer; the single complex
// division H = Hn / Hd is done once at the end.
package filters

import (
	"math"

	"github.com/RyanBlaney/notch-review/algorithms/common"
)

// ZPoints holds z^-1 and z^-2 at a set of frequencies, where z = e^(jw).
type ZPoints struct {
	Freq []float64
	Z1   common.Complex
	Z2   common.Complex
}

// NewZPoints precomputes z^-1 and z^-2 at each frequency in Hz for the
// given sample rate.
func NewZPoints(freq []float64, sampleRate float64) (ZPoints, error) {
	z := common.ExpJW(freq, sampleRate)
	z1, err := common.ComplexInverse(z)
	if err != nil {
		return ZPoints{}, err
	}
	sq, err := common.ComplexSquare(z)
	if err != nil {
		return ZPoints{}, err
	}
	z2, err := common.ComplexInverse(sq)
	if err != nil {
		return ZPoints{}, err
	}
	return ZPoints{Freq: freq, Z1: z1, Z2: z2}, nil
}

// Len returns the number of evaluation points
func (z ZPoints) Len() int {
	return z.Z1.Len()
}

// FrequencyRange returns 0, step, 2*step ... up to and including maxFreq.
// Fine steps keep phase unwrapping of the response well behaved.
func FrequencyRange(maxFreq, step float64) []float64 {
	if step <= 0 || maxFreq < 0 {
		return nil
	}
	n := int(math.Floor(maxFreq/step+1e-9)) + 1
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i) * step
	}
	return out
}

// Transfer is the numerator and denominator of a filter cascade
type Transfer struct {
	Num common.Complex
	Den common.Complex
}

// NewTransfer returns the identity cascade over n points
func NewTransfer(n int) Transfer {
	return Transfer{Num: common.Ones(n), Den: common.Ones(n)}
}

// Clone returns a deep copy of t
func (t Transfer) Clone() Transfer {
	return Transfer{Num: t.Num.Clone(), Den: t.Den.Clone()}
}

// H returns the complex response Num / Den
func (t Transfer) H() (common.Complex, error) {
	return common.ComplexDiv(t.Num, t.Den)
}

// biquad multiplies
//
//	(b0 + b1*z^-1 + b2*z^-2) / (a0 + a1*z^-1 + a2*z^-2)
//
// into t at every point of z.
func (t Transfer) biquad(z ZPoints, b0, b1, b2, a0, a1, a2 float64) {
	for i := range t.Num.Re {
		z1r, z1i := z.Z1.Re[i], z.Z1.Im[i]
		z2r, z2i := z.Z2.Re[i], z.Z2.Im[i]

		nr := b0 + b1*z1r + b2*z2r
		ni := b1*z1i + b2*z2i
		dr := a0 + a1*z1r + a2*z2r
		di := a1*z1i + a2*z2i

		hr, hi := t.Num.Re[i], t.Num.Im[i]
		t.Num.Re[i] = hr*nr - hi*ni
		t.Num.Im[i] = hr*ni + hi*nr

		hr, hi = t.Den.Re[i], t.Den.Im[i]
		t.Den.Re[i] = hr*dr - hi*di
		t.Den.Im[i] = hr*di + hi*dr
	}
}
