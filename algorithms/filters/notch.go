package filters

import "math"

// centered is a notch stage placed at a run time center frequency
type centered interface {
	Apply(t Transfer, center, sampleRate float64, z ZPoints)
}

// Notch is a single biquad notch. Its center frequency is supplied on each
// Apply and multiplied by the harmonic.
type Notch struct {
	AttenuationDB float64
	Bandwidth     float64
	Harmonic      float64

	asq float64
}

// NewNotch returns a notch with attenuation in dB and bandwidth in Hz
func NewNotch(attenuationDB, bandwidth, harmonic float64) *Notch {
	a := math.Pow(10, -attenuationDB/40)
	return &Notch{
		AttenuationDB: attenuationDB,
		Bandwidth:     bandwidth,
		Harmonic:      harmonic,
		asq:           a * a,
	}
}

// Coefficients returns the notch biquad at center Hz. ok is false when the
// center lies outside (bandwidth/2, sampleRate/2), where the notch has no
// effect, and for a NaN center from missing tracking data.
func (n *Notch) Coefficients(center, sampleRate float64) (b0, b1, b2, a0, a1, a2 float64, ok bool) {
	if !(center > 0.5*n.Bandwidth && center < 0.5*sampleRate) {
		return 0, 0, 0, 0, 0, 0, false
	}

	octaves := math.Log2(center/(center-n.Bandwidth/2)) * 2
	q := math.Sqrt(math.Pow(2, octaves)) / (math.Pow(2, octaves) - 1)

	omega := 2 * math.Pi * center / sampleRate
	alpha := math.Sin(omega) / (2 * q)
	b0 = 1 + alpha*n.asq
	b1 = -2 * math.Cos(omega)
	b2 = 1 - alpha*n.asq
	a0 = 1 + alpha
	a1 = b1
	a2 = 1 - alpha
	return b0, b1, b2, a0, a1, a2, true
}

func (n *Notch) Apply(t Transfer, center, sampleRate float64, z ZPoints) {
	b0, b1, b2, a0, a1, a2, ok := n.Coefficients(center*n.Harmonic, sampleRate)
	if !ok {
		return
	}
	t.biquad(z, b0, b1, b2, a0, a1, a2)
}

// MultiNotch spreads two or three narrower notches around the center to
// widen the stop band.
type MultiNotch struct {
	Bandwidth float64
	Harmonic  float64

	notches []*Notch
}

// NewMultiNotch returns a composite of num (2 or 3) notches each with
// bandwidth/num.
func NewMultiNotch(attenuationDB, bandwidth, harmonic float64, num int) *MultiNotch {
	scaled := bandwidth / float64(num)
	m := &MultiNotch{Bandwidth: bandwidth, Harmonic: harmonic}
	m.notches = []*Notch{NewNotch(attenuationDB, scaled, 1), NewNotch(attenuationDB, scaled, 1)}
	if num == 3 {
		m.notches = append(m.notches, NewNotch(attenuationDB, scaled, 1))
	}
	return m
}

// Centers returns the notch centers used for a fundamental at center Hz
func (m *MultiNotch) Centers(center, sampleRate float64) []float64 {
	center *= m.Harmonic

	// spread of two half-width notches equivalent to one full notch
	spread := m.Bandwidth / (32 * center)

	center = math.Min(math.Max(center, m.Bandwidth*0.52), sampleRate*0.48)

	out := []float64{center * (1 - spread), center * (1 + spread)}
	if len(m.notches) == 3 {
		out = append(out, center)
	}
	return out
}

func (m *MultiNotch) Apply(t Transfer, center, sampleRate float64, z ZPoints) {
	for i, c := range m.Centers(center, sampleRate) {
		m.notches[i].Apply(t, c, sampleRate, z)
	}
}
