package filters

import (
	"fmt"

	"github.com/RyanBlaney/notch-review/algorithms/common"
)

// Response is the complete gyro filter chain
type Response struct {
	LowPass *LowPass
	Notches []*HarmonicNotch
}

// Evaluate returns the complex response H = Hn/Hd at every point of z for
// each of steps time steps. The tracking sources must have been
// interpolated under instance onto those time steps.
//
// The low-pass and static notches do not change in flight and are evaluated
// once; tracked notches are added per step.
func (r *Response) Evaluate(instance, steps int, sampleRate float64, z ZPoints) ([]common.Complex, error) {
	static := NewTransfer(z.Len())
	r.LowPass.Apply(static, sampleRate, z)
	for _, n := range r.Notches {
		if n.Enabled() && n.Static() {
			n.Apply(static, instance, 0, sampleRate, z)
		}
	}

	out := make([]common.Complex, steps)
	for j := range steps {
		t := static.Clone()
		for _, n := range r.Notches {
			if n.Enabled() && !n.Static() {
				n.Apply(t, instance, j, sampleRate, z)
			}
		}
		h, err := t.H()
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", j, err)
		}
		out[j] = h
	}
	return out, nil
}

// Enabled returns the notches that take part in the response
func (r *Response) Enabled() []*HarmonicNotch {
	var out []*HarmonicNotch
	for _, n := range r.Notches {
		if n.Enabled() {
			out = append(out, n)
		}
	}
	return out
}
