// Package windowing provides tapering windows for short-time spectral
// analysis and the amplitude correction factors that undo their gain.
package windowing

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"
	"gonum.org/v1/gonum/stat"
)

// ErrUnknownType is returned by New for an unsupported window name.
var ErrUnknownType = errors.New("unknown window type")

// Type names a window shape.
type Type string

const (
	TypeRectangular Type = "rectangular"
	TypeHann        Type = "hann"
	TypeHamming     Type = "hamming"
	TypeBlackman    Type = "blackman"
)

// Window is a fixed-size tapering function applied to each analysis frame.
type Window interface {
	Apply(signal []float64) []float64
	ApplyInPlace(signal []float64) error
	GetCoefficients() []float64
	GetSize() int
	GetType() Type
}

// New creates a symmetric window of the given type.
func New(t Type, size int) (Window, error) {
	if size < 1 {
		return nil, fmt.Errorf("window size must be positive, got %d", size)
	}
	switch t {
	case TypeRectangular:
		return NewRectangular(size), nil
	case TypeHann, "":
		return NewHann(size, true), nil
	case TypeHamming:
		return NewHamming(size, true), nil
	case TypeBlackman:
		return NewBlackman(size, true), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
}

// coefficients is the shared implementation behind each window type
type coefficients struct {
	kind   Type
	values []float64
}

// cosineSum fills a generalized cosine-sum window a0 - a1*cos(x) + a2*cos(2x).
func cosineSum(kind Type, size int, symmetric bool, a0, a1, a2 float64) coefficients {
	c := coefficients{kind: kind, values: make([]float64, size)}
	if size == 1 {
		c.values[0] = 1
		return c
	}

	denominator := float64(size)
	if symmetric {
		denominator = float64(size - 1)
	}
	for i := range size {
		arg := 2 * math.Pi * float64(i) / denominator
		c.values[i] = a0 - a1*math.Cos(arg) + a2*math.Cos(2*arg)
	}
	return c
}

// Apply returns the windowed copy of signal, nil on a size mismatch.
func (c *coefficients) Apply(signal []float64) []float64 {
	if len(signal) != len(c.values) {
		return nil
	}
	windowed := make([]float64, len(signal))
	vecmath.MulBlock(windowed, signal, c.values)
	return windowed
}

// ApplyInPlace multiplies signal by the window.
func (c *coefficients) ApplyInPlace(signal []float64) error {
	if len(signal) != len(c.values) {
		return fmt.Errorf("signal length (%d) doesn't match window size (%d)", len(signal), len(c.values))
	}
	vecmath.MulBlockInPlace(signal, c.values)
	return nil
}

// GetCoefficients returns a copy of the window coefficients
func (c *coefficients) GetCoefficients() []float64 {
	return append([]float64(nil), c.values...)
}

// GetSize returns the window size
func (c *coefficients) GetSize() int {
	return len(c.values)
}

// GetType returns the window type
func (c *coefficients) GetType() Type {
	return c.kind
}

// Correction holds the factors that restore amplitude (Linear) or energy
// (Energy) lost to windowing.
type Correction struct {
	Linear float64 `json:"linear"`
	Energy float64 `json:"energy"`
}

// CorrectionFactors returns linear = 1/mean(w) and energy = 1/sqrt(mean(w^2)).
func CorrectionFactors(w []float64) Correction {
	if len(w) == 0 {
		return Correction{Linear: math.Inf(1), Energy: math.Inf(1)}
	}
	sq := make([]float64, len(w))
	vecmath.MulBlock(sq, w, w)
	return Correction{
		Linear: 1 / stat.Mean(w, nil),
		Energy: 1 / math.Sqrt(stat.Mean(sq, nil)),
	}
}
