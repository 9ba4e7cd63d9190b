package common

import (
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// Complex is an array of complex values held as parallel real and imaginary
// parts. Re and Im must always have the same length.
type Complex struct {
	Re []float64 `json:"re"`
	Im []float64 `json:"im"`
}

// NewComplex allocates a zeroed complex array of length n.
func NewComplex(n int) Complex {
	return Complex{Re: make([]float64, n), Im: make([]float64, n)}
}

// Ones returns n copies of 1+0i.
func Ones(n int) Complex {
	c := NewComplex(n)
	for i := range c.Re {
		c.Re[i] = 1
	}
	return c
}

// Len returns the number of complex values.
func (c Complex) Len() int {
	return len(c.Re)
}

// Clone returns a deep copy of c.
func (c Complex) Clone() Complex {
	return Complex{
		Re: append([]float64(nil), c.Re...),
		Im: append([]float64(nil), c.Im...),
	}
}

func (c Complex) check(op string) error {
	return checkLength(op, len(c.Re), len(c.Im))
}

func checkPair(op string, a, b Complex) error {
	if err := a.check(op); err != nil {
		return err
	}
	if err := b.check(op); err != nil {
		return err
	}
	return checkLength(op, a.Len(), b.Len())
}

// ComplexMul returns a[i] * b[i].
func ComplexMul(a, b Complex) (Complex, error) {
	if err := checkPair("complex_mul", a, b); err != nil {
		return Complex{}, err
	}
	out := NewComplex(a.Len())
	for i := range a.Re {
		ac := a.Re[i] * b.Re[i]
		bd := a.Im[i] * b.Im[i]
		ad := a.Re[i] * b.Im[i]
		bc := a.Im[i] * b.Re[i]
		out.Re[i] = ac - bd
		out.Im[i] = ad + bc
	}
	return out, nil
}

// ComplexDiv returns a[i] / b[i]. A zero divisor yields NaN in both parts
// rather than an error.
func ComplexDiv(a, b Complex) (Complex, error) {
	if err := checkPair("complex_div", a, b); err != nil {
		return Complex{}, err
	}
	out := NewComplex(a.Len())
	for i := range a.Re {
		den := b.Re[i]*b.Re[i] + b.Im[i]*b.Im[i]
		if den == 0 {
			out.Re[i] = math.NaN()
			out.Im[i] = math.NaN()
			continue
		}
		ac := a.Re[i] * b.Re[i]
		bd := a.Im[i] * b.Im[i]
		ad := a.Re[i] * b.Im[i]
		bc := a.Im[i] * b.Re[i]
		inv := 1 / den
		out.Re[i] = (ac + bd) * inv
		out.Im[i] = (bc - ad) * inv
	}
	return out, nil
}

// ComplexAbs returns |c[i]|.
func ComplexAbs(c Complex) ([]float64, error) {
	if err := c.check("complex_abs"); err != nil {
		return nil, err
	}
	out := make([]float64, c.Len())
	if len(out) > 0 {
		vecmath.Magnitude(out, c.Re, c.Im)
	}
	return out, nil
}

// ComplexInverse returns 1 / c[i]. Zero entries yield NaN.
func ComplexInverse(c Complex) (Complex, error) {
	if err := c.check("complex_inverse"); err != nil {
		return Complex{}, err
	}
	out := NewComplex(c.Len())
	for i := range c.Re {
		den := c.Re[i]*c.Re[i] + c.Im[i]*c.Im[i]
		if den == 0 {
			out.Re[i] = math.NaN()
			out.Im[i] = math.NaN()
			continue
		}
		inv := 1 / den
		out.Re[i] = c.Re[i] * inv
		out.Im[i] = -c.Im[i] * inv
	}
	return out, nil
}

// ComplexSquare returns c[i]^2.
func ComplexSquare(c Complex) (Complex, error) {
	if err := c.check("complex_square"); err != nil {
		return Complex{}, err
	}
	out := NewComplex(c.Len())
	for i := range c.Re {
		out.Re[i] = c.Re[i]*c.Re[i] - c.Im[i]*c.Im[i]
		out.Im[i] = 2 * c.Re[i] * c.Im[i]
	}
	return out, nil
}

// ComplexPhase returns atan2(im, re) in radians.
func ComplexPhase(c Complex) ([]float64, error) {
	if err := c.check("complex_phase"); err != nil {
		return nil, err
	}
	out := make([]float64, c.Len())
	for i := range c.Re {
		out[i] = math.Atan2(c.Im[i], c.Re[i])
	}
	return out, nil
}

// ExpJW returns e^(j*2*pi*f/rate) for each frequency f. Used to build the
// z-domain evaluation points of a discrete transfer function.
func ExpJW(freq []float64, rate float64) Complex {
	scale := 2 * math.Pi / rate
	out := NewComplex(len(freq))
	for i, f := range freq {
		jw := f * scale
		out.Re[i] = math.Cos(jw)
		out.Im[i] = math.Sin(jw)
	}
	return out
}
