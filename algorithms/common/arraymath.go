package common

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// ErrLengthMismatch is returned when elementwise operands differ in length.
// There is no broadcasting: every operand must have the same length.
var ErrLengthMismatch = errors.New("length mismatch")

func checkLength(op string, a, b int) error {
	if a != b {
		return fmt.Errorf("%s: %w: %d != %d", op, ErrLengthMismatch, a, b)
	}
	return nil
}

// Mul returns a[i] * b[i].
func Mul(a, b []float64) ([]float64, error) {
	if err := checkLength("array_mul", len(a), len(b)); err != nil {
		return nil, err
	}
	out := make([]float64, len(a))
	if len(a) > 0 {
		vecmath.MulBlock(out, a, b)
	}
	return out, nil
}

// Div returns a[i] / b[i]. Zero divisors follow IEEE semantics.
func Div(a, b []float64) ([]float64, error) {
	if err := checkLength("array_div", len(a), len(b)); err != nil {
		return nil, err
	}
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] / b[i]
	}
	return out, nil
}

// Add returns a[i] + b[i].
func Add(a, b []float64) ([]float64, error) {
	if err := checkLength("array_add", len(a), len(b)); err != nil {
		return nil, err
	}
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] + b[i]
	}
	return out, nil
}

// Min returns the pairwise minimum of a and b.
func Min(a, b []float64) ([]float64, error) {
	if err := checkLength("array_min", len(a), len(b)); err != nil {
		return nil, err
	}
	out := make([]float64, len(a))
	for i := range a {
		out[i] = math.Min(a[i], b[i])
	}
	return out, nil
}

// Max returns the pairwise maximum of a and b.
func Max(a, b []float64) ([]float64, error) {
	if err := checkLength("array_max", len(a), len(b)); err != nil {
		return nil, err
	}
	out := make([]float64, len(a))
	for i := range a {
		out[i] = math.Max(a[i], b[i])
	}
	return out, nil
}

// Scale returns a[i] * scale.
func Scale(a []float64, scale float64) []float64 {
	out := make([]float64, len(a))
	for i, v := range a {
		out[i] = v * scale
	}
	return out
}

// Offset returns a[i] + offset.
func Offset(a []float64, offset float64) []float64 {
	out := make([]float64, len(a))
	for i, v := range a {
		out[i] = v + offset
	}
	return out
}

// Log10 returns log10(a[i]).
func Log10(a []float64) []float64 {
	out := make([]float64, len(a))
	for i, v := range a {
		out[i] = math.Log10(v)
	}
	return out
}

// Abs returns |a[i]|.
func Abs(a []float64) []float64 {
	out := make([]float64, len(a))
	for i, v := range a {
		out[i] = math.Abs(v)
	}
	return out
}
