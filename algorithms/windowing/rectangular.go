package windowing

import "fmt"

// Rectangular is the boxcar window; every coefficient is 1.
type Rectangular struct {
	coefficients
}

// NewRectangular creates a new rectangular window
func NewRectangular(size int) *Rectangular {
	return &Rectangular{cosineSum(TypeRectangular, size, false, 1, 0, 0)}
}

// Apply returns a copy of signal, nil on a size mismatch.
func (r *Rectangular) Apply(signal []float64) []float64 {
	if len(signal) != len(r.values) {
		return nil
	}
	return append([]float64(nil), signal...)
}

// ApplyInPlace leaves signal unchanged.
func (r *Rectangular) ApplyInPlace(signal []float64) error {
	if len(signal) != len(r.values) {
		return fmt.Errorf("signal length (%d) doesn't match window size (%d)", len(signal), len(r.values))
	}
	return nil
}
