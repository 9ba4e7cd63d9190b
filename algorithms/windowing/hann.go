package windowing

// Hann is the raised-cosine window 0.5 - 0.5*cos(2*pi*n/N)
type Hann struct {
	coefficients
	symmetric bool
}

// NewHann creates a Hann window. A symmetric window uses N = size-1 so both
// end points are zero.
func NewHann(size int, symmetric bool) *Hann {
	return &Hann{
		coefficients: cosineSum(TypeHann, size, symmetric, 0.5, 0.5, 0),
		symmetric:    symmetric,
	}
}

// IsSymmetric reports whether the window was built for filter design (true)
// or spectral analysis with periodic extension (false).
func (h *Hann) IsSymmetric() bool {
	return h.symmetric
}
