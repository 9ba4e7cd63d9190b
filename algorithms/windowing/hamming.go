package windowing

// Hamming is the 0.54/0.46 raised-cosine window
type Hamming struct {
	coefficients
}

// NewHamming creates a new Hamming window
func NewHamming(size int, symmetric bool) *Hamming {
	return &Hamming{cosineSum(TypeHamming, size, symmetric, 0.54, 0.46, 0)}
}
