package windowing

// Blackman is the three-term 0.42/0.5/0.08 cosine-sum window
type Blackman struct {
	coefficients
}

// NewBlackman creates a new Blackman window
func NewBlackman(size int, symmetric bool) *Blackman {
	return &Blackman{cosineSum(TypeBlackman, size, symmetric, 0.42, 0.5, 0.08)}
}
