package common

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLengthMismatch(t *testing.T) {
	a := []float64{1, 2, 3}
	b := []float64{1, 2}

	_, err := Mul(a, b)
	require.ErrorIs(t, err, ErrLengthMismatch)
	assert.Contains(t, err.Error(), "array_mul")

	for name, fn := range map[string]func(a, b []float64) ([]float64, error){
		"array_div": Div,
		"array_add": Add,
		"array_min": Min,
		"array_max": Max,
	} {
		_, err := fn(a, b)
		require.ErrorIs(t, err, ErrLengthMismatch, name)
		assert.Contains(t, err.Error(), name)
	}

	_, err = ComplexMul(Complex{Re: a, Im: a}, Complex{Re: b, Im: b})
	require.ErrorIs(t, err, ErrLengthMismatch)
	assert.Contains(t, err.Error(), "complex_mul")

	// ragged real/imag parts are rejected too
	_, err = ComplexAbs(Complex{Re: a, Im: b})
	require.ErrorIs(t, err, ErrLengthMismatch)
}

func TestRealArrayOps(t *testing.T) {
	a := []float64{1, -2, 4}
	b := []float64{2, 3, 0.5}

	got, err := Mul(a, b)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, -6, 2}, got)

	got, err = Div(a, b)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.5, -2.0 / 3.0, 8}, got, 1e-12)

	got, err = Add(a, b)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 1, 4.5}, got)

	got, err = Min(a, b)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, -2, 0.5}, got)

	got, err = Max(a, b)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 3, 4}, got)

	assert.Equal(t, []float64{0.5, -1, 2}, Scale(a, 0.5))
	assert.Equal(t, []float64{2, -1, 5}, Offset(a, 1))
	assert.InDeltaSlice(t, []float64{0, 1, 2}, Log10([]float64{1, 10, 100}), 1e-12)
	assert.Equal(t, []float64{1, 2, 4}, Abs(a))

	got, err = Mul(nil, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestComplexMulDivRoundTrip(t *testing.T) {
	a := Complex{Re: []float64{1, -3.5, 0, 2}, Im: []float64{2, 0.25, -1, 0}}
	b := Complex{Re: []float64{0.5, 4, -2, 1e-3}, Im: []float64{-1, 1, 3, 7}}

	prod, err := ComplexMul(a, b)
	require.NoError(t, err)
	back, err := ComplexDiv(prod, b)
	require.NoError(t, err)

	assert.InDeltaSlice(t, a.Re, back.Re, 1e-12)
	assert.InDeltaSlice(t, a.Im, back.Im, 1e-12)
}

func TestComplexOps(t *testing.T) {
	c := Complex{Re: []float64{3, 0, -1}, Im: []float64{4, 2, 0}}

	abs, err := ComplexAbs(c)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{5, 2, 1}, abs, 1e-12)

	sq, err := ComplexSquare(c)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{-7, -4, 1}, sq.Re, 1e-12)
	assert.InDeltaSlice(t, []float64{24, 0, 0}, sq.Im, 1e-12)

	inv, err := ComplexInverse(c)
	require.NoError(t, err)
	one, err := ComplexMul(inv, c)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1, 1, 1}, one.Re, 1e-12)
	assert.InDeltaSlice(t, []float64{0, 0, 0}, one.Im, 1e-12)

	phase, err := ComplexPhase(c)
	require.NoError(t, err)
	assert.InDelta(t, math.Atan2(4, 3), phase[0], 1e-12)
	assert.InDelta(t, math.Pi/2, phase[1], 1e-12)
	assert.InDelta(t, math.Pi, phase[2], 1e-12)
}

func TestComplexZeroDivisor(t *testing.T) {
	z := NewComplex(1)
	q, err := ComplexDiv(Ones(1), z)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(q.Re[0]))

	inv, err := ComplexInverse(z)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(inv.Im[0]))
}

func TestExpJW(t *testing.T) {
	z := ExpJW([]float64{0, 250, 500}, 1000)
	assert.InDeltaSlice(t, []float64{1, 0, -1}, z.Re, 1e-12)
	assert.InDeltaSlice(t, []float64{0, 1, 0}, z.Im, 1e-12)

	abs, err := ComplexAbs(ExpJW([]float64{12.5, 77, 310}, 1000))
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1, 1, 1}, abs, 1e-12)
}

func TestLinearInterpExactAndContinuous(t *testing.T) {
	times := []float64{0, 0.5, 1.5, 2}
	values := []float64{0.1, 0.3, -0.7, 10}

	got, err := LinearInterp(values, times, times)
	require.NoError(t, err)
	assert.Equal(t, values, got)

	got, err = LinearInterp(values, times, []float64{0.25, 1.0, 1.75})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.2, -0.2, 4.65}, got, 1e-12)

	// approaching a knot from either side converges on the knot value
	eps := 1e-9
	got, err = LinearInterp(values, times, []float64{1.5 - eps, 1.5 + eps})
	require.NoError(t, err)
	assert.InDelta(t, -0.7, got[0], 1e-6)
	assert.InDelta(t, -0.7, got[1], 1e-6)
}

func TestLinearInterpClamps(t *testing.T) {
	times := []float64{1, 2, 3}
	values := []float64{5, 6, 9}

	got, err := LinearInterp(values, times, []float64{-100, 0.999, 3.001, 1e9})
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 5, 9, 9}, got)
}

func TestLinearInterpEdgeCases(t *testing.T) {
	got, err := LinearInterp([]float64{1}, []float64{1}, nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = LinearInterp(nil, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = LinearInterp(nil, nil, []float64{1})
	assert.ErrorIs(t, err, ErrEmptySeries)

	_, err = LinearInterp([]float64{1, 2}, []float64{1}, []float64{1})
	assert.ErrorIs(t, err, ErrLengthMismatch)

	got, err = LinearInterp([]float64{4}, []float64{2}, []float64{0, 2, 5})
	require.NoError(t, err)
	assert.Equal(t, []float64{4, 4, 4}, got)

	got, err = LinearInterp([]float64{1, 2}, []float64{0, 1}, []float64{math.NaN()})
	require.NoError(t, err)
	assert.True(t, math.IsNaN(got[0]))
}

func TestWindowMean(t *testing.T) {
	time := []float64{0, 1, 2, 3, 4, 5}
	value := []float64{10, 20, 30, 40, 50, 60}

	s, e := WindowBounds(time, 1.5, 3.5)
	assert.Equal(t, 1, s)
	assert.Equal(t, 4, e)

	mean, ok := WindowMean(time, value, 1.5, 3.5)
	require.True(t, ok)
	assert.InDelta(t, 30, mean, 1e-12)

	// end beyond the data stops at the second-to-last sample
	_, e = WindowBounds(time, 0, 100)
	assert.Equal(t, 5, e)

	_, ok = WindowMean(time, value, 10, 2)
	assert.False(t, ok)
	_, ok = WindowMean(nil, nil, 0, 1)
	assert.False(t, ok)
}

func TestStatsHelpers(t *testing.T) {
	assert.InDelta(t, 2.5, Mean([]float64{1, 2, 3, 4}), 1e-12)
	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 7.0, MaxAbs([]float64{1, -7, 3}))
	assert.Equal(t, 0.0, MaxAbs(nil))
	assert.Equal(t, 2, ArgMax([]float64{1, 3, 9, 2}))
	assert.Equal(t, -1, ArgMax(nil))
	assert.True(t, IsPowerOfTwo(1024))
	assert.False(t, IsPowerOfTwo(1000))
	assert.False(t, IsPowerOfTwo(0))
	assert.Equal(t, 1.0, Clamp(3, 0, 1))
}
