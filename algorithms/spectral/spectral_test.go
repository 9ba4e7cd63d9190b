package spectral

import (
	"math"
	"math/rand"
	"testing"

	"github.com/RyanBlaney/notch-review/algorithms/common"
	"github.com/RyanBlaney/notch-review/algorithms/windowing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allBackends(t *testing.T) []Backend {
	t.Helper()
	var backends []Backend
	for _, name := range []BackendType{BackendGoDSP, BackendGonum, BackendAlgoFFT} {
		b, err := NewBackend(name)
		require.NoError(t, err)
		require.Equal(t, name, b.Name())
		backends = append(backends, b)
	}
	return backends
}

func magnitudes(t *testing.T, c common.Complex) []float64 {
	t.Helper()
	mag, err := common.ComplexAbs(c)
	require.NoError(t, err)
	return mag
}

func TestNewBackendUnknown(t *testing.T) {
	_, err := NewBackend("fftw")
	assert.ErrorIs(t, err, ErrUnknownBackend)

	b, err := NewBackend("")
	require.NoError(t, err)
	assert.Equal(t, BackendGoDSP, b.Name())
}

func TestBinAlignedSinusoid(t *testing.T) {
	const (
		size = 64
		bin  = 8
		amp  = 3.0
	)
	x := make([]float64, size)
	for n := range x {
		x[n] = amp * math.Cos(2*math.Pi*bin*float64(n)/size)
	}

	for _, backend := range allBackends(t) {
		ret, err := NewSTFT(backend, 1).Run(Request{
			Data:          map[string][]float64{"x": x},
			Keys:          []string{"x"},
			WindowSize:    size,
			WindowSpacing: size,
			Window:        windowing.NewRectangular(size).GetCoefficients(),
		})
		require.NoError(t, err, backend.Name())
		require.Equal(t, 1, ret.NumWindows())

		mag := magnitudes(t, ret.Spectra["x"][0])
		require.Len(t, mag, RealLength(size))
		for j, m := range mag {
			if j == bin {
				assert.InDelta(t, amp, m, 1e-9, "%s bin %d", backend.Name(), j)
			} else {
				assert.InDelta(t, 0, m, 1e-9, "%s bin %d", backend.Name(), j)
			}
		}
	}
}

func TestDCAndNyquistHalfScaled(t *testing.T) {
	const size = 16
	x := make([]float64, size)
	for n := range x {
		x[n] = 2 + 0.5*math.Pow(-1, float64(n))
	}

	for _, backend := range allBackends(t) {
		ret, err := NewSTFT(backend, 0).Run(Request{
			Data:          map[string][]float64{"x": x},
			Keys:          []string{"x"},
			WindowSize:    size,
			WindowSpacing: 4,
			Window:        windowing.NewRectangular(size).GetCoefficients(),
		})
		require.NoError(t, err)

		spectrum := ret.Spectra["x"][0]
		assert.InDelta(t, 2, spectrum.Re[0], 1e-12, backend.Name())
		assert.InDelta(t, 0.5, spectrum.Re[size/2], 1e-12, backend.Name())
		assert.InDelta(t, 0, spectrum.Im[size/2], 1e-12, backend.Name())
	}
}

func TestScale(t *testing.T) {
	assert.Equal(t, []float64{0.125, 0.25, 0.25, 0.25, 0.125}, Scale(8))
	// odd lengths have no Nyquist bin
	assert.InDeltaSlice(t, []float64{1.0 / 5, 2.0 / 5, 2.0 / 5}, Scale(5), 1e-15)
	assert.Equal(t, []float64{1}, Scale(1))
}

func TestWindowsAndCenters(t *testing.T) {
	const n = 100
	x := make([]float64, n)
	y := make([]float64, n)
	for i := range x {
		x[i] = float64(i%7) - 3
		y[i] = -2 * x[i]
	}
	w := windowing.NewHann(32, true).GetCoefficients()

	ret, err := NewSTFT(nil, 3).Run(Request{
		Data:          map[string][]float64{"x": x, "y": y},
		Keys:          []string{"x", "missing", "y"},
		WindowSize:    32,
		WindowSpacing: 16,
		Window:        w,
		TakeMax:       true,
	})
	require.NoError(t, err)

	assert.Equal(t, 5, NumWindows(n, 32, 16))
	assert.Equal(t, []float64{16, 32, 48, 64, 80}, ret.Center)
	assert.Len(t, ret.Spectra["x"], 5)
	assert.Len(t, ret.Spectra["y"], 5)
	assert.NotContains(t, ret.Spectra, "missing")

	for i := range ret.Center {
		start := i * 16
		windowed, err := common.Mul(x[start:start+32], w)
		require.NoError(t, err)
		assert.InDelta(t, common.MaxAbs(windowed), ret.Max["x"][i], 1e-12)
		assert.InDelta(t, 2*ret.Max["x"][i], ret.Max["y"][i], 1e-12)
	}
}

func TestRunErrors(t *testing.T) {
	s := NewSTFT(GoDSPBackend{}, 1)
	data := map[string][]float64{"x": make([]float64, 10), "y": make([]float64, 9)}
	rect := windowing.NewRectangular(8).GetCoefficients()

	_, err := s.Run(Request{Data: data, Keys: []string{"x"}, WindowSize: 16, WindowSpacing: 8,
		Window: windowing.NewRectangular(16).GetCoefficients()})
	assert.ErrorIs(t, err, ErrSignalTooShort)

	_, err = s.Run(Request{Data: data, Keys: []string{"x"}, WindowSize: 8, WindowSpacing: 4, Window: rect[:4]})
	assert.ErrorIs(t, err, ErrWindowSize)

	_, err = s.Run(Request{Data: data, Keys: []string{"x"}, WindowSize: 8, WindowSpacing: 0, Window: rect})
	assert.ErrorIs(t, err, ErrWindowSize)

	_, err = s.Run(Request{Data: data, Keys: []string{"x", "y"}, WindowSize: 8, WindowSpacing: 4, Window: rect})
	assert.ErrorIs(t, err, common.ErrLengthMismatch)

	_, err = s.Run(Request{Data: data, WindowSize: 8, WindowSpacing: 4, Window: rect})
	assert.Error(t, err)
}

func TestBackendsAgree(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	x := make([]float64, 256)
	for i := range x {
		x[i] = rng.NormFloat64()
	}

	backends := allBackends(t)
	want, err := backends[0].RealTransform(x)
	require.NoError(t, err)
	require.Len(t, want, RealLength(len(x)))

	for _, b := range backends[1:] {
		got, err := b.RealTransform(x)
		require.NoError(t, err)
		require.Len(t, got, len(want), b.Name())
		for i := range want {
			assert.InDelta(t, real(want[i]), real(got[i]), 1e-9, "%s bin %d", b.Name(), i)
			assert.InDelta(t, imag(want[i]), imag(got[i]), 1e-9, "%s bin %d", b.Name(), i)
		}
	}
}

func TestRFFTFreq(t *testing.T) {
	assert.InDeltaSlice(t, []float64{0, 125, 250, 375, 500}, RFFTFreq(8, 0.001), 1e-9)
	assert.Equal(t, 5, RealLength(8))
	assert.Equal(t, 5, RealLength(9))
}

func TestToDoubleSided(t *testing.T) {
	const size = 8
	x := []float64{1, -2, 0.5, 3, 0, -1, 2, 0.25}

	ret, err := NewSTFT(GoDSPBackend{}, 1).Run(Request{
		Data:          map[string][]float64{"x": x},
		Keys:          []string{"x"},
		WindowSize:    size,
		WindowSpacing: size,
		Window:        windowing.NewRectangular(size).GetCoefficients(),
	})
	require.NoError(t, err)

	full := ToDoubleSided(ret.Spectra["x"][0])
	require.Equal(t, size, full.Len())

	// direct DFT normalised by size
	for k := range size {
		var re, im float64
		for n, v := range x {
			arg := -2 * math.Pi * float64(k*n) / size
			re += v * math.Cos(arg)
			im += v * math.Sin(arg)
		}
		assert.InDelta(t, re/size, full.Re[k], 1e-12, "bin %d", k)
		assert.InDelta(t, im/size, full.Im[k], 1e-12, "bin %d", k)
	}
}

func TestUnwrapPhaseDegrees(t *testing.T) {
	assert.Equal(t, []float64{}, UnwrapPhaseDegrees(nil))
	assert.InDeltaSlice(t, []float64{170, 190, 200}, UnwrapPhaseDegrees([]float64{170, -170, -160}), 1e-12)
	assert.InDeltaSlice(t, []float64{0, -30}, UnwrapPhaseDegrees([]float64{0, -30}), 1e-12)
	assert.InDeltaSlice(t, []float64{0, -10}, UnwrapPhaseDegrees([]float64{0, 350}), 1e-12)
	// a positive jump below the threshold is kept
	assert.InDeltaSlice(t, []float64{0, 300}, UnwrapPhaseDegrees([]float64{0, 300}), 1e-12)
}

func TestAmplitudeScale(t *testing.T) {
	s, err := ParseAmplitudeScale("")
	require.NoError(t, err)
	assert.Equal(t, ScaleLinear, s)
	_, err = ParseAmplitudeScale("bogus")
	assert.Error(t, err)

	c := windowing.Correction{Linear: 2, Energy: 4}
	assert.Equal(t, 2.0, ScaleDB.WindowCorrection(c, 10))
	assert.Equal(t, 0.8, ScalePSD.WindowCorrection(c, 10))
	assert.InDelta(t, 0.5, ScaleLinear.QuantizationCorrection(c), 1e-12)
	assert.InDelta(t, 1/(4*math.Sqrt2/2), ScalePSD.QuantizationCorrection(c), 1e-12)

	assert.Equal(t, []float64{4, 9}, ScalePSD.Prepare([]float64{2, 3}))
	assert.InDeltaSlice(t, []float64{20, 40}, ScaleDB.Finish([]float64{10, 100}), 1e-12)
	assert.InDeltaSlice(t, []float64{10, 20}, ScalePSD.Finish([]float64{10, 100}), 1e-12)
}

func sineBatch(start, rate, freq, amp float64, n int) Batch {
	b := Batch{StartTime: start, SampleRate: rate,
		X: make([]float64, n), Y: make([]float64, n), Z: make([]float64, n)}
	for i := range n {
		s := amp * math.Sin(2*math.Pi*freq*float64(i)/rate)
		b.X[i] = s
		b.Y[i] = 0.5 * s
		b.Z[i] = 0
	}
	return b
}

func TestRunBatch(t *testing.T) {
	const (
		rate = 1000.0
		bin  = 40
	)
	freq := bin * rate / 512
	batches := []Batch{
		sineBatch(10, rate, freq, 2, 1024),
		sineBatch(20, rate, freq, 2, 100), // too short
		sineBatch(30, rate, freq, 2, 1024),
	}

	ret, err := RunBatch(batches, BatchOptions{WindowsPerBatch: 3, Workers: 2})
	require.NoError(t, err)

	assert.Equal(t, 512, ret.WindowSize)
	assert.InDelta(t, rate, ret.AverageSampleRate, 1e-9)
	assert.Len(t, ret.Bins, 257)
	assert.InDelta(t, rate/512, ret.Resolution(), 1e-12)
	assert.InDeltaSlice(t, []float64{10.256, 10.512, 10.768, 30.256, 30.512, 30.768}, ret.Time, 1e-9)
	require.Len(t, ret.Magnitude[AxisX], 6)

	idx, peak := PeakBin(ret.Magnitude[AxisX][0], ret.Bins, true)
	assert.Equal(t, bin, idx)
	assert.InDelta(t, freq, peak, 1e-9)

	mean, ok := ret.MeanSpectrum(AxisX, 0, 100, ScaleLinear)
	require.True(t, ok)
	assert.InDelta(t, 2, mean[bin], 0.02)

	meanY, ok := ret.MeanSpectrum(AxisY, 0, 100, ScaleLinear)
	require.True(t, ok)
	assert.InDelta(t, 1, meanY[bin], 0.01)

	_, ok = ret.MeanSpectrum(AxisZ, 100, 0, ScaleLinear)
	assert.False(t, ok)
}

func TestRunBatchErrors(t *testing.T) {
	b := sineBatch(0, 1000, 50, 1, 1024)

	_, err := RunBatch([]Batch{b}, BatchOptions{WindowsPerBatch: 2})
	assert.ErrorIs(t, err, ErrWindowSize)

	_, err = RunBatch([]Batch{b}, BatchOptions{WindowSize: 2048})
	assert.ErrorIs(t, err, ErrSignalTooShort)

	_, err = RunBatch(nil, BatchOptions{WindowSize: 256})
	assert.ErrorIs(t, err, ErrSignalTooShort)

	_, err = RunBatch([]Batch{b}, BatchOptions{WindowSize: 256, Window: "kaiser"})
	assert.ErrorIs(t, err, windowing.ErrUnknownType)

	assert.Equal(t, 1024, BatchWindowSize(1024, 0))
	assert.Equal(t, 512, BatchWindowSize(1024, 3))
}
