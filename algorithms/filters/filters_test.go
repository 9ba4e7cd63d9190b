package filters

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/notch-review/algorithms/common"
	"github.com/RyanBlaney/notch-review/config"
	"github.com/RyanBlaney/notch-review/telemetry"
	"github.com/RyanBlaney/notch-review/tracking"
)

func magnitude(t *testing.T, h common.Complex) []float64 {
	t.Helper()
	mag, err := common.ComplexAbs(h)
	require.NoError(t, err)
	return mag
}

func respond(t *testing.T, sampleRate float64, freq []float64, apply func(Transfer, ZPoints)) []float64 {
	t.Helper()
	z, err := NewZPoints(freq, sampleRate)
	require.NoError(t, err)
	tr := NewTransfer(z.Len())
	apply(tr, z)
	h, err := tr.H()
	require.NoError(t, err)
	return magnitude(t, h)
}

func TestZPoints(t *testing.T) {
	z, err := NewZPoints([]float64{0, 250}, 1000)
	require.NoError(t, err)
	assert.Equal(t, 2, z.Len())

	assert.InDeltaSlice(t, []float64{1, 0}, z.Z1.Re, 1e-12)
	assert.InDeltaSlice(t, []float64{0, -1}, z.Z1.Im, 1e-12)
	assert.InDeltaSlice(t, []float64{1, -1}, z.Z2.Re, 1e-12)
	assert.InDeltaSlice(t, []float64{0, 0}, z.Z2.Im, 1e-12)
}

func TestFrequencyRange(t *testing.T) {
	assert.InDeltaSlice(t, []float64{0, 0.25, 0.5, 0.75, 1}, FrequencyRange(1, 0.25), 1e-12)
	assert.Len(t, FrequencyRange(100, 0.05), 2001)
	assert.Nil(t, FrequencyRange(1, 0))
}

func TestLowPass(t *testing.T) {
	lp := NewLowPass(100)
	require.True(t, lp.Enabled())

	mag := respond(t, 1000, []float64{0, 100, 400}, func(tr Transfer, z ZPoints) {
		lp.Apply(tr, 1000, z)
	})
	assert.InDelta(t, 1, mag[0], 1e-12)
	assert.InDelta(t, math.Sqrt2/2, mag[1], 1e-9)
	assert.Less(t, mag[2], 0.1)

	// disabled filters leave the response untouched
	mag = respond(t, 1000, []float64{0, 100}, func(tr Transfer, z ZPoints) {
		NewLowPass(0).Apply(tr, 1000, z)
		var nilFilter *LowPass
		nilFilter.Apply(tr, 1000, z)
	})
	assert.InDeltaSlice(t, []float64{1, 1}, mag, 1e-12)
}

func TestNotch(t *testing.T) {
	n := NewNotch(40, 20, 1)
	mag := respond(t, 1000, []float64{0, 100, 300}, func(tr Transfer, z ZPoints) {
		n.Apply(tr, 100, 1000, z)
	})
	assert.InDelta(t, 1, mag[0], 1e-9)
	assert.InDelta(t, 0.01, mag[1], 1e-6)
	assert.Greater(t, mag[2], 0.9)

	// harmonic multiplies the center
	h2 := NewNotch(40, 20, 2)
	mag = respond(t, 1000, []float64{200}, func(tr Transfer, z ZPoints) {
		h2.Apply(tr, 100, 1000, z)
	})
	assert.InDelta(t, 0.01, mag[0], 1e-6)
}

func TestNotchOutOfRange(t *testing.T) {
	n := NewNotch(40, 20, 1)
	_, _, _, _, _, _, ok := n.Coefficients(10, 1000)
	assert.False(t, ok)
	_, _, _, _, _, _, ok = n.Coefficients(500, 1000)
	assert.False(t, ok)
	_, _, _, _, _, _, ok = n.Coefficients(math.NaN(), 1000)
	assert.False(t, ok)

	mag := respond(t, 1000, []float64{0, 10, 499}, func(tr Transfer, z ZPoints) {
		n.Apply(tr, 600, 1000, z)
	})
	assert.InDeltaSlice(t, []float64{1, 1, 1}, mag, 1e-12)
}

func TestMultiNotchCenters(t *testing.T) {
	double := NewMultiNotch(40, 40, 1, 2)
	assert.InDeltaSlice(t, []float64{98.75, 101.25}, double.Centers(100, 1000), 1e-9)

	triple := NewMultiNotch(40, 40, 1, 3)
	assert.InDeltaSlice(t, []float64{98.75, 101.25, 100}, triple.Centers(100, 1000), 1e-9)

	// low centers are lifted to the bandwidth limit
	assert.InDeltaSlice(t, []float64{18.2, 23.4}, double.Centers(10, 1000), 1e-9)

	mag := respond(t, 1000, []float64{0, 100}, func(tr Transfer, z ZPoints) {
		triple.Apply(tr, 100, 1000, z)
	})
	assert.InDelta(t, 1, mag[0], 1e-9)
	assert.Less(t, mag[1], 0.01)
}

func staticParams() config.HarmonicNotchParams {
	return config.HarmonicNotchParams{
		Enable:      1,
		Mode:        int(tracking.ModeStatic),
		Freq:        100,
		Bandwidth:   20,
		Attenuation: 40,
		Ref:         1,
		MinRatio:    1,
		Harmonics:   0b11,
	}
}

func TestHarmonicNotchStatic(t *testing.T) {
	methods := []tracking.Estimator{tracking.NewStatic(0, 10)}
	h := NewHarmonicNotch(staticParams(), config.FilterV2, methods)
	require.True(t, h.Enabled())
	assert.True(t, h.Static())
	assert.Equal(t, "Static", h.Name())

	target, ok := h.TargetFreq()
	require.True(t, ok)
	assert.Equal(t, []float64{100, 100}, target.Aggregate.Value)

	z, err := NewZPoints([]float64{0, 100, 200}, 1000)
	require.NoError(t, err)
	r := &Response{Notches: []*HarmonicNotch{h}}
	resp, err := r.Evaluate(0, 2, 1000, z)
	require.NoError(t, err)
	require.Len(t, resp, 2)

	for _, step := range resp {
		mag := magnitude(t, step)
		assert.InDelta(t, 1, mag[0], 1e-9)
		assert.Less(t, mag[1], 0.02)
		assert.Less(t, mag[2], 0.02)
	}
}

func TestHarmonicNotchTracksRPM(t *testing.T) {
	log := telemetry.NewMemoryLog().AddSeries("RPM", map[string][]float64{
		"TimeUS": {0, 1e6},
		"rpm1":   {6000, 12000},
	})
	methods := tracking.Methods(log, tracking.MethodOptions{EndTime: 1})
	for _, m := range methods {
		require.NoError(t, m.Interpolate(0, []float64{0, 1}))
	}

	params := staticParams()
	params.Mode = int(tracking.ModeRPM1)
	params.Freq = 50
	params.Harmonics = 1
	h := NewHarmonicNotch(params, config.FilterV2, methods)
	require.True(t, h.Enabled())
	assert.False(t, h.Static())
	assert.Equal(t, "RPM1", h.Name())

	z, err := NewZPoints([]float64{100, 200}, 1000)
	require.NoError(t, err)
	r := &Response{LowPass: NewLowPass(0), Notches: []*HarmonicNotch{h}}
	resp, err := r.Evaluate(0, 2, 1000, z)
	require.NoError(t, err)

	first := magnitude(t, resp[0])
	second := magnitude(t, resp[1])
	assert.InDelta(t, 0.01, first[0], 1e-6)
	assert.Greater(t, first[1], 0.9)
	assert.InDelta(t, 0.01, second[1], 1e-6)
	assert.Greater(t, second[0], 0.9)
}

func TestHarmonicNotchDouble(t *testing.T) {
	params := staticParams()
	params.Harmonics = 1
	params.Options = config.OptionDoubleNotch
	h := NewHarmonicNotch(params, config.FilterV1, []tracking.Estimator{tracking.NewStatic(0, 1)})

	mag := respond(t, 1000, []float64{0, 100}, func(tr Transfer, z ZPoints) {
		h.Apply(tr, 0, 0, 1000, z)
	})
	assert.InDelta(t, 1, mag[0], 1e-9)
	assert.Less(t, mag[1], 0.1)
}

func TestHarmonicNotchDisabled(t *testing.T) {
	methods := tracking.Methods(telemetry.NewMemoryLog(), tracking.MethodOptions{EndTime: 1})

	off := staticParams()
	off.Enable = 0
	assert.False(t, NewHarmonicNotch(off, config.FilterV2, methods).Enabled())

	unknown := staticParams()
	unknown.Mode = 9
	h := NewHarmonicNotch(unknown, config.FilterV2, methods)
	assert.False(t, h.Enabled())
	assert.Nil(t, h.Tracking())
	assert.Equal(t, "", h.Name())
	_, ok := h.TargetFreq()
	assert.False(t, ok)

	// RPM selected but not logged
	noData := staticParams()
	noData.Mode = int(tracking.ModeRPM1)
	h = NewHarmonicNotch(noData, config.FilterV2, methods)
	assert.False(t, h.Enabled())

	r := &Response{Notches: []*HarmonicNotch{h}}
	assert.Empty(t, r.Enabled())
}

func TestResponseLowPassOnly(t *testing.T) {
	z, err := NewZPoints([]float64{0, 100}, 1000)
	require.NoError(t, err)
	r := &Response{LowPass: NewLowPass(100)}

	resp, err := r.Evaluate(0, 1, 1000, z)
	require.NoError(t, err)
	mag := magnitude(t, resp[0])
	assert.InDelta(t, 1, mag[0], 1e-12)
	assert.InDelta(t, math.Sqrt2/2, mag[1], 1e-9)

	resp, err = r.Evaluate(0, 0, 1000, z)
	require.NoError(t, err)
	assert.Empty(t, resp)
}
