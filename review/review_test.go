package review

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/notch-review/algorithms/common"
	"github.com/RyanBlaney/notch-review/algorithms/spectral"
	"github.com/RyanBlaney/notch-review/config"
	"github.com/RyanBlaney/notch-review/telemetry"
)

func rampUS(start float64, n int, stepUS float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*stepUS
	}
	return out
}

func index(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i)
	}
	return out
}

func TestSplitBatches(t *testing.T) {
	us := append(rampUS(0, 200, 1000), rampUS(300000, 100, 1000)...)
	v := index(len(us))

	batches := SplitBatches(us, v, v, v)
	require.Len(t, batches, 2)

	assert.Len(t, batches[0].X, 200)
	assert.InDelta(t, 1000, batches[0].SampleRate, 1e-9)
	assert.InDelta(t, 0, batches[0].StartTime, 1e-12)
	assert.Equal(t, 0.0, batches[0].X[0])

	// the final sample closes the last batch
	assert.Len(t, batches[1].X, 99)
	assert.InDelta(t, 1000, batches[1].SampleRate, 1e-9)
	assert.InDelta(t, 0.3, batches[1].StartTime, 1e-12)
	assert.Equal(t, 200.0, batches[1].X[0])
}

func TestSplitBatchesDropsShortRuns(t *testing.T) {
	us := append(rampUS(0, 30, 1000), rampUS(100000, 150, 500)...)
	v := index(len(us))

	batches := SplitBatches(us, v, v, v)
	require.Len(t, batches, 1)
	assert.InDelta(t, 2000, batches[0].SampleRate, 1e-9)
	assert.InDelta(t, 0.1, batches[0].StartTime, 1e-12)

	assert.Empty(t, SplitBatches(nil, nil, nil, nil))
}

func TestTimeRange(t *testing.T) {
	_, _, ok := TimeRange(nil)
	assert.False(t, ok)

	gyro := map[int][]spectral.Batch{
		0: {{StartTime: 2, SampleRate: 100, X: make([]float64, 100)}},
		1: {
			{StartTime: 1, SampleRate: 100, X: make([]float64, 50)},
			{StartTime: 5, SampleRate: 200, X: make([]float64, 400)},
		},
	}
	start, end, ok := TimeRange(gyro)
	require.True(t, ok)
	assert.Equal(t, 1.0, start)
	assert.Equal(t, 7.0, end)
}

func TestLoadGyroBatches(t *testing.T) {
	_, err := LoadGyroBatches(telemetry.NewMemoryLog())
	assert.ErrorIs(t, err, telemetry.ErrNoMessage)

	n := 100
	zeros := make([]float64, n)
	log := telemetry.NewMemoryLog().
		AddInstanceSeries("GYR", 0, map[string][]float64{
			"SampleUS": rampUS(0, n, 1000), "GyrX": zeros, "GyrY": zeros, "GyrZ": zeros,
		}).
		AddInstanceSeries("GYR", 1, map[string][]float64{
			"SampleUS": rampUS(0, n, 500), "GyrX": zeros, "GyrY": zeros, "GyrZ": zeros,
		})

	gyro, err := LoadGyroBatches(log)
	require.NoError(t, err)
	require.Len(t, gyro, 2)
	assert.InDelta(t, 1000, gyro[0][0].SampleRate, 1e-9)
	assert.InDelta(t, 2000, gyro[1][0].SampleRate, 1e-9)

	missing := telemetry.NewMemoryLog().AddSeries("GYR", map[string][]float64{"SampleUS": zeros})
	_, err = LoadGyroBatches(missing)
	assert.ErrorIs(t, err, telemetry.ErrNoField)
}

// gyroColumns is a log holding one plain GYR message whose columns may
// differ in length.
type gyroColumns map[string][]float64

func (g gyroColumns) MessageTypes() map[string]telemetry.MessageType {
	return map[string]telemetry.MessageType{"GYR": {Fields: []string{"SampleUS", "GyrX", "GyrY", "GyrZ"}}}
}

func (g gyroColumns) Get(msg, field string) ([]float64, error) {
	return g[field], nil
}

func (g gyroColumns) GetInstance(msg string, instance int, field string) ([]float64, error) {
	return nil, telemetry.ErrNoInstance
}

func TestLoadGyroBatchesRagged(t *testing.T) {
	n := 100
	log := gyroColumns{
		"SampleUS": rampUS(0, n, 1000),
		"GyrX":     make([]float64, n),
		"GyrY":     make([]float64, n-1),
		"GyrZ":     make([]float64, n),
	}
	var err error
	require.NotPanics(t, func() { _, err = LoadGyroBatches(log) })
	assert.ErrorIs(t, err, common.ErrLengthMismatch)
}

// sineLog holds 2048 raw gyro samples at 1 kHz with a 125 Hz tone on X and Y
func sineLog() *telemetry.MemoryLog {
	const n = 2048
	x := make([]float64, n)
	y := make([]float64, n)
	for i := range x {
		s := math.Sin(2 * math.Pi * 125 * float64(i) / 1000)
		x[i], y[i] = s, 0.5*s
	}
	return telemetry.NewMemoryLog().AddSeries("GYR", map[string][]float64{
		"SampleUS": rampUS(0, n, 1000),
		"GyrX":     x,
		"GyrY":     y,
		"GyrZ":     make([]float64, n),
	})
}

func staticNotchConfig() *config.ReviewConfig {
	cfg := config.DefaultReviewConfig()
	cfg.LogPath = "flight.db"
	cfg.Analysis.WindowSize = 256
	cfg.Analysis.GyroFilterHz = 0
	cfg.Notches = []config.HarmonicNotchParams{{
		Enable:      1,
		Mode:        0,
		Freq:        125,
		Bandwidth:   25,
		Attenuation: 40,
		Harmonics:   1,
	}}
	return cfg
}

func TestReview(t *testing.T) {
	r, err := NewReviewer(staticNotchConfig())
	require.NoError(t, err)

	report, err := r.Review(context.Background(), sineLog())
	require.NoError(t, err)

	assert.Len(t, report.ID, 16)
	assert.Equal(t, "flight.db", report.LogPath)
	assert.Equal(t, 2, report.FilterVersion)
	// the closing sample of the stream ends the batch
	assert.Equal(t, 2047, report.Metadata["gyro_samples"])

	require.Len(t, report.Notches, 1)
	n := report.Notches[0]
	assert.Equal(t, "Static", n.Source)
	assert.True(t, n.Enabled)
	assert.Equal(t, 1, n.Tracks)
	assert.Equal(t, 125.0, n.Mean)
	assert.Equal(t, 125.0, n.Min)
	assert.Equal(t, 125.0, n.Max)
	assert.Nil(t, n.SourceMean)

	require.Len(t, report.Spectra, 3)
	x := report.Spectra[0]
	assert.Equal(t, spectral.AxisX, x.Axis)
	assert.Equal(t, 256, x.WindowSize)
	assert.InDelta(t, 1000, x.SampleRate, 1e-9)
	assert.InDelta(t, 125, x.PeakHz, 1e-9)
	assert.InDelta(t, 1, x.PeakAmplitude, 0.02)
	assert.Less(t, x.FilteredPeakAmplitude, 0.5*x.PeakAmplitude)

	assert.InDelta(t, -40, x.Attenuation, 0.5)

	y := report.Spectra[1]
	assert.InDelta(t, 0.5, y.PeakAmplitude, 0.01)
}

func TestReviewLoggedNotch(t *testing.T) {
	log := sineLog().AddInstanceSeries("FTNS", 0, map[string][]float64{
		"TimeUS": {0, 1e6},
		"NF":     {120, 130},
	})

	r, err := NewReviewer(staticNotchConfig())
	require.NoError(t, err)
	report, err := r.Review(context.Background(), log)
	require.NoError(t, err)

	require.Len(t, report.Notches, 1)
	require.NotNil(t, report.Notches[0].LoggedMean)
	assert.InDelta(t, 125, *report.Notches[0].LoggedMean, 1e-9)

	var text bytes.Buffer
	require.NoError(t, report.WriteText(&text))
	assert.Contains(t, text.String(), "logged 125 Hz mean")
}

func TestReviewWithoutGyro(t *testing.T) {
	cfg := staticNotchConfig()
	cfg.Analysis.TimeEnd = 10

	r, err := NewReviewer(cfg)
	require.NoError(t, err)

	report, err := r.Review(context.Background(), telemetry.NewMemoryLog())
	require.NoError(t, err)
	assert.Empty(t, report.Spectra)
	require.Len(t, report.Notches, 1)
	assert.Equal(t, 125.0, report.Notches[0].Mean)
}

func TestReviewLoggedParams(t *testing.T) {
	cfg := config.DefaultReviewConfig()
	cfg.Analysis.WindowSize = 256

	log := sineLog().
		SetParam("INS_HNTCH_ENABLE", 1).
		SetParam("INS_HNTCH_MODE", 1).
		SetParam("INS_HNTC2_ENABLE", 0)

	r, err := NewReviewer(cfg)
	require.NoError(t, err)
	report, err := r.Review(context.Background(), log)
	require.NoError(t, err)

	require.Len(t, report.Notches, 2)
	// throttle tracking without RATE logging has nothing to follow
	assert.False(t, report.Notches[0].Enabled)
	assert.Equal(t, "Throttle", report.Notches[0].Source)
	assert.Zero(t, report.Notches[0].Tracks)
	assert.False(t, report.Notches[1].Enabled)
}

func TestReviewCancelled(t *testing.T) {
	r, err := NewReviewer(staticNotchConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Review(ctx, sineLog())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewReviewerInvalid(t *testing.T) {
	cfg := config.DefaultReviewConfig()
	cfg.Analysis.Backend = "fftw"
	_, err := NewReviewer(cfg)
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestReportWriters(t *testing.T) {
	r, err := NewReviewer(staticNotchConfig())
	require.NoError(t, err)
	report, err := r.Review(context.Background(), sineLog())
	require.NoError(t, err)

	var text bytes.Buffer
	require.NoError(t, report.WriteText(&text))
	out := text.String()
	assert.True(t, strings.HasPrefix(out, "Notch review "+report.ID))
	assert.Contains(t, out, "#1 Static")
	assert.Contains(t, out, "125 Hz")
	assert.Contains(t, out, "gyro samples:   2,047")

	var buf bytes.Buffer
	require.NoError(t, report.WriteJSON(&buf))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, report.ID, decoded["id"])
	assert.Len(t, decoded["spectra"], 3)
}
