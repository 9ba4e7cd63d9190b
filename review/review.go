// Package review runs a complete notch filter review of one flight log:
// notch target tracking, gyro spectra and the estimated filtered spectra.
package review

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/RyanBlaney/notch-review/algorithms/common"
	"github.com/RyanBlaney/notch-review/algorithms/filters"
	"github.com/RyanBlaney/notch-review/algorithms/spectral"
	"github.com/RyanBlaney/notch-review/algorithms/windowing"
	"github.com/RyanBlaney/notch-review/config"
	"github.com/RyanBlaney/notch-review/logging"
	"github.com/RyanBlaney/notch-review/telemetry"
	"github.com/RyanBlaney/notch-review/tracking"
)

// Reviewer produces notch review reports
type Reviewer struct {
	config  *config.ReviewConfig
	backend spectral.Backend
	scale   spectral.AmplitudeScale
	logger  logging.Logger
}

// NewReviewer validates cfg and prepares the FFT backend
func NewReviewer(cfg *config.ReviewConfig) (*Reviewer, error) {
	if cfg == nil {
		cfg = config.DefaultReviewConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	backend, err := spectral.NewBackend(spectral.BackendType(cfg.Analysis.Backend))
	if err != nil {
		return nil, err
	}
	scale, err := spectral.ParseAmplitudeScale(cfg.Analysis.AmplitudeScale)
	if err != nil {
		return nil, err
	}

	return &Reviewer{
		config:  cfg,
		backend: backend,
		scale:   scale,
		logger: logging.WithFields(logging.Fields{
			"component": "reviewer",
		}),
	}, nil
}

// Review analyses log. Spectra are only produced when the log carries raw
// gyro data; the notch summaries only need tracking telemetry.
func (r *Reviewer) Review(ctx context.Context, log telemetry.Log) (*Report, error) {
	analysis := r.config.Analysis
	logger := r.logger.WithContext(ctx).WithFields(logging.Fields{
		"function": "Review",
	})

	gyro, err := LoadGyroBatches(log)
	if err != nil && !errors.Is(err, telemetry.ErrNoMessage) {
		return nil, err
	}
	if len(gyro) == 0 {
		logger.Info("no raw gyro data, skipping spectra")
	}

	start, end, ok := TimeRange(gyro)
	if !ok {
		start, end = analysis.TimeStart, analysis.TimeEnd
	}

	methods := tracking.Methods(log, tracking.MethodOptions{
		StartTime:      start,
		EndTime:        end,
		ESCStaleWindow: analysis.ESCStaleWindow,
	})

	groups := r.notchGroups(log)
	notches := make([]*filters.HarmonicNotch, len(groups))
	report := newReport(r.config, gyro)
	for i, g := range groups {
		notches[i] = filters.NewHarmonicNotch(g.params, r.config.FilterVersion, methods)
		report.Notches = append(report.Notches, r.summarise(log, g.index, notches[i]))
	}

	for _, inst := range slices.Sorted(maps.Keys(gyro)) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		spectra, err := r.spectrum(inst, gyro[inst], methods, notches)
		if err != nil {
			return nil, fmt.Errorf("gyro %d: %w", inst, err)
		}
		report.Spectra = append(report.Spectra, spectra...)
	}

	logger.Debug("review complete", logging.Fields{
		"notches": len(report.Notches),
		"spectra": len(report.Spectra),
	})
	return report, nil
}

// notchGroup is one harmonic notch and its filter instance number
type notchGroup struct {
	index  int
	params config.HarmonicNotchParams
}

// notchGroups returns the configured notch groups, or those logged as
// parameters when none are configured.
func (r *Reviewer) notchGroups(log telemetry.Log) []notchGroup {
	var out []notchGroup
	if len(r.config.Notches) > 0 {
		for i, p := range r.config.Notches {
			out = append(out, notchGroup{index: i, params: p})
		}
		return out
	}

	src, ok := log.(telemetry.ParamSource)
	if !ok {
		return nil
	}
	for i, prefix := range config.NotchParamPrefixes {
		if p, ok := config.LoadHarmonicNotchParams(src, prefix); ok {
			out = append(out, notchGroup{index: i, params: p})
		}
	}
	return out
}

func (r *Reviewer) summarise(log telemetry.Log, index int, n *filters.HarmonicNotch) NotchSummary {
	p := n.Params()
	s := NotchSummary{
		Index:     index + 1,
		Source:    n.Name(),
		Mode:      p.Mode,
		Enabled:   n.Enabled(),
		Dynamic:   n.Config().Dynamic(),
		Harmonics: p.HarmonicMultipliers(),
	}

	// the flight controller logs its own notch centers per filter instance
	logged := tracking.NewLogged(log, index)
	if target, ok := logged.TargetFreq(n.Config()); ok {
		if values := r.inRange(target, true); len(values) > 0 {
			mean := common.Mean(values)
			s.LoggedMean = &mean
		}
	}

	if !s.Enabled {
		return s
	}
	target, ok := n.TargetFreq()
	if !ok {
		return s
	}
	s.Tracks = len(target.Tracks())

	if values := r.inRange(target, false); len(values) > 0 {
		s.Mean = common.Mean(values)
		s.Min = floats.Min(values)
		s.Max = floats.Max(values)
	}

	if mean, ok := n.Tracking().Mean(r.config.Analysis.TimeStart, r.config.Analysis.End()); ok {
		s.SourceMean = &mean
	}
	return s
}

// inRange collects the finite target values inside the analysis time range.
// Logged multi-notch records use 0 for unused notches, which skipZero drops.
func (r *Reviewer) inRange(target tracking.TargetFreq, skipZero bool) []float64 {
	var values []float64
	for _, track := range target.Tracks() {
		for i, t := range track.Time {
			v := track.Value[i]
			if t < r.config.Analysis.TimeStart || t > r.config.Analysis.End() || math.IsNaN(v) {
				continue
			}
			if skipZero && v == 0 {
				continue
			}
			values = append(values, v)
		}
	}
	return values
}

// spectrum runs the batch FFT of one gyro and estimates the spectrum after
// the filter chain by scaling every window with the filter response at that
// window's time.
func (r *Reviewer) spectrum(inst int, batches []spectral.Batch, methods []tracking.Estimator, notches []*filters.HarmonicNotch) ([]SpectrumSummary, error) {
	analysis := r.config.Analysis
	res, err := spectral.RunBatch(batches, spectral.BatchOptions{
		WindowSize:      analysis.WindowSize,
		WindowsPerBatch: analysis.WindowsPerBatch,
		Backend:         r.backend,
		Workers:         analysis.Workers,
		Window:          windowing.Type(analysis.WindowType),
	})
	if err != nil {
		return nil, err
	}

	for _, m := range methods {
		if err := m.Interpolate(inst, res.Time); err != nil {
			return nil, err
		}
	}

	z, err := filters.NewZPoints(res.Bins, res.AverageSampleRate)
	if err != nil {
		return nil, err
	}
	chain := &filters.Response{
		LowPass: filters.NewLowPass(analysis.GyroFilterHz),
		Notches: notches,
	}
	h, err := chain.Evaluate(inst, len(res.Time), res.AverageSampleRate, z)
	if err != nil {
		return nil, err
	}
	filtered, err := applyResponse(res, h)
	if err != nil {
		return nil, err
	}
	gain, phase, err := responseSummary(h)
	if err != nil {
		return nil, err
	}

	out := make([]SpectrumSummary, 0, len(spectral.Axes))
	for _, axis := range spectral.Axes {
		pre, ok := res.MeanSpectrum(axis, analysis.TimeStart, analysis.End(), r.scale)
		if !ok {
			continue
		}
		post, _ := filtered.MeanSpectrum(axis, analysis.TimeStart, analysis.End(), r.scale)

		s := SpectrumSummary{
			Gyro:       inst,
			Axis:       axis,
			Windows:    len(res.Time),
			WindowSize: res.WindowSize,
			SampleRate: res.AverageSampleRate,
			Unit:       r.scale.Unit(),
		}
		if idx, hz := spectral.PeakBin(pre, res.Bins, true); idx >= 0 {
			s.PeakHz, s.PeakAmplitude = hz, finite(pre[idx])
			s.Attenuation = finite(20 * math.Log10(gain[idx]))
			s.PhaseLag = finite(-phase[idx])
		}
		if idx, hz := spectral.PeakBin(post, res.Bins, true); idx >= 0 {
			s.FilteredPeakHz, s.FilteredPeakAmplitude = hz, finite(post[idx])
		}
		out = append(out, s)
	}
	return out, nil
}

// applyResponse returns a copy of res with window i scaled by |h[i]|
func applyResponse(res *spectral.BatchResult, h []common.Complex) (*spectral.BatchResult, error) {
	out := *res
	out.Magnitude = make(map[spectral.Axis][][]float64, len(res.Magnitude))
	for axis, windows := range res.Magnitude {
		scaled := make([][]float64, len(windows))
		for i, mag := range windows {
			gain, err := common.ComplexAbs(h[i])
			if err != nil {
				return nil, err
			}
			if scaled[i], err = common.Mul(mag, gain); err != nil {
				return nil, err
			}
		}
		out.Magnitude[axis] = scaled
	}
	return &out, nil
}

// finite maps NaN and infinities, which JSON cannot carry, to 0
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// responseSummary returns the filter gain averaged over every window and the
// unwrapped phase in degrees of the middle window.
func responseSummary(h []common.Complex) (gain, phase []float64, err error) {
	if len(h) == 0 {
		return nil, nil, errors.New("empty filter response")
	}
	for _, step := range h {
		mag, err := common.ComplexAbs(step)
		if err != nil {
			return nil, nil, err
		}
		if gain == nil {
			gain = mag
			continue
		}
		if gain, err = common.Add(gain, mag); err != nil {
			return nil, nil, err
		}
	}
	gain = common.Scale(gain, 1/float64(len(h)))

	rad, err := common.ComplexPhase(h[len(h)/2])
	if err != nil {
		return nil, nil, err
	}
	return gain, spectral.UnwrapPhaseDegrees(common.Scale(rad, 180/math.Pi)), nil
}

func newReport(cfg *config.ReviewConfig, gyro map[int][]spectral.Batch) *Report {
	samples := 0
	var duration time.Duration
	if start, end, ok := TimeRange(gyro); ok {
		duration = time.Duration((end - start) * float64(time.Second))
	}
	for _, batches := range gyro {
		for _, b := range batches {
			samples += len(b.X)
		}
	}

	return &Report{
		ID:            generateID(cfg.LogPath, samples),
		LogPath:       cfg.LogPath,
		Generated:     time.Now(),
		Duration:      duration,
		FilterVersion: int(cfg.FilterVersion),
		Metadata: map[string]any{
			"gyro_sensors":    len(gyro),
			"gyro_samples":    samples,
			"fft_backend":     cfg.Analysis.Backend,
			"window_type":     cfg.Analysis.WindowType,
			"amplitude_scale": cfg.Analysis.AmplitudeScale,
		},
	}
}
