package filters

import (
	"github.com/RyanBlaney/notch-review/config"
	"github.com/RyanBlaney/notch-review/logging"
	"github.com/RyanBlaney/notch-review/tracking"
)

// HarmonicNotch is one harmonic notch filter group. Its center frequency
// follows the tracking source selected by the MODE parameter.
type HarmonicNotch struct {
	params   config.HarmonicNotchParams
	version  config.FilterVersion
	tracking tracking.Estimator
	notches  []centered
}

// NewHarmonicNotch builds the notch stages for params. The tracking source is
// picked from methods by mode; an unknown mode or a source without data
// leaves the filter disabled.
func NewHarmonicNotch(params config.HarmonicNotchParams, version config.FilterVersion, methods []tracking.Estimator) *HarmonicNotch {
	h := &HarmonicNotch{params: params, version: version}
	logger := logging.WithFields(logging.Fields{
		"component": "harmonic_notch",
		"mode":      params.Mode,
	})

	est, ok := tracking.Select(methods, tracking.Mode(params.Mode))
	if !ok {
		if params.Enabled() {
			logger.Warn("unsupported notch mode")
		}
		return h
	}
	h.tracking = est
	if params.Enabled() && !est.HasData(h.Config()) {
		logger.Warn("no tracking data for notch", logging.Fields{"source": est.Name()})
	}
	if !h.Enabled() {
		return h
	}

	num := params.NotchesPerHarmonic()
	for _, harmonic := range params.HarmonicMultipliers() {
		mul := float64(harmonic)
		bw := params.Bandwidth * mul
		if num == 1 {
			h.notches = append(h.notches, NewNotch(params.Attenuation, bw, mul))
		} else {
			h.notches = append(h.notches, NewMultiNotch(params.Attenuation, bw, mul, num))
		}
	}
	return h
}

// Params returns the parameter group the filter was built from
func (h *HarmonicNotch) Params() config.HarmonicNotchParams {
	return h.params
}

// Config returns the target policy inputs of the filter
func (h *HarmonicNotch) Config() config.NotchConfig {
	return h.params.NotchConfig(h.version)
}

// Enabled reports whether the filter is switched on and has tracking data
func (h *HarmonicNotch) Enabled() bool {
	return h.params.Enabled() && h.tracking != nil && h.tracking.HasData(h.Config())
}

// Static reports whether the center frequency is fixed in flight
func (h *HarmonicNotch) Static() bool {
	return h.tracking != nil && h.tracking.Mode() == tracking.ModeStatic
}

// Name is the name of the tracking source, empty without one
func (h *HarmonicNotch) Name() string {
	if h.tracking == nil {
		return ""
	}
	return h.tracking.Name()
}

// Tracking returns the selected tracking source, nil when the mode is unknown
func (h *HarmonicNotch) Tracking() tracking.Estimator {
	return h.tracking
}

// TargetFreq returns the fundamental target frequency track
func (h *HarmonicNotch) TargetFreq() (tracking.TargetFreq, bool) {
	if h.tracking == nil {
		return tracking.TargetFreq{}, false
	}
	return h.tracking.TargetFreq(h.Config())
}

// Apply multiplies every notch into t for each target frequency at index of
// the times instance was interpolated onto. Dynamic notches place one set
// of notches per tracked motor or peak.
func (h *HarmonicNotch) Apply(t Transfer, instance, index int, sampleRate float64, z ZPoints) {
	if !h.Enabled() {
		return
	}
	freq, ok := h.tracking.InterpolatedTargetFreq(instance, index, h.Config())
	if !ok {
		return
	}
	for _, n := range h.notches {
		for _, f := range freq {
			n.Apply(t, f, sampleRate, z)
		}
	}
}
