package tracking

import (
	"github.com/RyanBlaney/notch-review/config"
	"github.com/RyanBlaney/notch-review/logging"
	"github.com/RyanBlaney/notch-review/telemetry"
)

// FFT tracks the peaks found by the flight controller's in-flight FFT. The
// aggregate track is the logged average peak; dynamic notches follow each
// logged peak separately.
type FFT struct {
	source
}

// NewFFT reads the FTN1 average peak and the FTN2 per-peak records from log
func NewFFT(log telemetry.Log) *FFT {
	f := &FFT{source: newSource("FFT", ModeFFT)}

	if _, ok := telemetry.Lookup(log, "FTN1"); ok {
		series, err := readSeries(log, "FTN1", "PkAvg")
		if err != nil {
			f.logger.Warn("unreadable fft average peak", logging.Fields{"error": err.Error()})
		} else {
			f.aggregate = series
		}
	}

	msg, ok := telemetry.Lookup(log, "FTN2")
	if !ok || !msg.Instanced() {
		return f
	}
	for _, inst := range msg.Instances {
		series, err := readPeak(log, inst)
		if err != nil {
			f.logger.Warn("skipping fft peak", logging.Fields{
				"instance": inst,
				"error":    err.Error(),
			})
			continue
		}
		f.instances = append(f.instances, series)
	}
	return f
}

func readPeak(log telemetry.Log, inst int) (Series, error) {
	t, err := telemetry.InstanceSeconds(log, "FTN2", inst)
	if err != nil {
		return Series{}, err
	}
	cols := make(map[string][]float64, 4)
	for _, field := range []string{"EnX", "EnY", "PkX", "PkY"} {
		v, err := log.GetInstance("FTN2", inst, field)
		if err != nil {
			return Series{}, err
		}
		if err := checkColumn("FTN2", field, t, v); err != nil {
			return Series{}, err
		}
		cols[field] = v
	}

	freq := make([]float64, len(t))
	for j := range freq {
		freq[j] = WeightedPeak(cols["PkX"][j], cols["EnX"][j], cols["PkY"][j], cols["EnY"][j])
	}
	return Series{Time: t, Value: freq}, nil
}

// WeightedPeak combines the X and Y axis peaks of one FFT frame into a
// single frequency, weighting each by its energy. Without positive energy
// on both axes the plain average is used.
func WeightedPeak(freqX, energyX, freqY, energyY float64) float64 {
	if energyX > 0 && energyY > 0 {
		return (freqX*energyX + freqY*energyY) / (energyX + energyY)
	}
	return (freqX + freqY) * 0.5
}

// NumPeaks returns the number of tracked FFT peaks
func (f *FFT) NumPeaks() int {
	return len(f.instances)
}

// HasData reports whether the track cfg selects was logged
func (f *FFT) HasData(cfg config.NotchConfig) bool {
	if cfg.Dynamic() {
		return len(f.instances) > 0
	}
	return !f.aggregate.Empty()
}

func (f *FFT) TargetFreq(cfg config.NotchConfig) (TargetFreq, bool) {
	if !f.HasData(cfg) {
		return TargetFreq{}, false
	}
	return f.target(cfg.Dynamic(), func(v float64) float64 { return frequencyTarget(cfg, v) }), true
}

func (f *FFT) InterpolatedTargetFreq(instance, index int, cfg config.NotchConfig) ([]float64, bool) {
	return f.interpolatedTarget(instance, index, cfg.Dynamic(), func(v float64) float64 {
		return frequencyTarget(cfg, v)
	})
}
