package tracking

import (
	"fmt"
	"sort"

	"github.com/RyanBlaney/notch-review/algorithms/common"
	"github.com/RyanBlaney/notch-review/config"
	"github.com/RyanBlaney/notch-review/logging"
	"github.com/RyanBlaney/notch-review/telemetry"
)

// DefaultESCStaleWindow is how long, in seconds, an ESC report counts
// towards the average before it must be refreshed.
const DefaultESCStaleWindow = 1.0

// ESC tracks motor speed reported by ESC telemetry. Each ESC instance is a
// separate motor; the aggregate track is their running average.
type ESC struct {
	source
	staleWindow float64
}

// ESCOption configures an ESC estimator
type ESCOption func(*ESC)

// WithStaleWindow sets how long a motor report stays usable for averaging
func WithStaleWindow(seconds float64) ESCOption {
	return func(e *ESC) {
		if seconds > 0 {
			e.staleWindow = seconds
		}
	}
}

// NewESC reads every ESC instance in log as a motor frequency in Hz.
func NewESC(log telemetry.Log, opts ...ESCOption) *ESC {
	e := &ESC{
		source:      newSource("ESC", ModeESC),
		staleWindow: DefaultESCStaleWindow,
	}
	for _, opt := range opts {
		opt(e)
	}

	msg, ok := telemetry.Lookup(log, "ESC")
	if !ok || !msg.Instanced() {
		e.logger.Debug("no esc telemetry")
		return e
	}

	for _, inst := range msg.Instances {
		series, err := readInstanceSeries(log, "ESC", inst, "RPM")
		if err != nil {
			e.logger.Warn("skipping esc instance", logging.Fields{
				"instance": inst,
				"error":    err.Error(),
			})
			continue
		}
		series.Value = common.Scale(series.Value, 1.0/60)
		e.instances = append(e.instances, series)
	}

	e.aggregate = MergeAverage(e.instances, e.staleWindow)
	e.logger.Debug("loaded esc telemetry", logging.Fields{
		"motors":  len(e.instances),
		"samples": e.aggregate.Len(),
	})
	return e
}

// NumMotors returns the number of ESC instances found in the log
func (e *ESC) NumMotors() int {
	return len(e.instances)
}

// MergeAverage combines per-motor tracks into one average track.
//
// Samples from all instances are visited in time order. Each sample stores a
// fresh value for its instance; values older than staleWindow seconds are
// dropped. Once every instance seen so far holds a fresh value, their mean
// is emitted at the current time and all values are consumed. Non-finite
// samples, and samples past the shorter of Time and Value, are ignored.
func MergeAverage(instances []Series, staleWindow float64) Series {
	type sample struct {
		t, v float64
		inst int
	}
	var samples []sample
	for inst, s := range instances {
		for i := range min(len(s.Time), len(s.Value)) {
			if finite(s.Value[i]) {
				samples = append(samples, sample{t: s.Time[i], v: s.Value[i], inst: inst})
			}
		}
	}
	sort.SliceStable(samples, func(i, j int) bool { return samples[i].t < samples[j].t })

	type slot struct {
		value    float64
		time     float64
		fresh    bool
		expected bool
	}
	slots := make([]slot, len(instances))

	var out Series
	for _, s := range samples {
		slots[s.inst] = slot{value: s.v, time: s.t, fresh: true, expected: true}

		count, expected := 0, 0
		sum := 0.0
		for i := range slots {
			if slots[i].fresh && s.t-slots[i].time > staleWindow {
				slots[i].fresh = false
			}
			if slots[i].expected {
				expected++
			}
			if slots[i].fresh {
				count++
				sum += slots[i].value
			}
		}

		if count > 0 && count == expected {
			out.Time = append(out.Time, s.t)
			out.Value = append(out.Value, sum/float64(count))
			for i := range slots {
				slots[i].fresh = false
			}
		}
	}
	return out
}

func (e *ESC) HasData(config.NotchConfig) bool {
	return len(e.instances) > 0
}

func (e *ESC) TargetFreq(cfg config.NotchConfig) (TargetFreq, bool) {
	if !e.HasData(cfg) {
		return TargetFreq{}, false
	}
	return e.target(cfg.Dynamic(), func(v float64) float64 { return frequencyTarget(cfg, v) }), true
}

func (e *ESC) InterpolatedTargetFreq(instance, index int, cfg config.NotchConfig) ([]float64, bool) {
	return e.interpolatedTarget(instance, index, cfg.Dynamic(), func(v float64) float64 {
		return frequencyTarget(cfg, v)
	})
}

// Mean returns the average motor speed in RPM over [start, end]
func (e *ESC) Mean(start, end float64) (float64, bool) {
	hz, ok := e.source.Mean(start, end)
	if !ok {
		return 0, false
	}
	return hz * 60, true
}

func (e *ESC) String() string {
	return fmt.Sprintf("ESC(%d motors)", e.NumMotors())
}
