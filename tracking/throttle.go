package tracking

import (
	"math"

	"github.com/RyanBlaney/notch-review/config"
	"github.com/RyanBlaney/notch-review/logging"
	"github.com/RyanBlaney/notch-review/telemetry"
)

// Throttle estimates motor speed from throttle. The aggregate track is the
// logged rate controller output; when the log also carries parameters the
// thrust of each motor is rebuilt for dynamic notches.
type Throttle struct {
	source
}

// NewThrottle reads RATE.AOut from log. Per-motor thrust is only available
// when log also implements telemetry.ParamSource.
func NewThrottle(log telemetry.Log) *Throttle {
	t := &Throttle{source: newSource("Throttle", ModeThrottle)}

	if _, ok := telemetry.Lookup(log, "RATE"); ok {
		series, err := readSeries(log, "RATE", "AOut")
		if err != nil {
			t.logger.Warn("unreadable throttle output", logging.Fields{"error": err.Error()})
		} else {
			t.aggregate = series
		}
	}

	params, ok := log.(telemetry.ParamSource)
	if !ok {
		t.logger.Debug("no parameters, per motor throttle unavailable")
		return t
	}
	motors, err := MotorThrust(log, params)
	if err != nil {
		t.logger.Debug("per motor throttle unavailable", logging.Fields{"reason": err.Error()})
		return t
	}
	t.instances = motors
	return t
}

// NumMotors returns the number of motors with rebuilt thrust
func (t *Throttle) NumMotors() int {
	return len(t.instances)
}

// HasData reports whether a track is available. Dynamic notches also need
// per-motor thrust, which only version 2 firmware uses.
func (t *Throttle) HasData(cfg config.NotchConfig) bool {
	if cfg.Dynamic() && (len(t.instances) == 0 || cfg.FilterVersion != config.FilterV2) {
		return false
	}
	return !t.aggregate.Empty()
}

// Target maps a throttle level to a notch frequency. The notch scales with
// the square root of throttle relative to the reference (hover) throttle.
// Version 1 firmware never goes below MinRatio of the configured frequency.
func (t *Throttle) Target(cfg config.NotchConfig, throttle float64) float64 {
	if !cfg.Tracked() {
		return cfg.Freq
	}
	norm := throttleNorm(throttle, cfg.Ref)
	if cfg.FilterVersion == config.FilterV2 {
		return cfg.Freq * norm
	}
	return cfg.Freq * math.Max(cfg.MinRatio, norm)
}

func (t *Throttle) TargetFreq(cfg config.NotchConfig) (TargetFreq, bool) {
	if !t.HasData(cfg) {
		return TargetFreq{}, false
	}
	return t.target(cfg.Dynamic(), func(v float64) float64 { return t.Target(cfg, v) }), true
}

func (t *Throttle) InterpolatedTargetFreq(instance, index int, cfg config.NotchConfig) ([]float64, bool) {
	return t.interpolatedTarget(instance, index, cfg.Dynamic(), func(v float64) float64 {
		return t.Target(cfg, v)
	})
}
