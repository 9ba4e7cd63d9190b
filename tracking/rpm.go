package tracking

import (
	"fmt"

	"github.com/RyanBlaney/notch-review/config"
	"github.com/RyanBlaney/notch-review/logging"
	"github.com/RyanBlaney/notch-review/telemetry"
)

// RPM tracks a dedicated RPM sensor. Instance 1 and 2 select the first and
// second sensor.
type RPM struct {
	source
	instance int
}

// NewRPM reads RPM sensor instance (1 or 2) from log. Both the instanced
// RPM message and the older rpm1/rpm2 field layout are understood.
func NewRPM(log telemetry.Log, instance int) *RPM {
	mode := ModeRPM1
	if instance == 2 {
		mode = ModeRPM2
	}
	r := &RPM{
		source:   newSource(fmt.Sprintf("RPM%d", instance), mode),
		instance: instance,
	}

	series, err := r.read(log)
	if err != nil {
		r.logger.Debug("no rpm data", logging.Fields{"error": err.Error()})
		return r
	}
	r.aggregate = series
	return r
}

func (r *RPM) read(log telemetry.Log) (Series, error) {
	msg, ok := telemetry.Lookup(log, "RPM")
	if !ok {
		return Series{}, telemetry.ErrNoMessage
	}

	if !msg.Instanced() {
		return readSeries(log, "RPM", fmt.Sprintf("rpm%d", r.instance))
	}

	inst := r.instance - 1
	if !msg.HasInstance(inst) {
		return Series{}, fmt.Errorf("RPM[%d]: %w", inst, telemetry.ErrNoInstance)
	}
	series, err := readInstanceSeries(log, "RPM", inst, "RPM")
	if err != nil {
		return Series{}, err
	}
	if !msg.HasField("H") {
		return series, nil
	}

	// unhealthy samples carry the invalid marker
	health, err := log.GetInstance("RPM", inst, "H")
	if err != nil {
		return Series{}, err
	}
	if err := checkColumn("RPM", "H", series.Time, health); err != nil {
		return Series{}, err
	}
	for i, h := range health {
		if h == 0 {
			series.Value[i] = -1
		}
	}
	return series, nil
}

// HasData reports whether any RPM samples were logged
func (r *RPM) HasData(config.NotchConfig) bool {
	return !r.aggregate.Empty()
}

// Target maps one RPM sample to a notch frequency. Non-positive RPM is
// invalid.
func (r *RPM) Target(cfg config.NotchConfig, rpm float64) float64 {
	return Policy(cfg, rpm*cfg.Ref/60, rpm > 0)
}

func (r *RPM) TargetFreq(cfg config.NotchConfig) (TargetFreq, bool) {
	if !r.HasData(cfg) {
		return TargetFreq{}, false
	}
	if !cfg.Tracked() {
		return r.constant(cfg.Freq), true
	}
	return r.target(false, func(v float64) float64 { return r.Target(cfg, v) }), true
}

func (r *RPM) InterpolatedTargetFreq(instance, index int, cfg config.NotchConfig) ([]float64, bool) {
	return r.interpolatedTarget(instance, index, false, func(v float64) float64 { return r.Target(cfg, v) })
}
