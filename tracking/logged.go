package tracking

import (
	"fmt"
	"slices"

	"github.com/RyanBlaney/notch-review/config"
	"github.com/RyanBlaney/notch-review/logging"
	"github.com/RyanBlaney/notch-review/telemetry"
)

// Logged replays the notch center frequencies the flight controller itself
// logged for one filter instance. Its output does not depend on any notch
// configuration.
type Logged struct {
	source
	instance int
}

// NewLogged loads the logged notch frequencies of filter instance. A single
// notch record (FTNS) takes precedence over multi-notch records (FTN).
func NewLogged(log telemetry.Log, instance int) *Logged {
	l := &Logged{
		source:   newSource("Logged", ModeLogged),
		instance: instance,
	}

	if msg, ok := telemetry.Lookup(log, "FTNS"); ok && msg.HasInstance(instance) {
		series, err := readInstanceSeries(log, "FTNS", instance, "NF")
		if err == nil {
			l.aggregate = series
			return l
		}
		l.logger.Debug("unreadable single notch record", logging.Fields{"error": err.Error()})
	}

	msg, ok := telemetry.Lookup(log, "FTN")
	if !ok || !msg.HasInstance(instance) {
		return l
	}
	if err := l.readMulti(log); err != nil {
		l.logger.Debug("unreadable multi notch record", logging.Fields{"error": err.Error()})
		l.instances = nil
	}
	return l
}

func (l *Logged) readMulti(log telemetry.Log) error {
	counts, err := log.GetInstance("FTN", l.instance, "NDn")
	if err != nil {
		return err
	}
	notches := 0
	for _, n := range counts {
		notches = max(notches, int(n))
	}

	t, err := telemetry.InstanceSeconds(log, "FTN", l.instance)
	if err != nil {
		return err
	}
	for i := range notches {
		field := fmt.Sprintf("NF%d", i+1)
		v, err := log.GetInstance("FTN", l.instance, field)
		if err != nil {
			return err
		}
		if err := checkColumn("FTN", field, t, v); err != nil {
			return err
		}
		l.instances = append(l.instances, Series{Time: t, Value: slices.Clone(v)})
	}
	return nil
}

// Multi reports whether per-notch frequencies were logged
func (l *Logged) Multi() bool {
	return l.aggregate.Empty() && len(l.instances) > 0
}

func (l *Logged) HasData(config.NotchConfig) bool {
	return !l.aggregate.Empty() || len(l.instances) > 0
}

// TargetFreq returns the logged frequencies unchanged
func (l *Logged) TargetFreq(cfg config.NotchConfig) (TargetFreq, bool) {
	if !l.HasData(cfg) {
		return TargetFreq{}, false
	}
	identity := func(v float64) float64 { return v }
	return l.target(l.Multi(), identity), true
}

func (l *Logged) InterpolatedTargetFreq(instance, index int, _ config.NotchConfig) ([]float64, bool) {
	return l.resampledAt(instance, index, l.Multi())
}

// Mean averages the single notch, or the first of several notches
func (l *Logged) Mean(start, end float64) (float64, bool) {
	if l.Multi() {
		return meanOf(l.instances[0], start, end)
	}
	return l.source.Mean(start, end)
}
