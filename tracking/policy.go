package tracking

import (
	"math"

	"github.com/RyanBlaney/notch-review/config"
)

// Policy applies the target rules shared by every tracking source:
//
//	untracked (ref == 0)  freq
//	version 2             derived if valid, else 0
//	version 1             max(freq, derived) if valid, else freq
//
// Any version other than 2 follows the version 1 rules.
func Policy(cfg config.NotchConfig, derived float64, valid bool) float64 {
	if !cfg.Tracked() {
		return cfg.Freq
	}
	if cfg.FilterVersion == config.FilterV2 {
		if valid {
			return derived
		}
		return 0
	}
	if valid {
		return math.Max(cfg.Freq, derived)
	}
	return cfg.Freq
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// frequencyTarget treats the source value as a frequency in Hz
func frequencyTarget(cfg config.NotchConfig, hz float64) float64 {
	return Policy(cfg, hz, finite(hz))
}

func mapSeries(s Series, fn func(float64) float64) Series {
	out := Series{Time: s.Time, Value: make([]float64, len(s.Value))}
	for i, v := range s.Value {
		out.Value[i] = fn(v)
	}
	return out
}
