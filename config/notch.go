// Package config holds harmonic notch and analysis configuration.
package config

import "github.com/RyanBlaney/notch-review/telemetry"

// FilterVersion selects the notch target policy of the flight firmware.
// Version 2 drops the notch to 0 Hz on invalid tracking data and ignores the
// configured frequency as a floor.
type FilterVersion int

const (
	FilterV1 FilterVersion = 1
	FilterV2 FilterVersion = 2
)

// Options is the INS_HNTCH_OPTS bitmask
type Options uint32

const (
	OptionDoubleNotch     Options = 1 << 0
	OptionDynamic         Options = 1 << 1 // one notch per motor or peak
	OptionLoopRate        Options = 1 << 2
	OptionEnableOnAllIMUs Options = 1 << 3
	OptionTripleNotch     Options = 1 << 4
)

// Has reports whether every bit of flag is set
func (o Options) Has(flag Options) bool {
	return o&flag == flag
}

// MaxHarmonics is the number of bits of the harmonics bitmask
const MaxHarmonics = 16

// NotchConfig is the subset of a harmonic notch configuration that decides
// the target frequency.
type NotchConfig struct {
	Ref           float64       `json:"ref" yaml:"ref"`
	Freq          float64       `json:"freq" yaml:"freq"`
	MinRatio      float64       `json:"min_ratio" yaml:"min_ratio"`
	Options       Options       `json:"options" yaml:"options"`
	FilterVersion FilterVersion `json:"filter_version" yaml:"filter_version"`
}

// Dynamic reports whether per-instance tracking is selected
func (c NotchConfig) Dynamic() bool {
	return c.Options.Has(OptionDynamic)
}

// Tracked reports whether the notch follows a telemetry source. An
// untracked notch stays at Freq.
func (c NotchConfig) Tracked() bool {
	return c.Ref != 0
}

// HarmonicNotchParams mirrors one INS_HNTCH_ or INS_HNTC2_ parameter group
type HarmonicNotchParams struct {
	Enable      float64 `json:"enable" yaml:"enable"`
	Mode        int     `json:"mode" yaml:"mode"`
	Freq        float64 `json:"freq" yaml:"freq"`
	Bandwidth   float64 `json:"bandwidth" yaml:"bandwidth"`
	Attenuation float64 `json:"attenuation" yaml:"attenuation"`
	Ref         float64 `json:"ref" yaml:"ref"`
	MinRatio    float64 `json:"min_ratio" yaml:"min_ratio"`
	Harmonics   uint32  `json:"harmonics" yaml:"harmonics"`
	Options     Options `json:"options" yaml:"options"`
}

// NotchParamPrefixes are the parameter prefixes of the two harmonic notches
var NotchParamPrefixes = []string{"INS_HNTCH_", "INS_HNTC2_"}

// DefaultHarmonicNotchParams returns the firmware defaults of a disabled notch
func DefaultHarmonicNotchParams() HarmonicNotchParams {
	return HarmonicNotchParams{
		Mode:        1,
		Freq:        80,
		Bandwidth:   40,
		Attenuation: 40,
		Ref:         0,
		MinRatio:    1,
		Harmonics:   3,
	}
}

// Enabled reports whether the notch is switched on
func (p HarmonicNotchParams) Enabled() bool {
	return p.Enable > 0
}

// NotchConfig extracts the target policy inputs with the given filter version
func (p HarmonicNotchParams) NotchConfig(version FilterVersion) NotchConfig {
	return NotchConfig{
		Ref:           p.Ref,
		Freq:          p.Freq,
		MinRatio:      p.MinRatio,
		Options:       p.Options,
		FilterVersion: version,
	}
}

// HarmonicMultipliers returns the enabled harmonics (1 = fundamental)
func (p HarmonicNotchParams) HarmonicMultipliers() []int {
	var out []int
	for n := range MaxHarmonics {
		if p.Harmonics&(1<<n) != 0 {
			out = append(out, n+1)
		}
	}
	return out
}

// NotchesPerHarmonic is 2 for a double notch, 3 for a triple and 1
// otherwise. The double notch bit wins when both are set.
func (p HarmonicNotchParams) NotchesPerHarmonic() int {
	switch {
	case p.Options.Has(OptionDoubleNotch):
		return 2
	case p.Options.Has(OptionTripleNotch):
		return 3
	default:
		return 1
	}
}

// LoadHarmonicNotchParams reads the group with the given prefix from logged
// parameters. Missing parameters keep their defaults; ok is false only when
// not a single parameter of the group was found.
func LoadHarmonicNotchParams(src telemetry.ParamSource, prefix string) (params HarmonicNotchParams, ok bool) {
	params = DefaultHarmonicNotchParams()

	read := func(name string, set func(float64)) {
		if v, found := src.Param(prefix + name); found {
			set(v)
			ok = true
		}
	}
	read("ENABLE", func(v float64) { params.Enable = v })
	read("MODE", func(v float64) { params.Mode = int(v) })
	read("FREQ", func(v float64) { params.Freq = v })
	read("BW", func(v float64) { params.Bandwidth = v })
	read("ATT", func(v float64) { params.Attenuation = v })
	read("REF", func(v float64) { params.Ref = v })
	read("FM_RAT", func(v float64) { params.MinRatio = v })
	read("HMNCS", func(v float64) { params.Harmonics = uint32(v) })
	read("OPTS", func(v float64) { params.Options = Options(v) })
	return params, ok
}
