package tracking

import (
	"fmt"
	"math"
	"slices"

	"github.com/RyanBlaney/notch-review/algorithms/common"
	"github.com/RyanBlaney/notch-review/logging"
	"github.com/RyanBlaney/notch-review/telemetry"
)

// source holds the raw samples of one tracking source and the resampled
// copies produced by Interpolate. Estimators embed it and add their own
// target mapping.
type source struct {
	name string
	mode Mode

	// aggregate is the single track used by non-dynamic notches
	aggregate Series

	// instances are the per-motor or per-peak tracks used by dynamic notches
	instances []Series

	cache  map[int]*resampled
	logger logging.Logger
}

type resampled struct {
	n         int
	aggregate []float64
	instances [][]float64
}

func newSource(name string, mode Mode) source {
	return source{
		name:  name,
		mode:  mode,
		cache: make(map[int]*resampled),
		logger: logging.WithFields(logging.Fields{
			"component": "tracking",
			"source":    name,
		}),
	}
}

func (s *source) Name() string {
	return s.name
}

func (s *source) Mode() Mode {
	return s.mode
}

func (s *source) Interpolate(instance int, times []float64) error {
	r := &resampled{n: len(times)}

	if !s.aggregate.Empty() {
		v, err := common.LinearInterp(s.aggregate.Value, s.aggregate.Time, times)
		if err != nil {
			return fmt.Errorf("%s: interpolate: %w", s.name, err)
		}
		r.aggregate = v
	}

	r.instances = make([][]float64, len(s.instances))
	for i, inst := range s.instances {
		if inst.Empty() {
			r.instances[i] = nanSlice(len(times))
			continue
		}
		v, err := common.LinearInterp(inst.Value, inst.Time, times)
		if err != nil {
			return fmt.Errorf("%s: interpolate instance %d: %w", s.name, i, err)
		}
		r.instances[i] = v
	}

	s.cache[instance] = r
	return nil
}

// resampledAt returns the cached source values at index: the aggregate value
// alone, or one value per instance when dynamic is set.
func (s *source) resampledAt(instance, index int, dynamic bool) ([]float64, bool) {
	r, ok := s.cache[instance]
	if !ok || index < 0 || index >= r.n {
		return nil, false
	}
	if !dynamic {
		if r.aggregate == nil {
			return nil, false
		}
		return []float64{r.aggregate[index]}, true
	}
	if len(r.instances) == 0 {
		return nil, false
	}
	out := make([]float64, len(r.instances))
	for i, v := range r.instances {
		out[i] = v[index]
	}
	return out, true
}

func (s *source) interpolatedTarget(instance, index int, dynamic bool, fn func(float64) float64) ([]float64, bool) {
	values, ok := s.resampledAt(instance, index, dynamic)
	if !ok {
		return nil, false
	}
	for i, v := range values {
		values[i] = fn(v)
	}
	return values, true
}

func (s *source) target(dynamic bool, fn func(float64) float64) TargetFreq {
	if !dynamic {
		return TargetFreq{Kind: Aggregate, Aggregate: mapSeries(s.aggregate, fn)}
	}
	out := TargetFreq{Kind: PerInstance, Instances: make([]Series, len(s.instances))}
	for i, inst := range s.instances {
		out.Instances[i] = mapSeries(inst, fn)
	}
	return out
}

// constant spans the aggregate time range with a fixed frequency
func (s *source) constant(freq float64) TargetFreq {
	t := s.aggregate.Time
	return TargetFreq{
		Kind: Aggregate,
		Aggregate: Series{
			Time:  []float64{t[0], t[len(t)-1]},
			Value: []float64{freq, freq},
		},
	}
}

func (s *source) Mean(start, end float64) (float64, bool) {
	return meanOf(s.aggregate, start, end)
}

func meanOf(s Series, start, end float64) (float64, bool) {
	return common.WindowMean(s.Time, s.Value, start, end)
}

func readSeries(log telemetry.Log, msg, field string) (Series, error) {
	t, err := telemetry.Seconds(log, msg)
	if err != nil {
		return Series{}, err
	}
	v, err := log.Get(msg, field)
	if err != nil {
		return Series{}, err
	}
	if err := checkColumn(msg, field, t, v); err != nil {
		return Series{}, err
	}
	return Series{Time: t, Value: slices.Clone(v)}, nil
}

func readInstanceSeries(log telemetry.Log, msg string, instance int, field string) (Series, error) {
	t, err := telemetry.InstanceSeconds(log, msg, instance)
	if err != nil {
		return Series{}, err
	}
	v, err := log.GetInstance(msg, instance, field)
	if err != nil {
		return Series{}, err
	}
	if err := checkColumn(msg, field, t, v); err != nil {
		return Series{}, err
	}
	return Series{Time: t, Value: slices.Clone(v)}, nil
}

// checkColumn rejects a field column that does not pair up one to one with
// the message timestamps.
func checkColumn(msg, field string, t, v []float64) error {
	if len(v) != len(t) {
		return fmt.Errorf("%s.%s: %w: %d values for %d timestamps",
			msg, field, common.ErrLengthMismatch, len(v), len(t))
	}
	return nil
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
