package common

import (
	"errors"
	"math"
	"sort"
)

// ErrEmptySeries is returned when a series with no samples is asked to
// produce values for one or more query points.
var ErrEmptySeries = errors.New("empty series")

// LinearInterp resamples the series (times, values) at each query time using
// piecewise-linear interpolation between the bracketing samples.
//
// Queries outside [times[0], times[len-1]] are clamped to the first or last
// value; there is no extrapolation. times must be sorted ascending; this is
// assumed, not checked. A query that lands exactly on a sample time returns
// that sample's value unchanged.
func LinearInterp(values, times, query []float64) ([]float64, error) {
	if err := checkLength("linear_interp", len(values), len(times)); err != nil {
		return nil, err
	}
	out := make([]float64, len(query))
	if len(query) == 0 {
		return out, nil
	}
	if len(times) == 0 {
		return nil, ErrEmptySeries
	}

	first := times[0]
	last := times[len(times)-1]
	for i, q := range query {
		switch {
		case math.IsNaN(q):
			out[i] = math.NaN()
		case q <= first:
			out[i] = values[0]
		case q >= last:
			out[i] = values[len(values)-1]
		default:
			// times[j-1] < q <= times[j]
			j := sort.SearchFloat64s(times, q)
			if times[j] == q {
				out[i] = values[j]
				continue
			}
			x0, x1 := times[j-1], times[j]
			t := (q - x0) / (x1 - x0)
			out[i] = values[j-1] + t*(values[j]-values[j-1])
		}
	}
	return out, nil
}
