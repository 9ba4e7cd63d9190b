package common

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice using gonum
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return stat.Mean(data, nil)
}

// MaxAbs returns the largest absolute value in data, 0 for an empty slice.
func MaxAbs(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return math.Max(math.Abs(floats.Max(data)), math.Abs(floats.Min(data)))
}

// WindowBounds returns the half-open index range [startIdx, endIdx) used to
// average a time series over [start, end].
//
// startIdx is the last sample strictly before start (0 when none is), so the
// range starts one sample early rather than late. endIdx is one past the last
// sample at or before end, never beyond the second-to-last sample.
func WindowBounds(time []float64, start, end float64) (startIdx, endIdx int) {
	for j, t := range time {
		if t < start {
			startIdx = j
		}
	}
	for j := 0; j < len(time)-1; j++ {
		if time[j] <= end {
			endIdx = j + 1
		}
	}
	return startIdx, endIdx
}

// WindowMean averages value over the samples selected by WindowBounds.
// It reports false when the window selects no samples.
func WindowMean(time, value []float64, start, end float64) (float64, bool) {
	if len(time) != len(value) {
		return 0, false
	}
	s, e := WindowBounds(time, start, end)
	if e <= s {
		return 0, false
	}
	return stat.Mean(value[s:e], nil), true
}

// Clamp restricts value to the range [lo, hi]
func Clamp(value, lo, hi float64) float64 {
	return math.Min(math.Max(value, lo), hi)
}

// IsPowerOfTwo checks if a number is a power of 2
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}

// ArgMax returns the index of the largest value, -1 for an empty slice.
func ArgMax(data []float64) int {
	if len(data) == 0 {
		return -1
	}
	return floats.MaxIdx(data)
}
