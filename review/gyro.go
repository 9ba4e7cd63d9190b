package review

import (
	"fmt"
	"math"
	"slices"

	"github.com/RyanBlaney/notch-review/algorithms/common"
	"github.com/RyanBlaney/notch-review/algorithms/spectral"
	"github.com/RyanBlaney/notch-review/telemetry"
)

const (
	// MinBatchSamples is the shortest gap free run of raw gyro samples that
	// is kept as a batch
	MinBatchSamples = 64

	// gapFactor splits a batch when a sample interval exceeds this multiple
	// of the running average interval
	gapFactor = 5
)

// LoadGyroBatches splits raw gyro logging (GYR) into gap free batches for
// each sensor instance. A log that is not instanced is sensor 0.
func LoadGyroBatches(log telemetry.Log) (map[int][]spectral.Batch, error) {
	msg, ok := telemetry.Lookup(log, "GYR")
	if !ok {
		return nil, fmt.Errorf("GYR: %w", telemetry.ErrNoMessage)
	}

	read := func(field string, inst int) ([]float64, error) {
		if msg.Instanced() {
			return log.GetInstance("GYR", inst, field)
		}
		return log.Get("GYR", field)
	}

	instances := msg.Instances
	if !msg.Instanced() {
		instances = []int{0}
	}

	out := make(map[int][]spectral.Batch, len(instances))
	for _, inst := range instances {
		cols := make([][]float64, 4)
		for i, field := range []string{"SampleUS", "GyrX", "GyrY", "GyrZ"} {
			v, err := read(field, inst)
			if err != nil {
				return nil, fmt.Errorf("gyro %d: %w", inst, err)
			}
			if i > 0 && len(v) != len(cols[0]) {
				return nil, fmt.Errorf("gyro %d: GYR.%s: %w: %d values for %d samples",
					inst, field, common.ErrLengthMismatch, len(v), len(cols[0]))
			}
			cols[i] = v
		}
		if batches := SplitBatches(cols[0], cols[1], cols[2], cols[3]); len(batches) > 0 {
			out[inst] = batches
		}
	}
	return out, nil
}

// SplitBatches cuts a raw sample stream wherever the interval between two
// samples exceeds gapFactor times the average interval of the current batch.
// Batches shorter than MinBatchSamples are dropped. sampleUS is the sample
// timestamp in microseconds.
func SplitBatches(sampleUS, x, y, z []float64) []spectral.Batch {
	var out []spectral.Batch
	n := len(sampleUS)
	start, count := 0, 0
	for j := 1; j < n; j++ {
		count++
		gap := (sampleUS[j]-sampleUS[j-1])*float64(count) > (sampleUS[j]-sampleUS[start])*gapFactor
		if !gap && j != n-1 {
			continue
		}

		if count >= MinBatchSamples {
			interval := (sampleUS[j-1] - sampleUS[start]) / float64(count-1)
			out = append(out, spectral.Batch{
				StartTime:  sampleUS[start] * 1e-6,
				SampleRate: 1e6 / interval,
				X:          slices.Clone(x[start:j]),
				Y:          slices.Clone(y[start:j]),
				Z:          slices.Clone(z[start:j]),
			})
		}
		start, count = j, 0
	}
	return out
}

// TimeRange returns the first sample time and the end of the last batch
// across all sensors, in seconds. ok is false without batches.
func TimeRange(gyro map[int][]spectral.Batch) (start, end float64, ok bool) {
	start, end = math.Inf(1), math.Inf(-1)
	for _, batches := range gyro {
		for _, b := range batches {
			start = math.Min(start, b.StartTime)
			end = math.Max(end, b.StartTime+float64(len(b.X))/b.SampleRate)
			ok = true
		}
	}
	if !ok {
		return 0, 0, false
	}
	return start, end, true
}
