package spectral

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/notch-review/algorithms/common"
	"github.com/RyanBlaney/notch-review/algorithms/windowing"
	"github.com/RyanBlaney/notch-review/logging"
)

// BatchOverlap is the fixed fraction of overlap between adjacent windows
const BatchOverlap = 0.5

// Axis names the three sensor axes of a batch
type Axis string

const (
	AxisX Axis = "x"
	AxisY Axis = "y"
	AxisZ Axis = "z"
)

// Axes lists the axes in output order
var Axes = []Axis{AxisX, AxisY, AxisZ}

// Batch is one contiguous block of three-axis sensor samples
type Batch struct {
	StartTime  float64   `json:"start_time"`  // seconds
	SampleRate float64   `json:"sample_rate"` // Hz
	X          []float64 `json:"x"`
	Y          []float64 `json:"y"`
	Z          []float64 `json:"z"`
}

func (b Batch) axis(a Axis) []float64 {
	switch a {
	case AxisX:
		return b.X
	case AxisY:
		return b.Y
	default:
		return b.Z
	}
}

// BatchOptions configures RunBatch
type BatchOptions struct {
	// WindowSize fixes the window length; it must be a power of two. When
	// zero it is derived from WindowsPerBatch and the first batch length.
	WindowSize      int
	WindowsPerBatch int
	Backend         Backend
	Workers         int

	// Window selects the taper; empty means Hann
	Window windowing.Type
}

// BatchResult holds the magnitude spectra of every window of every batch
type BatchResult struct {
	Bins              []float64            `json:"bins"`
	Time              []float64            `json:"time"`
	AverageSampleRate float64              `json:"average_sample_rate"`
	WindowSize        int                  `json:"window_size"`
	Correction        windowing.Correction `json:"correction"`

	// Magnitude[axis][i] is the scaled magnitude spectrum of window i
	Magnitude map[Axis][][]float64 `json:"magnitude"`
}

// BatchWindowSize returns the window length fitting windowsPerBatch windows
// at 50% overlap into numPoints samples. At least one window is assumed.
func BatchWindowSize(numPoints, windowsPerBatch int) int {
	windowsPerBatch = max(windowsPerBatch, 1)
	return int(math.Floor(float64(numPoints) / (1 + float64(windowsPerBatch-1)*(1-BatchOverlap))))
}

// RunBatch runs a windowed (Hann unless set) short-time FFT over each batch that is long
// enough for one window and concatenates the results in batch order.
func RunBatch(batches []Batch, opts BatchOptions) (*BatchResult, error) {
	logger := logging.WithFields(logging.Fields{"component": "batch_fft"})

	if len(batches) == 0 {
		return nil, fmt.Errorf("batch fft: %w: no batches", ErrSignalTooShort)
	}

	windowSize := opts.WindowSize
	if windowSize == 0 {
		windowSize = BatchWindowSize(len(batches[0].X), opts.WindowsPerBatch)
	}
	if !common.IsPowerOfTwo(windowSize) {
		return nil, fmt.Errorf("batch fft: %w: %d is not a power of two", ErrWindowSize, windowSize)
	}

	// Average sample time over usable batches
	var rateSum float64
	var rateCount int
	for _, b := range batches {
		if len(b.X) < windowSize {
			continue
		}
		rateSum += b.SampleRate
		rateCount++
	}
	if rateCount == 0 || rateSum <= 0 {
		return nil, fmt.Errorf("batch fft: %w: no batch holds %d samples", ErrSignalTooShort, windowSize)
	}
	sampleTime := float64(rateCount) / rateSum

	spacing := int(math.Round(float64(windowSize) * (1 - BatchOverlap)))
	taper, err := windowing.New(opts.Window, windowSize)
	if err != nil {
		return nil, fmt.Errorf("batch fft: %w", err)
	}
	window := taper.GetCoefficients()

	result := &BatchResult{
		Bins:              RFFTFreq(windowSize, sampleTime),
		AverageSampleRate: 1 / sampleTime,
		WindowSize:        windowSize,
		Correction:        windowing.CorrectionFactors(window),
		Magnitude:         make(map[Axis][][]float64, len(Axes)),
	}

	keys := make([]string, len(Axes))
	for i, a := range Axes {
		keys[i] = string(a)
	}

	stft := NewSTFT(opts.Backend, opts.Workers)
	for i, b := range batches {
		if len(b.X) < windowSize {
			logger.Debug("batch too short, skipping", logging.Fields{
				"batch":   i,
				"samples": len(b.X),
			})
			continue
		}

		data := make(map[string][]float64, len(Axes))
		for _, a := range Axes {
			data[string(a)] = b.axis(a)
		}
		ret, err := stft.Run(Request{
			Data:          data,
			Keys:          keys,
			WindowSize:    windowSize,
			WindowSpacing: spacing,
			Window:        window,
		})
		if err != nil {
			return nil, fmt.Errorf("batch %d: %w", i, err)
		}

		for _, c := range ret.Center {
			result.Time = append(result.Time, c*sampleTime+b.StartTime)
		}
		for _, a := range Axes {
			for _, spectrum := range ret.Spectra[string(a)] {
				mag, err := common.ComplexAbs(spectrum)
				if err != nil {
					return nil, fmt.Errorf("batch %d: %w", i, err)
				}
				result.Magnitude[a] = append(result.Magnitude[a], mag)
			}
		}
	}

	logger.Debug("batch fft complete", logging.Fields{
		"windows":     len(result.Time),
		"window_size": windowSize,
		"sample_rate": result.AverageSampleRate,
	})
	return result, nil
}

// Resolution returns the bin width in Hz
func (r *BatchResult) Resolution() float64 {
	return r.AverageSampleRate / float64(r.WindowSize)
}

// MeanSpectrum averages the spectra of one axis whose window times fall in
// [start, end], applies the window correction for scale and converts to
// display units. It reports false when no window is selected.
func (r *BatchResult) MeanSpectrum(axis Axis, start, end float64, scale AmplitudeScale) ([]float64, bool) {
	spectra := r.Magnitude[axis]
	if len(spectra) == 0 {
		return nil, false
	}

	startIdx, endIdx := common.WindowBounds(r.Time, start, end)
	endIdx = min(endIdx+1, len(spectra))
	if endIdx <= startIdx {
		return nil, false
	}

	sum := make([]float64, len(spectra[0]))
	for _, spectrum := range spectra[startIdx:endIdx] {
		sum, _ = common.Add(sum, scale.Prepare(spectrum))
	}

	correction := scale.WindowCorrection(r.Correction, r.Resolution())
	mean := common.Scale(sum, correction/float64(endIdx-startIdx))
	return scale.Finish(mean), true
}
