package spectral

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/RyanBlaney/notch-review/algorithms/common"
	"github.com/RyanBlaney/notch-review/logging"
	"github.com/cwbudde/algo-vecmath"
)

var (
	// ErrWindowSize is returned for a non-positive window size or spacing, or
	// a window function whose length differs from the window size.
	ErrWindowSize = errors.New("invalid window size")

	// ErrSignalTooShort is returned when not even one window fits the data.
	ErrSignalTooShort = errors.New("signal too short for window")
)

// Request describes one short-time FFT over one or more equally long channels
type Request struct {
	// Data maps channel name to samples. Channels named in Keys but absent
	// from Data are skipped.
	Data map[string][]float64

	// Keys selects and orders the channels; the first key sets the length.
	Keys []string

	WindowSize    int
	WindowSpacing int

	// Window holds WindowSize coefficients.
	Window []float64

	// TakeMax records the largest absolute windowed sample per window.
	TakeMax bool
}

// Result holds the one-sided scaled spectra of every window, in window order.
type Result struct {
	// Center is the center sample index of each window
	Center []float64 `json:"center"`

	// Spectra[key][i] is the spectrum of window i
	Spectra map[string][]common.Complex `json:"spectra"`

	// Max[key][i] is the max absolute windowed sample of window i, only set
	// when requested
	Max map[string][]float64 `json:"max,omitempty"`

	WindowSize    int `json:"window_size"`
	WindowSpacing int `json:"window_spacing"`
}

// NumWindows returns the number of analysed windows
func (r *Result) NumWindows() int {
	return len(r.Center)
}

// STFT runs short-time FFTs on a worker pool
type STFT struct {
	backend Backend
	workers int
	logger  logging.Logger
}

// NewSTFT creates a new STFT calculator. workers <= 0 sizes the pool from
// the workload.
func NewSTFT(backend Backend, workers int) *STFT {
	if backend == nil {
		backend = GoDSPBackend{}
	}
	return &STFT{
		backend: backend,
		workers: workers,
		logger: logging.WithFields(logging.Fields{
			"component": "stft",
			"backend":   string(backend.Name()),
		}),
	}
}

// NumWindows returns floor((n-size)/spacing)+1, or 0 if no window fits
func NumWindows(n, size, spacing int) int {
	if size <= 0 || spacing <= 0 || n < size {
		return 0
	}
	return (n-size)/spacing + 1
}

// Scale returns the per-bin normalisation for a one-sided spectrum: 1/size
// for DC and, when size is even, the Nyquist bin, and 2/size for every other
// bin to account for the discarded negative frequencies. An odd size has no
// Nyquist bin, so its last bin is doubled too.
func Scale(size int) []float64 {
	realLen := RealLength(size)
	scale := make([]float64, realLen)
	for j := range scale {
		scale[j] = 2 / float64(size)
	}
	scale[0] = 1 / float64(size)
	if size%2 == 0 {
		scale[realLen-1] = 1 / float64(size)
	}
	return scale
}

// Run computes the spectra for every window of the request. Results are
// written into per-window slots so ordering never depends on scheduling.
func (s *STFT) Run(req Request) (*Result, error) {
	if len(req.Keys) == 0 {
		return nil, fmt.Errorf("stft: no channels requested")
	}
	if req.WindowSize <= 0 || req.WindowSpacing <= 0 {
		return nil, fmt.Errorf("stft: %w: size %d spacing %d", ErrWindowSize, req.WindowSize, req.WindowSpacing)
	}
	if len(req.Window) != req.WindowSize {
		return nil, fmt.Errorf("stft: %w: window function has %d points, want %d",
			ErrWindowSize, len(req.Window), req.WindowSize)
	}

	numPoints := len(req.Data[req.Keys[0]])
	numWindows := NumWindows(numPoints, req.WindowSize, req.WindowSpacing)
	if numWindows == 0 {
		return nil, fmt.Errorf("stft: %w: %d samples, window %d", ErrSignalTooShort, numPoints, req.WindowSize)
	}

	keys := make([]string, 0, len(req.Keys))
	for _, key := range req.Keys {
		data, ok := req.Data[key]
		if !ok {
			s.logger.Debug("skipping missing channel", logging.Fields{"channel": key})
			continue
		}
		if len(data) != numPoints {
			return nil, fmt.Errorf("stft channel %s: %w: %d != %d", key, common.ErrLengthMismatch, len(data), numPoints)
		}
		keys = append(keys, key)
	}

	result := &Result{
		Center:        make([]float64, numWindows),
		Spectra:       make(map[string][]common.Complex, len(keys)),
		WindowSize:    req.WindowSize,
		WindowSpacing: req.WindowSpacing,
	}
	if req.TakeMax {
		result.Max = make(map[string][]float64, len(keys))
	}
	for _, key := range keys {
		result.Spectra[key] = make([]common.Complex, numWindows)
		if req.TakeMax {
			result.Max[key] = make([]float64, numWindows)
		}
	}
	for i := range numWindows {
		result.Center[i] = float64(i*req.WindowSpacing) + float64(req.WindowSize)*0.5
	}

	scale := Scale(req.WindowSize)
	numWorkers := s.workerCount(numWindows)

	jobs := make(chan int, numWindows)
	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)

	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			// Reuse frame buffer for this worker
			frame := make([]float64, req.WindowSize)

			for idx := range jobs {
				start := idx * req.WindowSpacing
				for _, key := range keys {
					vecmath.MulBlock(frame, req.Data[key][start:start+req.WindowSize], req.Window)

					if req.TakeMax {
						result.Max[key][idx] = common.MaxAbs(frame)
					}

					bins, err := s.backend.RealTransform(frame)
					if err != nil {
						errOnce.Do(func() { firstErr = fmt.Errorf("stft window %d: %w", idx, err) })
						continue
					}

					spectrum := common.NewComplex(len(scale))
					for j := range scale {
						spectrum.Re[j] = real(bins[j]) * scale[j]
						spectrum.Im[j] = imag(bins[j]) * scale[j]
					}
					result.Spectra[key][idx] = spectrum
				}
			}
		}()
	}

	for idx := range numWindows {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		s.logger.Error(firstErr, "fft failed")
		return nil, firstErr
	}

	s.logger.Debug("stft complete", logging.Fields{
		"windows":  numWindows,
		"channels": len(keys),
		"workers":  numWorkers,
	})
	return result, nil
}

// workerCount determines the number of workers based on workload
func (s *STFT) workerCount(numWindows int) int {
	if s.workers > 0 {
		return min(s.workers, numWindows)
	}

	numCPU := runtime.NumCPU()

	// For small workloads, don't over-parallelize
	if numWindows < 100 {
		return max(1, min(numCPU/2, numWindows))
	}
	if numWindows < 1000 {
		return min(numCPU, 8)
	}
	return numCPU
}
