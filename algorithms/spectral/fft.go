package spectral

import (
	"errors"
	"fmt"
	"sync"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/dsp/fourier"
)

// ErrUnknownBackend is returned by NewBackend for an unsupported name.
var ErrUnknownBackend = errors.New("unknown fft backend")

// BackendType names a real FFT implementation
type BackendType string

const (
	BackendGoDSP   BackendType = "godsp"
	BackendGonum   BackendType = "gonum"
	BackendAlgoFFT BackendType = "algofft"
)

// Backend computes the non-negative frequency half of a real DFT.
// Implementations must be safe for concurrent use.
type Backend interface {
	// RealTransform returns bins 0..len(x)/2 of the unscaled DFT of x.
	RealTransform(x []float64) ([]complex128, error)
	Name() BackendType
}

// NewBackend returns the backend for t. An empty type selects go-dsp.
func NewBackend(t BackendType) (Backend, error) {
	switch t {
	case BackendGoDSP, "":
		return GoDSPBackend{}, nil
	case BackendGonum:
		return NewGonumBackend(), nil
	case BackendAlgoFFT:
		return NewAlgoFFTBackend(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, t)
	}
}

// RealLength is the number of bins in the real half of an n point FFT
func RealLength(n int) int {
	return n/2 + 1
}

// GoDSPBackend uses mjibson/go-dsp, which handles any length.
type GoDSPBackend struct{}

func (GoDSPBackend) RealTransform(x []float64) ([]complex128, error) {
	if len(x) == 0 {
		return []complex128{}, nil
	}
	return fft.FFTReal(x)[:RealLength(len(x))], nil
}

func (GoDSPBackend) Name() BackendType { return BackendGoDSP }

// sizedPool hands out per-length transform objects that are not safe to share
// between goroutines.
type sizedPool[T any] struct {
	mu    sync.Mutex
	pools map[int]*sync.Pool
	build func(n int) (T, error)
}

func newSizedPool[T any](build func(n int) (T, error)) *sizedPool[T] {
	return &sizedPool[T]{pools: make(map[int]*sync.Pool), build: build}
}

func (p *sizedPool[T]) get(n int) (T, *sync.Pool, error) {
	p.mu.Lock()
	pool, ok := p.pools[n]
	if !ok {
		pool = &sync.Pool{}
		p.pools[n] = pool
	}
	p.mu.Unlock()

	if v, ok := pool.Get().(T); ok {
		return v, pool, nil
	}
	v, err := p.build(n)
	return v, pool, err
}

// GonumBackend uses gonum's dsp/fourier real transform.
type GonumBackend struct {
	plans *sizedPool[*fourier.FFT]
}

// NewGonumBackend creates a gonum backend with an empty plan cache
func NewGonumBackend() *GonumBackend {
	return &GonumBackend{
		plans: newSizedPool(func(n int) (*fourier.FFT, error) {
			return fourier.NewFFT(n), nil
		}),
	}
}

func (g *GonumBackend) RealTransform(x []float64) ([]complex128, error) {
	if len(x) == 0 {
		return []complex128{}, nil
	}
	plan, pool, err := g.plans.get(len(x))
	if err != nil {
		return nil, err
	}
	defer pool.Put(plan)

	return plan.Coefficients(nil, x), nil
}

func (g *GonumBackend) Name() BackendType { return BackendGonum }

// AlgoFFTBackend runs a complex algo-fft plan on the real input.
type AlgoFFTBackend struct {
	plans *sizedPool[*algofft.Plan[complex128]]
}

// NewAlgoFFTBackend creates an algo-fft backend with an empty plan cache
func NewAlgoFFTBackend() *AlgoFFTBackend {
	return &AlgoFFTBackend{
		plans: newSizedPool(func(n int) (*algofft.Plan[complex128], error) {
			return algofft.NewPlan64(n)
		}),
	}
}

func (a *AlgoFFTBackend) RealTransform(x []float64) ([]complex128, error) {
	if len(x) == 0 {
		return []complex128{}, nil
	}
	plan, pool, err := a.plans.get(len(x))
	if err != nil {
		return nil, fmt.Errorf("algofft plan for %d points: %w", len(x), err)
	}
	defer pool.Put(plan)

	src := make([]complex128, len(x))
	for i, v := range x {
		src[i] = complex(v, 0)
	}
	dst := make([]complex128, len(x))
	if err := plan.Forward(dst, src); err != nil {
		return nil, fmt.Errorf("algofft forward: %w", err)
	}
	return dst[:RealLength(len(x))], nil
}

func (a *AlgoFFTBackend) Name() BackendType { return BackendAlgoFFT }
