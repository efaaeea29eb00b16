package analysis

import "math"

// WindowType represents different window functions
type WindowType int

const (
	WindowHann WindowType = iota
	WindowHamming
	WindowBlackman
	WindowRectangular
)

// WindowGenerator creates and caches analysis window functions
type WindowGenerator struct {
	cache map[cacheKey][]float64
}

type cacheKey struct {
	windowType WindowType
	size       int
}

// NewWindowGenerator creates a new window generator
func NewWindowGenerator() *WindowGenerator {
	return &WindowGenerator{
		cache: make(map[cacheKey][]float64),
	}
}

// Generate returns the window coefficients for the given type and size
func (wg *WindowGenerator) Generate(windowType WindowType, size int) []float64 {
	if size <= 0 {
		return nil
	}
	// The cosine terms divide by size-1; a single-point window is flat
	if size == 1 {
		return []float64{1.0}
	}

	key := cacheKey{windowType: windowType, size: size}
	if cached, ok := wg.cache[key]; ok {
		return cached
	}

	window := make([]float64, size)
	switch windowType {
	case WindowHann:
		for i := range window {
			window[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(size-1)))
		}
	case WindowHamming:
		for i := range window {
			window[i] = 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/float64(size-1))
		}
	case WindowBlackman:
		for i := range window {
			x := 2 * math.Pi * float64(i) / float64(size-1)
			window[i] = 0.42 - 0.5*math.Cos(x) + 0.08*math.Cos(2*x)
		}
	default:
		for i := range window {
			window[i] = 1.0
		}
	}

	wg.cache[key] = window
	return window
}

// Apply multiplies a signal frame by the window in place-safe copy form
func (wg *WindowGenerator) Apply(frame []float64, windowType WindowType) []float64 {
	window := wg.Generate(windowType, len(frame))
	windowed := make([]float64, len(frame))
	for i := range frame {
		windowed[i] = frame[i] * window[i]
	}
	return windowed
}
