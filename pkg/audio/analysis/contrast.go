package analysis

import (
	"math"
	"sort"
)

// ContrastBands is the number of octave-style bands in the contrast vector
const ContrastBands = 7

// ComputeSpectralContrast computes per-frame peak-to-valley contrast across
// frequency bands. Each band's contrast is log(peak/valley) of its 95th and
// 5th magnitude percentiles; short bands contribute zero.
func ComputeSpectralContrast(spectrogram *SpectrogramResult, numBands int) [][]float64 {
	if numBands <= 0 {
		numBands = ContrastBands
	}

	contrast := make([][]float64, spectrogram.TimeFrames)
	for t := range spectrogram.TimeFrames {
		contrast[t] = frameContrast(spectrogram.Magnitude[t], numBands)
	}
	return contrast
}

func frameContrast(magnitude []float64, numBands int) []float64 {
	contrast := make([]float64, numBands)
	bandSize := len(magnitude) / numBands
	if bandSize == 0 {
		return contrast
	}

	for band := 0; band < numBands; band++ {
		start := band * bandSize
		end := start + bandSize
		if band == numBands-1 {
			end = len(magnitude)
		}
		if start >= end {
			continue
		}

		sorted := make([]float64, end-start)
		copy(sorted, magnitude[start:end])
		sort.Float64s(sorted)

		// 5th/95th percentiles need enough bins to be meaningful
		if len(sorted) > 20 {
			valley := sorted[len(sorted)/20]
			peak := sorted[19*len(sorted)/20]
			if valley > 0 {
				contrast[band] = math.Log(peak / valley)
			}
		}
	}

	return contrast
}
